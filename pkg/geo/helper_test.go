package geo

import (
	"testing"

	"github.com/lintang-b-s/railnav/pkg/datastructure"
)

func TestDouglasPecker(t *testing.T) {
	lineCoords := []datastructure.Coordinate{
		{Lat: -7.565837, Lon: 110.831586},
		{Lat: -7.566063, Lon: 110.832379},
		{Lat: -7.566406, Lon: 110.833232},
	}

	simplified := RamesDouglasPeucker(lineCoords)
	if len(simplified) > 2 {
		t.Errorf("expected 2, got %d", len(simplified))
	}
}
