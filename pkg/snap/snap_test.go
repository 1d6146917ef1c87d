package snap

import (
	"testing"

	"github.com/lintang-b-s/railnav/pkg/datastructure"
	"github.com/stretchr/testify/assert"
)

func station(id uint16, name string, lat, lon float64) datastructure.KVStation {
	return datastructure.KVStation{ID: id, Name: name, CenterLoc: [2]float64{lat, lon}}
}

func TestSnapToStation(t *testing.T) {
	s := NewStationSnapper()
	s.Build([]datastructure.KVStation{
		station(1, "Balapan", -7.5565, 110.8215),
		station(2, "Purwosari", -7.5617, 110.8005),
		station(3, "Jebres", -7.5591, 110.8409),
	})
	assert.Equal(t, 3, s.Size())

	got, ok := s.SnapToStation(-7.5610, 110.8010)
	assert.True(t, ok)
	assert.Equal(t, "Purwosari", got.Name)

	got, ok = s.SnapToStation(-7.5566, 110.8216)
	assert.True(t, ok)
	assert.Equal(t, uint16(1), got.ID)
}

func TestStationsNearby(t *testing.T) {
	s := NewStationSnapper()
	s.Build([]datastructure.KVStation{
		station(1, "Balapan", -7.5565, 110.8215),
		station(2, "Purwosari", -7.5617, 110.8005),
	})

	// both stations sit within ~2.5 km of each other, the closer one first
	near := s.StationsNearby(-7.559, 110.81, 3)
	assert.Equal(t, 2, len(near))
	assert.Equal(t, "Purwosari", near[0].Name)
	assert.Equal(t, "Balapan", near[1].Name)

	// a tight radius around Balapan only finds Balapan
	near = s.StationsNearby(-7.5565, 110.8215, 0.3)
	assert.Equal(t, 1, len(near))
	assert.Equal(t, "Balapan", near[0].Name)

	empty := NewStationSnapper()
	assert.Empty(t, empty.StationsNearby(-7.55, 110.82, 1))
}
