package pathfinder

import (
	"github.com/lintang-b-s/railnav/pkg/railmap"
	"github.com/lintang-b-s/railnav/pkg/util"
)

type DestinationType uint8

const (
	DestStation DestinationType = iota
	DestWaypoint
	DestDepot
	DestTile
)

// Train is the profile of the consist we are routing. Length is in 1/16 tile
// units, the same granularity the reservation code uses.
type Train struct {
	MaxSpeed   int // km/h
	Length     int
	CargoClass uint8
	RailTypes  railmap.RailTypes

	DestType DestinationType
	DestID   uint16
	DestTile railmap.TileIndex
}

func (t *Train) LengthTiles() int {
	return util.CeilDiv(t.Length, tileLengthUnits)
}
