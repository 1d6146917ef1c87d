// Package snap answers "which station is this coordinate" queries with an
// r-tree over the station centers. used by the http api so clients can ask
// for routes between lat/lon points instead of station ids.
package snap

import (
	"github.com/dhconnelly/rtreego"
	"github.com/lintang-b-s/railnav/pkg/datastructure"
	"github.com/lintang-b-s/railnav/pkg/geo"
	"github.com/lintang-b-s/railnav/pkg/util"
)

const (
	// tolerance used to turn a station center into a degenerate rectangle.
	pointTolerance = 1e-6
	minRadiusKm    = 0.3
)

// StationLeaf one station in the r-tree.
type StationLeaf struct {
	Station datastructure.KVStation
	rect    rtreego.Rect
}

func (l *StationLeaf) Bounds() rtreego.Rect {
	return l.rect
}

type StationSnapper struct {
	tree *rtreego.Rtree
}

func NewStationSnapper() *StationSnapper {
	return &StationSnapper{tree: rtreego.NewTree(2, 25, 50)}
}

func (s *StationSnapper) Insert(st datastructure.KVStation) {
	p := rtreego.Point{st.CenterLoc[0], st.CenterLoc[1]}
	leaf := &StationLeaf{Station: st, rect: p.ToRect(pointTolerance)}
	s.tree.Insert(leaf)
}

func (s *StationSnapper) Build(stations []datastructure.KVStation) {
	for _, st := range stations {
		s.Insert(st)
	}
}

// SnapToStation the station nearest to (lat, lon), false when the tree is
// empty.
func (s *StationSnapper) SnapToStation(lat, lon float64) (datastructure.KVStation, bool) {
	found := s.tree.NearestNeighbors(1, rtreego.Point{lat, lon})
	if len(found) == 0 || found[0] == nil {
		return datastructure.KVStation{}, false
	}
	return found[0].(*StationLeaf).Station, true
}

// StationsNearby stations within radiusKm of (lat, lon) ordered nearest
// first, widening twice when nothing falls inside the initial box.
func (s *StationSnapper) StationsNearby(lat, lon, radiusKm float64) []datastructure.KVStation {
	if radiusKm < minRadiusKm {
		radiusKm = minRadiusKm
	}
	out := []datastructure.KVStation{}
	for attempt := 0; attempt < 3 && len(out) == 0; attempt++ {
		upLat, upLon := geo.GetDestinationPoint(lat, lon, 45, radiusKm)
		lowLat, lowLon := geo.GetDestinationPoint(lat, lon, 225, radiusKm)
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{lowLat, lowLon},
			rtreego.Point{upLat, upLon},
		)
		if err != nil {
			return out
		}
		for _, sp := range s.tree.SearchIntersect(rect) {
			leaf := sp.(*StationLeaf)
			dist := geo.CalculateHaversineDistance(lat, lon,
				leaf.Station.CenterLoc[0], leaf.Station.CenterLoc[1])
			if dist <= radiusKm {
				out = append(out, leaf.Station)
			}
		}
		radiusKm *= 2
	}
	// nearest first
	out = util.QuickSortG(out, func(a, b datastructure.KVStation) int {
		da := geo.CalculateHaversineDistance(lat, lon, a.CenterLoc[0], a.CenterLoc[1])
		db := geo.CalculateHaversineDistance(lat, lon, b.CenterLoc[0], b.CenterLoc[1])
		if da < db {
			return -1
		} else if da > db {
			return 1
		}
		return 0
	})
	return out
}

func (s *StationSnapper) Size() int {
	return s.tree.Size()
}
