package osmparser

import (
	"context"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lintang-b-s/railnav/pkg/datastructure"
	"github.com/lintang-b-s/railnav/pkg/geo"
	"github.com/lintang-b-s/railnav/pkg/railmap"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

type nodeCoord struct {
	lat float64
	lon float64
}

type stationNode struct {
	id     int64
	name   string
	coord  nodeCoord
	isHalt bool
	isStop bool
}

type railWay struct {
	nodeIDs     []int64
	maxSpeed    float64
	electrified bool
}

type RailParser struct {
	wayNodeMap      map[int64]NodeType
	acceptedNodeMap map[int64]nodeCoord
	signalNodes     map[int64]bool
	crossingNodes   map[int64]bool
	stationNodes    []stationNode
	ways            []railWay

	minLat, maxLat float64
	minLon, maxLon float64

	tileSizeM      float64
	platformLength int
	haltLength     int
}

func NewRailParser() *RailParser {
	return &RailParser{
		wayNodeMap:      make(map[int64]NodeType),
		acceptedNodeMap: make(map[int64]nodeCoord),
		signalNodes:     make(map[int64]bool),
		crossingNodes:   make(map[int64]bool),
		minLat:          91,
		maxLat:          -91,
		minLon:          181,
		maxLon:          -181,
		tileSizeM:       25,
		platformLength:  4,
		haltLength:      2,
	}
}

// Parse reads an openstreetmap pbf and builds the rail tile map plus the
// station directory records. two sequential scans, same as graph building:
// the first classifies way nodes, the second collects coordinates and tags.
func (p *RailParser) Parse(mapFile string) (*railmap.RailMap, []datastructure.KVStation, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	scanner := osmpbf.New(context.Background(), f, 0)
	// must not be parallel
	countWays := 0
	for scanner.Scan() {
		o := scanner.Object()

		if o.ObjectID().Type() != osm.TypeWay {
			continue
		}
		way := o.(*osm.Way)
		if len(way.Nodes) < 2 || !acceptRailWay(way) {
			continue
		}
		if (countWays+1)%50000 == 0 {
			log.Printf("reading openstreetmap rail ways: %d...", countWays+1)
		}
		countWays++

		for i, node := range way.Nodes {
			if _, ok := p.wayNodeMap[int64(node.ID)]; !ok {
				if i == 0 || i == len(way.Nodes)-1 {
					p.wayNodeMap[int64(node.ID)] = END_NODE
				} else {
					p.wayNodeMap[int64(node.ID)] = BETWEEN_NODE
				}
			} else {
				p.wayNodeMap[int64(node.ID)] = JUNCTION_NODE
			}
		}
	}
	scanner.Close()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, err
	}
	scanner = osmpbf.New(context.Background(), f, 0)
	// must not be parallel
	defer scanner.Close()

	countWays = 0
	countNodes := 0
	for scanner.Scan() {
		o := scanner.Object()

		switch o.ObjectID().Type() {
		case osm.TypeWay:
			way := o.(*osm.Way)
			if len(way.Nodes) < 2 || !acceptRailWay(way) {
				continue
			}
			if (countWays+1)%50000 == 0 {
				log.Printf("processing openstreetmap rail ways: %d...", countWays+1)
			}
			countWays++

			p.processWay(way)
		case osm.TypeNode:
			if (countNodes+1)%500000 == 0 {
				log.Printf("processing openstreetmap nodes: %d...", countNodes+1)
			}
			countNodes++
			node := o.(*osm.Node)

			if _, ok := p.wayNodeMap[int64(node.ID)]; ok {
				p.acceptedNodeMap[int64(node.ID)] = nodeCoord{lat: node.Lat, lon: node.Lon}
				p.extendBounds(node.Lat, node.Lon)
			}

			p.processNodeTags(node)
		}
	}

	if len(p.acceptedNodeMap) == 0 {
		log.Printf("no rail ways found in %s", mapFile)
		return railmap.NewRailMap(1, 1), nil, nil
	}

	m := p.buildRailMap()
	stations := p.placeStations(m)
	p.placeSignalsAndCrossings(m)

	log.Printf("total rail ways: %d", len(p.ways))
	log.Printf("total stations: %d", len(stations))

	return m, stations, nil
}

func (p *RailParser) extendBounds(lat, lon float64) {
	if lat < p.minLat {
		p.minLat = lat
	}
	if lat > p.maxLat {
		p.maxLat = lat
	}
	if lon < p.minLon {
		p.minLon = lon
	}
	if lon > p.maxLon {
		p.maxLon = lon
	}
}

func (p *RailParser) processWay(way *osm.Way) {
	w := railWay{nodeIDs: make([]int64, 0, len(way.Nodes))}
	for _, n := range way.Nodes {
		w.nodeIDs = append(w.nodeIDs, int64(n.ID))
	}

	railway := way.Tags.Find("railway")
	maxSpeed := 0.0
	for _, tag := range way.Tags {
		switch tag.Key {
		case "maxspeed":
			if strings.Contains(tag.Value, "mph") {
				currSpeed, err := strconv.ParseFloat(strings.Replace(tag.Value, " mph", "", -1), 64)
				if err == nil {
					maxSpeed = currSpeed * 1.60934
				}
			} else {
				currSpeed, err := strconv.ParseFloat(tag.Value, 64)
				if err == nil {
					maxSpeed = currSpeed
				}
			}
		case "electrified":
			if tag.Value != "no" {
				w.electrified = true
			}
		}
	}
	if maxSpeed == 0 {
		maxSpeed = RailTypeMaxSpeed(railway)
	}
	w.maxSpeed = maxSpeed

	p.ways = append(p.ways, w)
}

func (p *RailParser) processNodeTags(node *osm.Node) {
	railway := node.Tags.Find("railway")
	if railway == "" {
		return
	}

	switch railway {
	case "signal":
		p.signalNodes[int64(node.ID)] = true
	case "level_crossing", "crossing":
		p.crossingNodes[int64(node.ID)] = true
	case "stop":
		p.stationNodes = append(p.stationNodes, stationNode{
			id:     int64(node.ID),
			name:   node.Tags.Find("name"),
			coord:  nodeCoord{lat: node.Lat, lon: node.Lon},
			isStop: true,
		})
	default:
		if _, ok := stationNodeTags[railway]; !ok {
			return
		}
		// skip subway / tram stations, only heavy rail
		if node.Tags.Find("station") == "subway" || node.Tags.Find("subway") == "yes" {
			return
		}
		p.stationNodes = append(p.stationNodes, stationNode{
			id:     int64(node.ID),
			name:   node.Tags.Find("name"),
			coord:  nodeCoord{lat: node.Lat, lon: node.Lon},
			isHalt: railway == "halt",
		})
	}
}

// buildRailMap sizes a tile grid over the bounding box and rasterizes every
// accepted way into track pieces.
func (p *RailParser) buildRailMap() *railmap.RailMap {
	const metersPerDegree = 111194.9

	width := int32((p.maxLon-p.minLon)*metersPerDegree/p.tileSizeM) + 3
	height := int32((p.maxLat-p.minLat)*metersPerDegree/p.tileSizeM) + 3

	m := railmap.NewRailMap(width, height)
	m.SetGeoAnchor(p.maxLat, p.minLon, p.tileSizeM)

	for _, w := range p.ways {
		p.rasterizeWay(m, w)
	}
	return m
}

func (p *RailParser) tileXY(m *railmap.RailMap, c nodeCoord) (int32, int32, bool) {
	t := m.LatLonToTile(c.lat, c.lon)
	if t == railmap.InvalidTile {
		return 0, 0, false
	}
	return m.TileX(t), m.TileY(t), true
}

func (p *RailParser) rasterizeWay(m *railmap.RailMap, w railWay) {
	var path [][2]int32
	for _, id := range w.nodeIDs {
		coord, ok := p.acceptedNodeMap[id]
		if !ok {
			continue
		}
		x, y, ok := p.tileXY(m, coord)
		if !ok {
			continue
		}
		if n := len(path); n > 0 {
			last := path[n-1]
			if last[0] == x && last[1] == y {
				continue
			}
			seg := RasterizeLine(last[0], last[1], x, y)
			path = append(path, seg[1:]...)
		} else {
			path = append(path, [2]int32{x, y})
		}
	}
	if len(path) < 2 {
		return
	}

	// each tile gets the piece connecting its entry edge to its exit edge.
	// endpoints get the straight continuation of their single edge.
	for i := range path {
		var entry, exit railmap.DiagDirection
		switch i {
		case 0:
			exit = stepDir(path[0][0], path[0][1], path[1][0], path[1][1])
			entry = exit.Reverse()
		case len(path) - 1:
			entry = stepDir(path[i][0], path[i][1], path[i-1][0], path[i-1][1])
			exit = entry.Reverse()
		default:
			entry = stepDir(path[i][0], path[i][1], path[i-1][0], path[i-1][1])
			exit = stepDir(path[i][0], path[i][1], path[i+1][0], path[i+1][1])
		}
		track := TrackForSides(entry, exit)
		if track == railmap.InvalidTrack {
			continue
		}
		t, err := m.LayTrack(path[i][0], path[i][1], 1<<track)
		if err != nil {
			continue
		}
		if w.maxSpeed > 0 {
			m.SetSpeedLimits(t, int(w.maxSpeed), 0)
		}
		if w.electrified {
			m.SetRailType(t, railmap.RailTypeElectric)
		}
	}
}

// nearestRailTile spiral search around (x, y) for a plain rail tile.
func nearestRailTile(m *railmap.RailMap, x, y int32, radius int32) railmap.TileIndex {
	for r := int32(0); r <= radius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if abs32(dx) != r && abs32(dy) != r {
					continue
				}
				t := m.TileOf(x+dx, y+dy)
				if t == railmap.InvalidTile {
					continue
				}
				if m.Kind(t) == railmap.TileRail && m.TrackBits(t) != railmap.TrackBitNone {
					return t
				}
			}
		}
	}
	return railmap.InvalidTile
}

// snapToTrackLine projects a station node onto the closest way segment.
// station nodes usually sit beside the tracks (on the station building), the
// projection keeps the platform on the right line when several run in
// parallel.
func (p *RailParser) snapToTrackLine(c nodeCoord) nodeCoord {
	// skip segments whose endpoints are both well outside ~500m, the s2
	// projection is too expensive to run against every way in the extract.
	const coarseDeg = 0.005
	const maxSnapM = 200.0
	near := func(nc datastructure.Coordinate) bool {
		return math.Abs(nc.Lat-c.lat) < coarseDeg && math.Abs(nc.Lon-c.lon) < coarseDeg
	}

	pt := datastructure.NewCoordinate(c.lat, c.lon)
	best := maxSnapM
	var bestA, bestB datastructure.Coordinate
	found := false
	for _, w := range p.ways {
		var prev datastructure.Coordinate
		hasPrev := false
		for _, id := range w.nodeIDs {
			nc, ok := p.acceptedNodeMap[id]
			if !ok {
				continue
			}
			cur := datastructure.NewCoordinate(nc.lat, nc.lon)
			if hasPrev && (near(prev) || near(cur)) {
				if d := geo.PointLinePerpendicularDistance(prev, cur, pt); d < best {
					best = d
					bestA, bestB = prev, cur
					found = true
				}
			}
			prev, hasPrev = cur, true
		}
	}
	if !found {
		return c
	}
	proj := geo.ProjectPointToLineCoord(
		geo.NewCoordinate(bestA.Lat, bestA.Lon),
		geo.NewCoordinate(bestB.Lat, bestB.Lon),
		geo.NewCoordinate(c.lat, c.lon))
	return nodeCoord{lat: proj.Lat, lon: proj.Lon}
}

// placeStations converts station nodes into platforms on the nearest track
// run and returns the kv directory records.
func (p *RailParser) placeStations(m *railmap.RailMap) []datastructure.KVStation {
	stations := make([]datastructure.KVStation, 0, len(p.stationNodes))
	nextID := uint16(1)

	for _, sn := range p.stationNodes {
		x, y, ok := p.tileXY(m, p.snapToTrackLine(sn.coord))
		if !ok {
			continue
		}
		t := nearestRailTile(m, x, y, 8)
		if t == railmap.InvalidTile {
			continue
		}

		bits := m.TrackBits(t)
		var dir railmap.DiagDirection
		switch {
		case bits.Has(railmap.TrackX):
			dir = railmap.DiagDirSW
		case bits.Has(railmap.TrackY):
			dir = railmap.DiagDirSE
		default:
			// corner piece, no room for a platform here
			continue
		}

		length := p.platformLength
		if sn.isHalt || sn.isStop {
			length = p.haltLength
		}
		length = platformRunLength(m, t, dir, length)

		name := sn.name
		if name == "" {
			name = "station " + strconv.FormatUint(uint64(nextID), 10)
		}

		var st *railmap.Station
		var err error
		if sn.isStop {
			st, err = m.BuildWaypoint(nextID, name, m.TileX(t), m.TileY(t), dir, length)
		} else {
			st, err = m.BuildStation(nextID, name, m.TileX(t), m.TileY(t), dir, length)
		}
		if err != nil {
			continue
		}

		stations = append(stations, datastructure.KVStation{
			ID:             st.ID,
			Name:           st.Name,
			CenterLoc:      [2]float64{st.Center.Lat, st.Center.Lon},
			PlatformLength: int32(length),
			TileX:          m.TileX(st.Tiles[0]),
			TileY:          m.TileY(st.Tiles[0]),
			IsWaypoint:     sn.isStop,
		})
		nextID++
	}
	return stations
}

// platformRunLength clamps the platform to the straight track run starting
// at t toward dir.
func platformRunLength(m *railmap.RailMap, t railmap.TileIndex, dir railmap.DiagDirection, want int) int {
	axis := railmap.DiagDirToDiagTrackdir(dir).Track()
	length := 1
	cur := t
	for length < want {
		next := m.AdjacentTile(cur, dir)
		if next == railmap.InvalidTile {
			break
		}
		if m.Kind(next) != railmap.TileRail || !m.TrackBits(next).Has(axis) {
			break
		}
		length++
		cur = next
	}
	return length
}

func (p *RailParser) placeSignalsAndCrossings(m *railmap.RailMap) {
	countSignals := 0
	for id := range p.signalNodes {
		coord, ok := p.acceptedNodeMap[id]
		if !ok {
			continue
		}
		t := m.LatLonToTile(coord.lat, coord.lon)
		if t == railmap.InvalidTile || m.Kind(t) != railmap.TileRail {
			continue
		}
		bits := m.TrackBits(t)
		var track railmap.Track
		switch {
		case bits.Has(railmap.TrackX):
			track = railmap.TrackX
		case bits.Has(railmap.TrackY):
			track = railmap.TrackY
		default:
			continue
		}
		// two-way path signal, green until a reservation flips it
		m.AddSignal(t, railmap.Trackdir(track), railmap.SignalPBS, railmap.SignalStateGreen)
		m.AddSignal(t, railmap.Trackdir(track).Reverse(), railmap.SignalPBS, railmap.SignalStateGreen)
		countSignals++
	}

	countCrossings := 0
	for id := range p.crossingNodes {
		coord, ok := p.acceptedNodeMap[id]
		if !ok {
			continue
		}
		t := m.LatLonToTile(coord.lat, coord.lon)
		if t == railmap.InvalidTile || m.Kind(t) != railmap.TileRail {
			continue
		}
		bits := m.TrackBits(t)
		if bits != railmap.TrackBitX && bits != railmap.TrackBitY {
			continue
		}
		if _, err := m.BuildLevelCrossing(m.TileX(t), m.TileY(t), bits.FirstTrack()); err == nil {
			countCrossings++
		}
	}

	log.Printf("total signals placed: %d", countSignals)
	log.Printf("total level crossings: %d", countCrossings)
}

func acceptRailWay(way *osm.Way) bool {
	railway := way.Tags.Find("railway")
	if railway == "" {
		return false
	}
	if _, ok := skipRailway[railway]; ok {
		return false
	}
	if way.Tags.Find("service") == "yard" {
		return false
	}
	return true
}
