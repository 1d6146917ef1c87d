package railmap

import (
	"errors"
	"fmt"

	"github.com/lintang-b-s/railnav/pkg/datastructure"
)

var (
	ErrTileOutOfBounds  = errors.New("tile out of bounds")
	ErrStationNotFound  = errors.New("station not found")
	ErrWaypointNotFound = errors.New("waypoint not found")
)

// Station a named rail station (or waypoint). Tiles lists every platform
// tile, Axis the track the platforms run along.
type Station struct {
	ID     uint16
	Name   string
	Tiles  []TileIndex
	Axis   Track
	Center datastructure.Coordinate
}

// RailMap tile-array world model. width*height tiles, bit-packed track,
// signal and reservation state per tile, plus station/waypoint/depot
// registries and a geographic anchor so tile paths can be rendered as
// lat/lon coordinates.
type RailMap struct {
	width  int32
	height int32
	tiles  []tile

	stations  map[uint16]*Station
	waypoints map[uint16]*Station
	depots    []TileIndex

	// geo anchor: coordinate of tile (0, 0), x axis heading and the tile
	// edge length used to project tiles onto the globe.
	originLat float64
	originLon float64
	tileSizeM float64
}

const defaultTileSizeM = 25.0

func NewRailMap(width, height int32) *RailMap {
	tiles := make([]tile, width*height)
	for i := range tiles {
		tiles[i] = newTile()
	}
	return &RailMap{
		width:     width,
		height:    height,
		tiles:     tiles,
		stations:  make(map[uint16]*Station),
		waypoints: make(map[uint16]*Station),
		tileSizeM: defaultTileSizeM,
	}
}

func (m *RailMap) SetGeoAnchor(lat, lon, tileSizeM float64) {
	m.originLat = lat
	m.originLon = lon
	m.tileSizeM = tileSizeM
}

func (m *RailMap) Width() int32  { return m.width }
func (m *RailMap) Height() int32 { return m.height }

func (m *RailMap) TileOf(x, y int32) TileIndex {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return InvalidTile
	}
	return TileIndex(y*m.width + x)
}

func (m *RailMap) TileX(t TileIndex) int32 { return int32(t) % m.width }
func (m *RailMap) TileY(t TileIndex) int32 { return int32(t) / m.width }

// AdjacentTile the neighbouring tile in direction d, InvalidTile at the map
// border.
func (m *RailMap) AdjacentTile(t TileIndex, d DiagDirection) TileIndex {
	dx, dy := d.TileOffset()
	return m.TileOf(m.TileX(t)+int32(dx), m.TileY(t)+int32(dy))
}

func (m *RailMap) at(t TileIndex) *tile {
	return &m.tiles[t]
}

func (m *RailMap) Kind(t TileIndex) TileKind {
	return m.at(t).kind
}

func (m *RailMap) IsPlainRailTile(t TileIndex) bool {
	return m.at(t).kind == TileRail
}

func (m *RailMap) IsRailDepotTile(t TileIndex) bool {
	return m.at(t).kind == TileDepot
}

func (m *RailMap) IsRailStationTile(t TileIndex) bool {
	return m.at(t).kind == TileStation
}

func (m *RailMap) IsRailWaypointTile(t TileIndex) bool {
	return m.at(t).kind == TileWaypoint
}

func (m *RailMap) IsLevelCrossingTile(t TileIndex) bool {
	return m.at(t).kind == TileLevelCrossing
}

func (m *RailMap) IsTunnelBridgeTile(t TileIndex) bool {
	return m.at(t).kind == TileTunnelBridge
}

// TrackBits tracks present on the tile, whatever its kind.
func (m *RailMap) TrackBits(t TileIndex) TrackBits {
	return m.at(t).trackBits
}

func (m *RailMap) RailType(t TileIndex) RailType {
	return m.at(t).railType
}

func (m *RailMap) DepotDir(t TileIndex) DiagDirection {
	return m.at(t).depotDir
}

// --- reservations -----------------------------------------------------------

func (m *RailMap) ReservedTrackBits(t TileIndex) TrackBits {
	return m.at(t).reserved
}

func (m *RailMap) HasReservedTracks(t TileIndex) bool {
	return m.at(t).reserved != TrackBitNone
}

// TrackOverlapsTracks whether reserving track t on top of bits would conflict:
// true when t is already in the set or crosses a member of the set.
func TrackOverlapsTracks(bits TrackBits, t Track) bool {
	if bits.Has(t) {
		return true
	}
	return TrackBitsToTrackdirBits(bits)&trackCrossesTrackdirs[t] != 0
}

// --- slope ------------------------------------------------------------------

// IsUphill whether travelling td over the tile climbs its incline.
func (m *RailMap) IsUphill(t TileIndex, td Trackdir) bool {
	incline := m.at(t).inclineDir
	return incline != InvalidDiagDir && td.ExitDir() == incline
}

// --- signals ----------------------------------------------------------------

func (m *RailMap) HasSignalOnTrackdir(t TileIndex, td Trackdir) bool {
	return m.at(t).sigPresent.Has(td)
}

func (m *RailMap) SignalStateByTrackdir(t TileIndex, td Trackdir) SignalState {
	if m.at(t).sigGreen.Has(td) {
		return SignalStateGreen
	}
	return SignalStateRed
}

func (m *RailMap) SignalTypeByTrackdir(t TileIndex, td Trackdir) SignalType {
	return m.at(t).sigType[td]
}

// --- stations / waypoints ---------------------------------------------------

func (m *RailMap) StationID(t TileIndex) uint16 {
	return m.at(t).stationID
}

// PlatformLength number of contiguous platform tiles of the same station
// along the axis of td, counting the tile itself.
func (m *RailMap) PlatformLength(t TileIndex, td Trackdir) int {
	kind := m.at(t).kind
	sid := m.at(t).stationID
	length := 1
	for _, dir := range []DiagDirection{td.ExitDir(), td.ExitDir().Reverse()} {
		next := m.AdjacentTile(t, dir)
		for next != InvalidTile && m.at(next).kind == kind && m.at(next).stationID == sid {
			length++
			next = m.AdjacentTile(next, dir)
		}
	}
	return length
}

// PlatformTilesAhead platform tiles remaining ahead of t (exclusive) in the
// travel direction of td.
func (m *RailMap) PlatformTilesAhead(t TileIndex, td Trackdir) int {
	kind := m.at(t).kind
	sid := m.at(t).stationID
	n := 0
	next := m.AdjacentTile(t, td.ExitDir())
	for next != InvalidTile && m.at(next).kind == kind && m.at(next).stationID == sid {
		n++
		next = m.AdjacentTile(next, td.ExitDir())
	}
	return n
}

// IsAnyStationTileReserved whether any of the skipped+1 platform tiles ending
// at t (walking backwards against td) holds a reservation.
func (m *RailMap) IsAnyStationTileReserved(t TileIndex, td Trackdir, skipped int) bool {
	back := td.ExitDir().Reverse()
	cur := t
	for i := 0; i <= skipped && cur != InvalidTile; i++ {
		if m.at(cur).reserved != TrackBitNone {
			return true
		}
		cur = m.AdjacentTile(cur, back)
	}
	return false
}

func (m *RailMap) StationByID(id uint16) (*Station, error) {
	st, ok := m.stations[id]
	if !ok {
		return nil, ErrStationNotFound
	}
	return st, nil
}

func (m *RailMap) StationByName(name string) (*Station, error) {
	for _, st := range m.stations {
		if st.Name == name {
			return st, nil
		}
	}
	return nil, ErrStationNotFound
}

func (m *RailMap) WaypointByID(id uint16) (*Station, error) {
	wp, ok := m.waypoints[id]
	if !ok {
		return nil, ErrWaypointNotFound
	}
	return wp, nil
}

func (m *RailMap) Stations() []*Station {
	out := make([]*Station, 0, len(m.stations))
	for _, st := range m.stations {
		out = append(out, st)
	}
	return out
}

func (m *RailMap) Depots() []TileIndex {
	return m.depots
}

// --- safe waiting / speed ---------------------------------------------------

func (m *RailMap) IsSafeWaitingPosition(t TileIndex, td Trackdir) bool {
	return m.at(t).safeTdirs.Has(td)
}

// SpeedLimits (maxSpeed, minSpeed) enforced by the tile, 0 = unrestricted.
func (m *RailMap) SpeedLimits(t TileIndex) (int, int) {
	return int(m.at(t).speedLimit), int(m.at(t).minSpeed)
}

// --- tunnel / bridge --------------------------------------------------------

// WormholeExit the far head of the tunnel/bridge starting at t, and the
// travel direction through it. (InvalidTile, InvalidDiagDir) when t is not a
// wormhole head.
func (m *RailMap) WormholeExit(t TileIndex) (TileIndex, DiagDirection) {
	return m.at(t).wormholeExit, m.at(t).wormholeDir
}

func (m *RailMap) IsTunnelBridgeSignalled(t TileIndex) bool {
	return m.at(t).tbSignalled
}

// IsTunnelBridgeExitOnly whether the signalled section may only be left, not
// entered, through head t.
func (m *RailMap) IsTunnelBridgeExitOnly(t TileIndex) bool {
	return m.at(t).tbExitOnly
}

func (m *RailMap) IsTunnelBridgePBS(t TileIndex) bool {
	return m.at(t).tbPBS
}

// --- geo --------------------------------------------------------------------

// TileToLatLon projects the tile center onto the globe using the map's geo
// anchor. the x axis runs along the anchor latitude, y along the longitude.
func (m *RailMap) TileToLatLon(t TileIndex) datastructure.Coordinate {
	const metersPerDegree = 111194.9
	x := float64(m.TileX(t)) + 0.5
	y := float64(m.TileY(t)) + 0.5
	lat := m.originLat - y*m.tileSizeM/metersPerDegree
	lon := m.originLon + x*m.tileSizeM/metersPerDegree
	return datastructure.NewCoordinate(lat, lon)
}

// LatLonToTile nearest tile for a coordinate. InvalidTile outside the map.
func (m *RailMap) LatLonToTile(lat, lon float64) TileIndex {
	const metersPerDegree = 111194.9
	x := int32((lon - m.originLon) * metersPerDegree / m.tileSizeM)
	y := int32((m.originLat - lat) * metersPerDegree / m.tileSizeM)
	return m.TileOf(x, y)
}

// --- builder ----------------------------------------------------------------

func (m *RailMap) checkTile(x, y int32) (TileIndex, error) {
	t := m.TileOf(x, y)
	if t == InvalidTile {
		return InvalidTile, fmt.Errorf("tile (%d,%d): %w", x, y, ErrTileOutOfBounds)
	}
	return t, nil
}

// LayTrack adds track pieces to a tile, making it a plain rail tile if it was
// clear.
func (m *RailMap) LayTrack(x, y int32, bits TrackBits) (TileIndex, error) {
	t, err := m.checkTile(x, y)
	if err != nil {
		return InvalidTile, err
	}
	tl := m.at(t)
	if tl.kind == TileClear {
		tl.kind = TileRail
		tl.railType = RailTypeNormal
	}
	tl.trackBits |= bits
	return t, nil
}

func (m *RailMap) SetRailType(t TileIndex, rt RailType) {
	m.at(t).railType = rt
}

func (m *RailMap) SetIncline(t TileIndex, uphillToward DiagDirection) {
	m.at(t).inclineDir = uphillToward
}

func (m *RailMap) SetSpeedLimits(t TileIndex, maxSpeed, minSpeed int) {
	m.at(t).speedLimit = uint16(maxSpeed)
	m.at(t).minSpeed = uint16(minSpeed)
}

func (m *RailMap) SetSafeWaitingPosition(t TileIndex, td Trackdir, safe bool) {
	if safe {
		m.at(t).safeTdirs |= td.Bit()
	} else {
		m.at(t).safeTdirs &^= td.Bit()
	}
}

// AddSignal places a signal facing td.
func (m *RailMap) AddSignal(t TileIndex, td Trackdir, typ SignalType, state SignalState) {
	tl := m.at(t)
	tl.sigPresent |= td.Bit()
	tl.sigType[td] = typ
	m.SetSignalState(t, td, state)
}

func (m *RailMap) SetSignalState(t TileIndex, td Trackdir, state SignalState) {
	tl := m.at(t)
	if state == SignalStateGreen {
		tl.sigGreen |= td.Bit()
	} else {
		tl.sigGreen &^= td.Bit()
	}
}

func (m *RailMap) SetReservation(t TileIndex, track Track, reserved bool) {
	tl := m.at(t)
	if reserved {
		tl.reserved |= 1 << track
	} else {
		tl.reserved &^= 1 << track
	}
}

// BuildStation lays a platform of length tiles starting at (x, y) running
// toward dir, registered under the given id and name.
func (m *RailMap) BuildStation(id uint16, name string, x, y int32, dir DiagDirection, length int) (*Station, error) {
	return m.buildPlatform(TileStation, id, name, x, y, dir, length)
}

// BuildWaypoint like BuildStation; waypoints are routing targets that trains
// pass through without stopping.
func (m *RailMap) BuildWaypoint(id uint16, name string, x, y int32, dir DiagDirection, length int) (*Station, error) {
	return m.buildPlatform(TileWaypoint, id, name, x, y, dir, length)
}

func (m *RailMap) buildPlatform(kind TileKind, id uint16, name string, x, y int32, dir DiagDirection, length int) (*Station, error) {
	axis := DiagDirToDiagTrackdir(dir).Track()
	st := &Station{ID: id, Name: name, Axis: axis}

	cx, cy := x, y
	dx, dy := dir.TileOffset()
	for i := 0; i < length; i++ {
		t, err := m.checkTile(cx, cy)
		if err != nil {
			return nil, err
		}
		tl := m.at(t)
		tl.kind = kind
		tl.trackBits = 1 << axis
		tl.stationID = id
		if tl.railType == InvalidRailType {
			tl.railType = RailTypeNormal
		}
		st.Tiles = append(st.Tiles, t)
		cx += int32(dx)
		cy += int32(dy)
	}
	st.Center = m.TileToLatLon(st.Tiles[len(st.Tiles)/2])
	if kind == TileWaypoint {
		m.waypoints[id] = st
	} else {
		m.stations[id] = st
	}
	return st, nil
}

// BuildDepot places a depot opening toward openDir.
func (m *RailMap) BuildDepot(x, y int32, openDir DiagDirection) (TileIndex, error) {
	t, err := m.checkTile(x, y)
	if err != nil {
		return InvalidTile, err
	}
	tl := m.at(t)
	tl.kind = TileDepot
	tl.depotDir = openDir
	tl.trackBits = 1 << DiagDirToDiagTrackdir(openDir).Track()
	if tl.railType == InvalidRailType {
		tl.railType = RailTypeNormal
	}
	m.depots = append(m.depots, t)
	return t, nil
}

// BuildLevelCrossing a road crossing carrying a single straight track.
func (m *RailMap) BuildLevelCrossing(x, y int32, axis Track) (TileIndex, error) {
	t, err := m.checkTile(x, y)
	if err != nil {
		return InvalidTile, err
	}
	tl := m.at(t)
	tl.kind = TileLevelCrossing
	tl.trackBits = 1 << axis
	if tl.railType == InvalidRailType {
		tl.railType = RailTypeNormal
	}
	return t, nil
}

// BuildTunnel links two wormhole heads. dir is the travel direction from head
// (x1, y1) to head (x2, y2); both heads carry the diagonal track of that
// axis.
func (m *RailMap) BuildTunnel(x1, y1, x2, y2 int32, dir DiagDirection, signalled, exitOnlyFar, pbs bool) (TileIndex, TileIndex, error) {
	t1, err := m.checkTile(x1, y1)
	if err != nil {
		return InvalidTile, InvalidTile, err
	}
	t2, err := m.checkTile(x2, y2)
	if err != nil {
		return InvalidTile, InvalidTile, err
	}
	track := DiagDirToDiagTrackdir(dir).Track()
	for _, h := range []struct {
		t    TileIndex
		exit TileIndex
		d    DiagDirection
		eo   bool
	}{
		{t1, t2, dir, false},
		{t2, t1, dir.Reverse(), exitOnlyFar},
	} {
		tl := m.at(h.t)
		tl.kind = TileTunnelBridge
		tl.trackBits = 1 << track
		tl.wormholeExit = h.exit
		tl.wormholeDir = h.d
		tl.tbSignalled = signalled
		tl.tbExitOnly = h.eo
		tl.tbPBS = pbs
		if tl.railType == InvalidRailType {
			tl.railType = RailTypeNormal
		}
	}
	return t1, t2, nil
}

// WormholeLength tiles between the two heads, exclusive.
func (m *RailMap) WormholeLength(t TileIndex) int {
	exit, _ := m.at(t).wormholeExit, m.at(t).wormholeDir
	if exit == InvalidTile {
		return 0
	}
	dx := m.TileX(exit) - m.TileX(t)
	dy := m.TileY(exit) - m.TileY(t)
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	n := int(dx + dy - 1)
	if n < 0 {
		n = 0
	}
	return n
}
