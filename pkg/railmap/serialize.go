package railmap

import (
	"fmt"
	"os"

	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

type tileSnapshot struct {
	Kind         uint8
	TrackBits    uint8
	RailType     uint8
	Reserved     uint8
	InclineDir   uint8
	StationID    uint16
	DepotDir     uint8
	SafeTdirs    uint16
	SpeedLimit   uint16
	MinSpeed     uint16
	SigPresent   uint16
	SigGreen     uint16
	SigType      [16]uint8
	WormholeExit int32
	WormholeDir  uint8
	TBSignalled  bool
	TBExitOnly   bool
	TBPBS        bool
}

type stationSnapshot struct {
	ID    uint16
	Name  string
	Tiles []int32
	Axis  uint8
	Lat   float64
	Lon   float64
}

type worldSnapshot struct {
	Width     int32
	Height    int32
	OriginLat float64
	OriginLon float64
	TileSizeM float64
	Tiles     []tileSnapshot
	Stations  []stationSnapshot
	Waypoints []stationSnapshot
	Depots    []int32
}

func (m *RailMap) snapshot() *worldSnapshot {
	snap := &worldSnapshot{
		Width:     m.width,
		Height:    m.height,
		OriginLat: m.originLat,
		OriginLon: m.originLon,
		TileSizeM: m.tileSizeM,
		Tiles:     make([]tileSnapshot, len(m.tiles)),
	}
	for i := range m.tiles {
		tl := &m.tiles[i]
		ts := &snap.Tiles[i]
		ts.Kind = uint8(tl.kind)
		ts.TrackBits = uint8(tl.trackBits)
		ts.RailType = uint8(tl.railType)
		ts.Reserved = uint8(tl.reserved)
		ts.InclineDir = uint8(tl.inclineDir)
		ts.StationID = tl.stationID
		ts.DepotDir = uint8(tl.depotDir)
		ts.SafeTdirs = uint16(tl.safeTdirs)
		ts.SpeedLimit = tl.speedLimit
		ts.MinSpeed = tl.minSpeed
		ts.SigPresent = uint16(tl.sigPresent)
		ts.SigGreen = uint16(tl.sigGreen)
		for td := range tl.sigType {
			ts.SigType[td] = uint8(tl.sigType[td])
		}
		ts.WormholeExit = int32(tl.wormholeExit)
		ts.WormholeDir = uint8(tl.wormholeDir)
		ts.TBSignalled = tl.tbSignalled
		ts.TBExitOnly = tl.tbExitOnly
		ts.TBPBS = tl.tbPBS
	}
	for _, st := range m.stations {
		snap.Stations = append(snap.Stations, stationToSnapshot(st))
	}
	for _, wp := range m.waypoints {
		snap.Waypoints = append(snap.Waypoints, stationToSnapshot(wp))
	}
	for _, d := range m.depots {
		snap.Depots = append(snap.Depots, int32(d))
	}
	return snap
}

func stationToSnapshot(st *Station) stationSnapshot {
	ss := stationSnapshot{
		ID:   st.ID,
		Name: st.Name,
		Axis: uint8(st.Axis),
		Lat:  st.Center.Lat,
		Lon:  st.Center.Lon,
	}
	for _, t := range st.Tiles {
		ss.Tiles = append(ss.Tiles, int32(t))
	}
	return ss
}

func stationFromSnapshot(ss stationSnapshot) *Station {
	st := &Station{
		ID:   ss.ID,
		Name: ss.Name,
		Axis: Track(ss.Axis),
	}
	st.Center.Lat = ss.Lat
	st.Center.Lon = ss.Lon
	for _, t := range ss.Tiles {
		st.Tiles = append(st.Tiles, TileIndex(t))
	}
	return st
}

// SaveToFile writes the whole world as a zstd-compressed binary snapshot.
func (m *RailMap) SaveToFile(path string) error {
	encoded, err := binary.Marshal(m.snapshot())
	if err != nil {
		return fmt.Errorf("encode world snapshot: %w", err)
	}
	var compressed []byte
	compressed, err = zstd.Compress(compressed, encoded)
	if err != nil {
		return fmt.Errorf("compress world snapshot: %w", err)
	}
	return os.WriteFile(path, compressed, 0644)
}

// LoadFromFile reads a snapshot written by SaveToFile.
func LoadFromFile(path string) (*RailMap, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var encoded []byte
	encoded, err = zstd.Decompress(encoded, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress world snapshot: %w", err)
	}
	var snap worldSnapshot
	if err := binary.Unmarshal(encoded, &snap); err != nil {
		return nil, fmt.Errorf("decode world snapshot: %w", err)
	}

	m := NewRailMap(snap.Width, snap.Height)
	m.originLat = snap.OriginLat
	m.originLon = snap.OriginLon
	m.tileSizeM = snap.TileSizeM
	for i := range snap.Tiles {
		ts := &snap.Tiles[i]
		tl := &m.tiles[i]
		tl.kind = TileKind(ts.Kind)
		tl.trackBits = TrackBits(ts.TrackBits)
		tl.railType = RailType(ts.RailType)
		tl.reserved = TrackBits(ts.Reserved)
		tl.inclineDir = DiagDirection(ts.InclineDir)
		tl.stationID = ts.StationID
		tl.depotDir = DiagDirection(ts.DepotDir)
		tl.safeTdirs = TrackdirBits(ts.SafeTdirs)
		tl.speedLimit = ts.SpeedLimit
		tl.minSpeed = ts.MinSpeed
		tl.sigPresent = TrackdirBits(ts.SigPresent)
		tl.sigGreen = TrackdirBits(ts.SigGreen)
		for td := range ts.SigType {
			tl.sigType[td] = SignalType(ts.SigType[td])
		}
		tl.wormholeExit = TileIndex(ts.WormholeExit)
		tl.wormholeDir = DiagDirection(ts.WormholeDir)
		tl.tbSignalled = ts.TBSignalled
		tl.tbExitOnly = ts.TBExitOnly
		tl.tbPBS = ts.TBPBS
	}
	for _, ss := range snap.Stations {
		m.stations[ss.ID] = stationFromSnapshot(ss)
	}
	for _, ss := range snap.Waypoints {
		m.waypoints[ss.ID] = stationFromSnapshot(ss)
	}
	for _, d := range snap.Depots {
		m.depots = append(m.depots, TileIndex(d))
	}
	return m, nil
}
