package railmap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayTrackAndAccessors(t *testing.T) {
	m := NewRailMap(16, 16)

	tile, err := m.LayTrack(3, 4, TrackBitX)
	assert.Nil(t, err)
	assert.True(t, m.IsPlainRailTile(tile))
	assert.Equal(t, TrackBitX, m.TrackBits(tile))
	assert.Equal(t, RailTypeNormal, m.RailType(tile))
	assert.Equal(t, int32(3), m.TileX(tile))
	assert.Equal(t, int32(4), m.TileY(tile))

	_, err = m.LayTrack(-1, 0, TrackBitX)
	assert.ErrorIs(t, err, ErrTileOutOfBounds)
}

func TestAdjacentTile(t *testing.T) {
	m := NewRailMap(8, 8)
	center := m.TileOf(4, 4)

	assert.Equal(t, m.TileOf(3, 4), m.AdjacentTile(center, DiagDirNE))
	assert.Equal(t, m.TileOf(5, 4), m.AdjacentTile(center, DiagDirSW))
	assert.Equal(t, m.TileOf(4, 5), m.AdjacentTile(center, DiagDirSE))
	assert.Equal(t, m.TileOf(4, 3), m.AdjacentTile(center, DiagDirNW))

	corner := m.TileOf(0, 0)
	assert.Equal(t, InvalidTile, m.AdjacentTile(corner, DiagDirNE))
	assert.Equal(t, InvalidTile, m.AdjacentTile(corner, DiagDirNW))
}

func TestSignals(t *testing.T) {
	m := NewRailMap(8, 8)
	tile, _ := m.LayTrack(2, 2, TrackBitX)

	m.AddSignal(tile, TrackdirXSW, SignalPBS, SignalStateRed)
	assert.True(t, m.HasSignalOnTrackdir(tile, TrackdirXSW))
	assert.False(t, m.HasSignalOnTrackdir(tile, TrackdirXNE))
	assert.Equal(t, SignalStateRed, m.SignalStateByTrackdir(tile, TrackdirXSW))
	assert.Equal(t, SignalPBS, m.SignalTypeByTrackdir(tile, TrackdirXSW))

	m.SetSignalState(tile, TrackdirXSW, SignalStateGreen)
	assert.Equal(t, SignalStateGreen, m.SignalStateByTrackdir(tile, TrackdirXSW))
}

func TestStationPlatform(t *testing.T) {
	m := NewRailMap(16, 16)
	st, err := m.BuildStation(1, "Balapan", 4, 8, DiagDirSW, 3)
	assert.Nil(t, err)
	assert.Equal(t, 3, len(st.Tiles))
	assert.Equal(t, TrackX, st.Axis)

	mid := st.Tiles[1]
	assert.True(t, m.IsRailStationTile(mid))
	assert.Equal(t, uint16(1), m.StationID(mid))
	assert.Equal(t, 3, m.PlatformLength(mid, TrackdirXSW))
	assert.Equal(t, 1, m.PlatformTilesAhead(mid, TrackdirXSW))
	assert.Equal(t, 0, m.PlatformTilesAhead(st.Tiles[2], TrackdirXSW))

	found, err := m.StationByName("Balapan")
	assert.Nil(t, err)
	assert.Equal(t, st.ID, found.ID)

	_, err = m.StationByName("Lempuyangan")
	assert.ErrorIs(t, err, ErrStationNotFound)
}

func TestStationReservationScan(t *testing.T) {
	m := NewRailMap(16, 16)
	st, _ := m.BuildStation(7, "Purwosari", 4, 8, DiagDirSW, 3)

	assert.False(t, m.IsAnyStationTileReserved(st.Tiles[2], TrackdirXSW, 2))
	assert.False(t, m.HasReservedTracks(st.Tiles[0]))
	m.SetReservation(st.Tiles[0], TrackX, true)
	assert.True(t, m.HasReservedTracks(st.Tiles[0]))
	assert.True(t, m.IsAnyStationTileReserved(st.Tiles[2], TrackdirXSW, 2))
	// scan that stops short of the reserved tile
	assert.False(t, m.IsAnyStationTileReserved(st.Tiles[2], TrackdirXSW, 1))
}

func TestDepotAndCrossing(t *testing.T) {
	m := NewRailMap(8, 8)
	depot, err := m.BuildDepot(2, 2, DiagDirSW)
	assert.Nil(t, err)
	assert.True(t, m.IsRailDepotTile(depot))
	assert.Equal(t, DiagDirSW, m.DepotDir(depot))
	assert.Equal(t, TrackBitX, m.TrackBits(depot))

	crossing, err := m.BuildLevelCrossing(3, 3, TrackY)
	assert.Nil(t, err)
	assert.True(t, m.IsLevelCrossingTile(crossing))
	assert.Equal(t, TrackBitY, m.TrackBits(crossing))
}

func TestTunnel(t *testing.T) {
	m := NewRailMap(16, 16)
	near, far, err := m.BuildTunnel(2, 4, 9, 4, DiagDirSW, true, true, false)
	assert.Nil(t, err)
	assert.True(t, m.IsTunnelBridgeTile(near))

	exit, dir := m.WormholeExit(near)
	assert.Equal(t, far, exit)
	assert.Equal(t, DiagDirSW, dir)
	assert.Equal(t, 6, m.WormholeLength(near))

	assert.True(t, m.IsTunnelBridgeSignalled(near))
	assert.False(t, m.IsTunnelBridgeExitOnly(near))
	assert.True(t, m.IsTunnelBridgeExitOnly(far))
}

func TestUphill(t *testing.T) {
	m := NewRailMap(8, 8)
	tile, _ := m.LayTrack(2, 2, TrackBitX)
	m.SetIncline(tile, DiagDirSW)

	assert.True(t, m.IsUphill(tile, TrackdirXSW))
	assert.False(t, m.IsUphill(tile, TrackdirXNE))
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := NewRailMap(16, 16)
	m.SetGeoAnchor(-7.5655, 110.8317, 25.0)
	tile, _ := m.LayTrack(3, 4, TrackBitX|TrackBitUpper)
	m.AddSignal(tile, TrackdirXSW, SignalExit, SignalStateRed)
	m.SetIncline(tile, DiagDirNE)
	m.SetReservation(tile, TrackX, true)
	m.BuildStation(3, "Jebres", 5, 4, DiagDirSW, 2)
	m.BuildDepot(1, 1, DiagDirSE)

	path := filepath.Join(t.TempDir(), "world.bin")
	assert.Nil(t, m.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	assert.Nil(t, err)
	assert.Equal(t, m.Width(), loaded.Width())
	assert.Equal(t, TrackBitX|TrackBitUpper, loaded.TrackBits(tile))
	assert.True(t, loaded.HasSignalOnTrackdir(tile, TrackdirXSW))
	assert.Equal(t, SignalExit, loaded.SignalTypeByTrackdir(tile, TrackdirXSW))
	assert.Equal(t, SignalStateRed, loaded.SignalStateByTrackdir(tile, TrackdirXSW))
	assert.True(t, loaded.IsUphill(tile, TrackdirXNE))
	assert.Equal(t, TrackBitX, loaded.ReservedTrackBits(tile))

	st, err := loaded.StationByName("Jebres")
	assert.Nil(t, err)
	assert.Equal(t, 2, len(st.Tiles))
	assert.Equal(t, 1, len(loaded.Depots()))
}
