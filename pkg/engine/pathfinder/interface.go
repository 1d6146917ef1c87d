package pathfinder

import "github.com/lintang-b-s/railnav/pkg/railmap"

// RailWorld read-only tile/track queries the pathfinder needs. implemented by
// *railmap.RailMap; declared here so tests can substitute small fixtures and
// the dependency direction stays pathfinder -> world.
type RailWorld interface {
	Width() int32
	Height() int32
	TileX(t railmap.TileIndex) int32
	TileY(t railmap.TileIndex) int32
	AdjacentTile(t railmap.TileIndex, d railmap.DiagDirection) railmap.TileIndex

	Kind(t railmap.TileIndex) railmap.TileKind
	IsPlainRailTile(t railmap.TileIndex) bool
	IsRailDepotTile(t railmap.TileIndex) bool
	IsRailStationTile(t railmap.TileIndex) bool
	IsRailWaypointTile(t railmap.TileIndex) bool
	IsLevelCrossingTile(t railmap.TileIndex) bool
	IsTunnelBridgeTile(t railmap.TileIndex) bool

	TrackBits(t railmap.TileIndex) railmap.TrackBits
	RailType(t railmap.TileIndex) railmap.RailType
	DepotDir(t railmap.TileIndex) railmap.DiagDirection
	ReservedTrackBits(t railmap.TileIndex) railmap.TrackBits
	IsUphill(t railmap.TileIndex, td railmap.Trackdir) bool

	HasSignalOnTrackdir(t railmap.TileIndex, td railmap.Trackdir) bool
	SignalStateByTrackdir(t railmap.TileIndex, td railmap.Trackdir) railmap.SignalState
	SignalTypeByTrackdir(t railmap.TileIndex, td railmap.Trackdir) railmap.SignalType

	StationID(t railmap.TileIndex) uint16
	StationByID(id uint16) (*railmap.Station, error)
	WaypointByID(id uint16) (*railmap.Station, error)
	PlatformLength(t railmap.TileIndex, td railmap.Trackdir) int
	PlatformTilesAhead(t railmap.TileIndex, td railmap.Trackdir) int
	IsAnyStationTileReserved(t railmap.TileIndex, td railmap.Trackdir, skipped int) bool

	IsSafeWaitingPosition(t railmap.TileIndex, td railmap.Trackdir) bool
	SpeedLimits(t railmap.TileIndex) (int, int)

	WormholeExit(t railmap.TileIndex) (railmap.TileIndex, railmap.DiagDirection)
	WormholeLength(t railmap.TileIndex) int
	IsTunnelBridgeSignalled(t railmap.TileIndex) bool
	IsTunnelBridgeExitOnly(t railmap.TileIndex) bool
	IsTunnelBridgePBS(t railmap.TileIndex) bool
}
