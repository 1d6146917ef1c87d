package railmap

// TileIndex flat index into the tile array (y*width + x). InvalidTile marks
// off-map or not-yet-known tiles.
type TileIndex int32

const InvalidTile TileIndex = -1

type TileKind uint8

const (
	TileClear TileKind = iota
	TileRail
	TileDepot
	TileStation
	TileWaypoint
	TileLevelCrossing
	TileTunnelBridge
)

type RailType uint8

const (
	RailTypeNormal RailType = iota
	RailTypeElectric
	RailTypeMonorail
	RailTypeMaglev

	InvalidRailType RailType = 0xFF
)

// RailTypes bitmask of rail types a train is compatible with.
type RailTypes uint8

func (rts RailTypes) Has(rt RailType) bool {
	return rts&(1<<rt) != 0
}

func RailTypeToRailTypes(rt RailType) RailTypes {
	return 1 << rt
}

type SignalType uint8

const (
	SignalBlock SignalType = iota
	SignalEntry
	SignalExit
	SignalCombo
	SignalPBS
	SignalPBSOneway
	SignalNoEntry
)

// IsPBS path-based signal family.
func (s SignalType) IsPBS() bool {
	return s == SignalPBS || s == SignalPBSOneway
}

// IsPreExit the exit/combo family, penalized with the exit variant of the
// first-red and last-red penalties.
func (s SignalType) IsPreExit() bool {
	return s == SignalExit || s == SignalCombo
}

// IsOneway whether a signal of this type, facing against the direction of
// travel with no signal along, forbids entering the track from behind.
// two-way PBS signals may be passed from behind (with a penalty), no-entry
// signals only ever restrict their facing direction.
func (s SignalType) IsOneway() bool {
	return s != SignalPBS && s != SignalNoEntry
}

type SignalState uint8

const (
	SignalStateRed SignalState = iota
	SignalStateGreen
)

// tile storage for one map cell. mutated only through the RailMap builder
// methods, read through the accessor methods.
type tile struct {
	kind       TileKind
	trackBits  TrackBits
	railType   RailType
	reserved   TrackBits
	inclineDir DiagDirection // uphill exit direction, InvalidDiagDir when flat
	stationID  uint16        // station or waypoint id
	depotDir   DiagDirection // open side of a depot
	safeTdirs  TrackdirBits  // safe waiting positions
	speedLimit uint16        // km/h, 0 = unrestricted
	minSpeed   uint16        // km/h, 0 = none

	sigPresent TrackdirBits
	sigGreen   TrackdirBits
	sigType    [16]SignalType

	wormholeExit TileIndex     // other head of a tunnel/bridge
	wormholeDir  DiagDirection // travel direction into the wormhole at this head
	tbSignalled  bool          // simulated signals inside the wormhole
	tbExitOnly   bool          // signalled section may only be left through this head
	tbPBS        bool          // simulated signals behave as path signals
}

func newTile() tile {
	return tile{
		railType:     InvalidRailType,
		inclineDir:   InvalidDiagDir,
		depotDir:     InvalidDiagDir,
		wormholeExit: InvalidTile,
		wormholeDir:  InvalidDiagDir,
	}
}
