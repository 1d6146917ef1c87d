package pathfinder

const (
	// cost of travelling one tile along a diagonal track piece, and along a
	// corner piece (100/sqrt(2), rounded).
	TileLengthCost        = 100
	TileCornerCost        = 71
	maxSegmentCost        = 10000
	tileLengthUnits       = 16 // train length granularity, 1/16 of a tile
	defaultMaxNodes       = 10000
	defaultReversePenalty = TileLengthCost * 2
)

// Config holds all pathfinder penalties. every value is expressed in the same
// unit as TileLengthCost so that, for example, a penalty of 200 means "worth a
// two tile detour".
type Config struct {
	MaxSegmentCost int

	SlopePenalty      int
	Curve45Penalty    int
	Curve90Penalty    int
	DoubleSlipPenalty int
	CrossingPenalty   int

	DepotReversePenalty   int
	StationPerTilePenalty int

	PBSCrossPenalty   int
	PBSStationPenalty int
	PBSBackPenalty    int

	PlatformLongerPenalty  int
	PlatformLongerPerTile  int
	PlatformShorterPenalty int
	PlatformShorterPerTile int

	FirstRedPenalty     int
	FirstRedExitPenalty int
	LastRedPenalty      int
	LastRedExitPenalty  int

	// polynomial penalty for red signals seen while looking ahead:
	// the i-th signal ahead of the train costs P0 + i*(P1 + i*P2).
	LookAheadMaxSignals int
	LookAheadP0         int
	LookAheadP1         int
	LookAheadP2         int

	ReversePenalty int

	Allow90DegTurns     bool
	FirstTwoWayRedAsEOL bool
	PBSBackSafeWaiting  bool

	MaxNodes int
}

func DefaultConfig() Config {
	return Config{
		MaxSegmentCost: maxSegmentCost,

		SlopePenalty:      2 * TileLengthCost,
		Curve45Penalty:    1 * TileLengthCost,
		Curve90Penalty:    6 * TileLengthCost,
		DoubleSlipPenalty: 1 * TileLengthCost,
		CrossingPenalty:   3 * TileLengthCost,

		DepotReversePenalty:   50 * TileLengthCost,
		StationPerTilePenalty: 10 * TileLengthCost,

		PBSCrossPenalty:   3 * TileLengthCost,
		PBSStationPenalty: 8 * TileLengthCost,
		PBSBackPenalty:    15 * TileLengthCost,

		PlatformLongerPenalty:  8 * TileLengthCost,
		PlatformLongerPerTile:  0,
		PlatformShorterPenalty: 40 * TileLengthCost,
		PlatformShorterPerTile: 0,

		FirstRedPenalty:     10 * TileLengthCost,
		FirstRedExitPenalty: 100 * TileLengthCost,
		LastRedPenalty:      10 * TileLengthCost,
		LastRedExitPenalty:  100 * TileLengthCost,

		LookAheadMaxSignals: 10,
		LookAheadP0:         500,
		LookAheadP1:         -100,
		LookAheadP2:         5,

		ReversePenalty: defaultReversePenalty,

		Allow90DegTurns:     true,
		FirstTwoWayRedAsEOL: true,
		PBSBackSafeWaiting:  false,

		MaxNodes: defaultMaxNodes,
	}
}

// lookAheadTable precomputes the red signal look-ahead polynomial. entries can
// go negative with the default coefficients, which is intentional: a red
// signal far ahead is cheaper than stopping the search, and a green signal
// converts the remaining negative entries back into cost.
func (c Config) lookAheadTable() []int {
	table := make([]int, c.LookAheadMaxSignals)
	for i := range table {
		table[i] = c.LookAheadP0 + i*(c.LookAheadP1+i*c.LookAheadP2)
	}
	return table
}
