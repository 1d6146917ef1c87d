package pathfinder

import (
	"testing"

	"github.com/lintang-b-s/railnav/pkg/railmap"
	"github.com/lintang-b-s/railnav/pkg/tracerestrict"
	"github.com/stretchr/testify/assert"
)

// straightX lays a row of X track on y=5 from x=from to x=to.
func straightX(t *testing.T, m *railmap.RailMap, from, to int32) {
	t.Helper()
	for x := from; x <= to; x++ {
		_, err := m.LayTrack(x, 5, railmap.TrackBitX)
		assert.Nil(t, err)
	}
}

func testTrain(dest railmap.TileIndex) *Train {
	return &Train{
		MaxSpeed:  120,
		Length:    3 * tileLengthUnits,
		RailTypes: railmap.RailTypeToRailTypes(railmap.RailTypeNormal),
		DestType:  DestTile,
		DestTile:  dest,
	}
}

func TestStraightLineCost(t *testing.T) {
	m := railmap.NewRailMap(16, 12)
	straightX(t, m, 0, 11)

	train := testTrain(m.TileOf(10, 5))
	s := NewSearch(m, DefaultConfig(), nil, nil)
	res, err := s.FindPath(train, Origin{Tile: m.TileOf(1, 5), Td: railmap.TrackdirXSW})
	assert.Nil(t, err)
	assert.True(t, res.Found)
	// 10 tiles from the origin up to and including the destination, all
	// diagonal pieces, no signals, no curves.
	assert.Equal(t, 10*TileLengthCost, res.Cost)
	assert.Equal(t, 0, res.SignalsPassed)
	assert.Equal(t, 10, len(res.Steps))
	assert.Equal(t, m.TileOf(1, 5), res.Steps[0].Tile)
	assert.Equal(t, m.TileOf(10, 5), res.Steps[len(res.Steps)-1].Tile)
}

func TestCurveCost(t *testing.T) {
	m := railmap.NewRailMap(8, 8)
	cm := NewCostModel(m, DefaultConfig(), testTrain(railmap.InvalidTile), nil, NewSegmentCachePool(), newNodeArena(4))

	// straight continuation
	assert.Equal(t, 0, cm.CurveCost(railmap.TrackdirXSW, railmap.TrackdirXSW))
	// diagonal onto a corner piece turns 45 degrees
	assert.Equal(t, cm.cfg.Curve45Penalty, cm.CurveCost(railmap.TrackdirXSW, railmap.TrackdirUpperW))
	// two corner pieces whose tracks cross make a 90 degree turn
	assert.Equal(t, cm.cfg.Curve90Penalty, cm.CurveCost(railmap.TrackdirUpperW, railmap.TrackdirRightN))
}

func TestCurveCostSymmetry(t *testing.T) {
	m := railmap.NewRailMap(8, 8)
	cm := NewCostModel(m, DefaultConfig(), testTrain(railmap.InvalidTile), nil, NewSegmentCachePool(), newNodeArena(4))

	all := []railmap.Trackdir{
		railmap.TrackdirXNE, railmap.TrackdirYSE, railmap.TrackdirUpperE, railmap.TrackdirLowerE,
		railmap.TrackdirLeftS, railmap.TrackdirRightS, railmap.TrackdirXSW, railmap.TrackdirYNW,
		railmap.TrackdirUpperW, railmap.TrackdirLowerW, railmap.TrackdirLeftN, railmap.TrackdirRightN,
	}
	for _, td1 := range all {
		for _, td2 := range all {
			if !railmap.DiagdirReachesTrackdirs(td1.ExitDir()).Has(td2) {
				continue
			}
			forward := cm.CurveCost(td1, td2)
			backward := cm.CurveCost(td2.Reverse(), td1.Reverse())
			assert.Equal(t, forward, backward, "curve cost asymmetric for %d -> %d", td1, td2)
		}
	}
}

func TestFirstRedTwoWayIsEndOfLine(t *testing.T) {
	m := railmap.NewRailMap(16, 12)
	straightX(t, m, 0, 11)
	sig := m.TileOf(4, 5)
	m.AddSignal(sig, railmap.TrackdirXSW, railmap.SignalBlock, railmap.SignalStateRed)
	m.AddSignal(sig, railmap.TrackdirXNE, railmap.SignalBlock, railmap.SignalStateRed)

	train := testTrain(m.TileOf(10, 5))
	s := NewSearch(m, DefaultConfig(), nil, nil)
	res, err := s.FindPath(train, Origin{Tile: m.TileOf(1, 5), Td: railmap.TrackdirXSW})
	assert.Nil(t, err)
	assert.False(t, res.Found)
	assert.True(t, res.StoppedOnFirstTwoWaySignal)

	// with the setting off the same red signal is just expensive
	cfg := DefaultConfig()
	cfg.FirstTwoWayRedAsEOL = false
	s = NewSearch(m, cfg, nil, nil)
	res, err = s.FindPath(train, Origin{Tile: m.TileOf(1, 5), Td: railmap.TrackdirXSW})
	assert.Nil(t, err)
	assert.True(t, res.Found)
	// base cost plus look-ahead entry 0, the first-red penalty, and the
	// last-red penalty at the destination.
	want := 10*TileLengthCost + cfg.LookAheadP0 + cfg.FirstRedPenalty + cfg.LastRedPenalty
	assert.Equal(t, want, res.Cost)
	assert.Equal(t, 1, res.SignalsPassed)
}

func TestOneWaySignalBlocksBack(t *testing.T) {
	m := railmap.NewRailMap(16, 12)
	straightX(t, m, 0, 11)
	sig := m.TileOf(5, 5)
	train := testTrain(m.TileOf(10, 5))

	// block signal facing against the travel direction: one way track.
	m.AddSignal(sig, railmap.TrackdirXNE, railmap.SignalBlock, railmap.SignalStateGreen)
	s := NewSearch(m, DefaultConfig(), nil, nil)
	res, err := s.FindPath(train, Origin{Tile: m.TileOf(1, 5), Td: railmap.TrackdirXSW})
	assert.Nil(t, err)
	assert.False(t, res.Found)
	assert.False(t, res.StoppedOnFirstTwoWaySignal)

	// a path signal from behind may be passed, at a price.
	m2 := railmap.NewRailMap(16, 12)
	straightX(t, m2, 0, 11)
	m2.AddSignal(m2.TileOf(5, 5), railmap.TrackdirXNE, railmap.SignalPBS, railmap.SignalStateGreen)
	cfg := DefaultConfig()
	s = NewSearch(m2, cfg, nil, nil)
	res, err = s.FindPath(train, Origin{Tile: m2.TileOf(1, 5), Td: railmap.TrackdirXSW})
	assert.Nil(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 10*TileLengthCost+cfg.PBSBackPenalty, res.Cost)
}

func TestReservationPenalty(t *testing.T) {
	build := func(reserved bool) *railmap.RailMap {
		m := railmap.NewRailMap(16, 12)
		straightX(t, m, 0, 11)
		m.AddSignal(m.TileOf(3, 5), railmap.TrackdirXSW, railmap.SignalPBS, railmap.SignalStateGreen)
		if reserved {
			m.SetReservation(m.TileOf(6, 5), railmap.TrackX, true)
		}
		return m
	}
	cfg := DefaultConfig()
	run := func(m *railmap.RailMap) int {
		train := testTrain(m.TileOf(10, 5))
		res, err := NewSearch(m, cfg, nil, nil).FindPath(train, Origin{Tile: m.TileOf(1, 5), Td: railmap.TrackdirXSW})
		assert.Nil(t, err)
		assert.True(t, res.Found)
		return res.Cost
	}
	free := run(build(false))
	blocked := run(build(true))
	// riding along a reserved track shortly behind a path signal
	assert.Equal(t, cfg.PBSCrossPenalty, blocked-free)
}

func TestTraceRestrictProgram(t *testing.T) {
	cfg := DefaultConfig()
	build := func(items ...tracerestrict.Item) (*railmap.RailMap, *tracerestrict.Registry) {
		m := railmap.NewRailMap(16, 12)
		straightX(t, m, 0, 11)
		sig := m.TileOf(5, 5)
		m.AddSignal(sig, railmap.TrackdirXSW, railmap.SignalPBS, railmap.SignalStateGreen)
		reg := tracerestrict.NewRegistry()
		if len(items) > 0 {
			reg.Attach(sig, railmap.TrackX, &tracerestrict.Program{Items: items})
		}
		return m, reg
	}
	run := func(m *railmap.RailMap, reg *tracerestrict.Registry, maxSpeed int) *Result {
		train := testTrain(m.TileOf(10, 5))
		train.MaxSpeed = maxSpeed
		res, err := NewSearch(m, cfg, reg, nil).FindPath(train, Origin{Tile: m.TileOf(1, 5), Td: railmap.TrackdirXSW})
		assert.Nil(t, err)
		return res
	}

	penalize := tracerestrict.Item{
		Cond: tracerestrict.CondTrainMaxSpeed, Cmp: tracerestrict.CmpLt, Value: 100,
		Action: tracerestrict.ActPenalty, ActionValue: 777,
	}
	m, reg := build(penalize)
	slow := run(m, reg, 80)
	fast := run(m, reg, 120)
	assert.True(t, slow.Found)
	assert.True(t, fast.Found)
	assert.Equal(t, 777, slow.Cost-fast.Cost)

	deny := tracerestrict.Item{Cond: tracerestrict.CondAlways, Action: tracerestrict.ActDeny}
	m, reg = build(deny)
	res := run(m, reg, 120)
	assert.False(t, res.Found)
}

func TestDepotEndsSegment(t *testing.T) {
	m := railmap.NewRailMap(16, 12)
	straightX(t, m, 1, 5)
	depot, err := m.BuildDepot(6, 5, railmap.DiagDirNE)
	assert.Nil(t, err)

	train := testTrain(railmap.InvalidTile)
	train.DestType = DestDepot
	train.DestTile = depot
	s := NewSearch(m, DefaultConfig(), nil, nil)
	res, err := s.FindPath(train, Origin{Tile: m.TileOf(2, 5), Td: railmap.TrackdirXSW})
	assert.Nil(t, err)
	assert.True(t, res.Found)
	// four plain tiles plus the depot tile itself
	assert.Equal(t, 5*TileLengthCost, res.Cost)
}

func TestDepotReversal(t *testing.T) {
	m := railmap.NewRailMap(16, 12)
	straightX(t, m, 1, 5)
	_, err := m.BuildDepot(6, 5, railmap.DiagDirNE)
	assert.Nil(t, err)

	// destination lies behind the train, the only way is through the depot
	// and back out.
	cfg := DefaultConfig()
	train := testTrain(m.TileOf(1, 5))
	s := NewSearch(m, cfg, nil, nil)
	res, err := s.FindPath(train, Origin{Tile: m.TileOf(2, 5), Td: railmap.TrackdirXSW})
	assert.Nil(t, err)
	assert.True(t, res.Found)
	// in: tiles 2..5 and the depot. out: the depot again plus tiles 5..1,
	// with the reversal penalty and a 45 degree charge on the turn-around.
	want := 5*TileLengthCost + cfg.Curve45Penalty + cfg.DepotReversePenalty + 6*TileLengthCost
	assert.Equal(t, want, res.Cost)
	assert.Equal(t, m.TileOf(1, 5), res.Steps[len(res.Steps)-1].Tile)
}

func TestSlopeAndCrossingPenalty(t *testing.T) {
	cfg := DefaultConfig()
	m := railmap.NewRailMap(16, 12)
	straightX(t, m, 0, 11)
	m.SetIncline(m.TileOf(4, 5), railmap.DiagDirSW) // uphill in travel direction

	train := testTrain(m.TileOf(10, 5))
	res, err := NewSearch(m, cfg, nil, nil).FindPath(train, Origin{Tile: m.TileOf(1, 5), Td: railmap.TrackdirXSW})
	assert.Nil(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 10*TileLengthCost+cfg.SlopePenalty, res.Cost)

	m2 := railmap.NewRailMap(16, 12)
	straightX(t, m2, 0, 11)
	_, err = m2.BuildLevelCrossing(7, 5, railmap.TrackX)
	assert.Nil(t, err)
	res, err = NewSearch(m2, cfg, nil, nil).FindPath(testTrain(m2.TileOf(10, 5)), Origin{Tile: m2.TileOf(1, 5), Td: railmap.TrackdirXSW})
	assert.Nil(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 10*TileLengthCost+cfg.CrossingPenalty, res.Cost)
}

func TestSpeedLimitPenalty(t *testing.T) {
	cfg := DefaultConfig()
	run := func(setup func(m *railmap.RailMap)) int {
		m := railmap.NewRailMap(16, 12)
		straightX(t, m, 0, 11)
		setup(m)
		res, err := NewSearch(m, cfg, nil, nil).FindPath(testTrain(m.TileOf(10, 5)), Origin{Tile: m.TileOf(1, 5), Td: railmap.TrackdirXSW})
		assert.Nil(t, err)
		assert.True(t, res.Found)
		return res.Cost
	}

	free := run(func(m *railmap.RailMap) {})

	// a 20 km/h line must be strictly worse for a 120 km/h train.
	limited := run(func(m *railmap.RailMap) {
		for x := int32(0); x <= 11; x++ {
			m.SetSpeedLimits(m.TileOf(x, 5), 20, 0)
		}
	})
	assert.Greater(t, limited, free)
	assert.Equal(t, TileLengthCost*(120-20)*4/120, limited-free)

	// a minimum speed above the train's top speed at the segment end.
	minSpeed := run(func(m *railmap.RailMap) {
		m.SetSpeedLimits(m.TileOf(10, 5), 0, 200)
	})
	assert.Equal(t, TileLengthCost*(200-120), minSpeed-free)
}

func TestTunnelSimulatedSignal(t *testing.T) {
	cfg := DefaultConfig()
	build := func(signalled bool) *railmap.RailMap {
		m := railmap.NewRailMap(20, 12)
		straightX(t, m, 0, 3)
		straightX(t, m, 9, 11)
		_, _, err := m.BuildTunnel(4, 5, 8, 5, railmap.DiagDirSW, signalled, false, true)
		assert.Nil(t, err)
		m.AddSignal(m.TileOf(2, 5), railmap.TrackdirXSW, railmap.SignalBlock, railmap.SignalStateRed)
		return m
	}
	run := func(m *railmap.RailMap) *Result {
		res, err := NewSearch(m, cfg, nil, nil).FindPath(testTrain(m.TileOf(10, 5)), Origin{Tile: m.TileOf(1, 5), Td: railmap.TrackdirXSW})
		assert.Nil(t, err)
		assert.True(t, res.Found)
		return res
	}

	// the signalled near head counts as a passed signal and releases the red
	// carried from tile (2, 5): no last-red penalty at the destination.
	res := run(build(true))
	assert.Equal(t, 2, res.SignalsPassed)
	assert.Equal(t, 10*TileLengthCost+cfg.LookAheadP0+cfg.FirstRedPenalty, res.Cost)

	// without simulated signals the red block signal is still the last signal
	// seen when the train reaches the destination.
	res = run(build(false))
	assert.Equal(t, 1, res.SignalsPassed)
	assert.Equal(t, 10*TileLengthCost+cfg.LookAheadP0+cfg.FirstRedPenalty+cfg.LastRedPenalty, res.Cost)
}

func TestExitSignalPenalties(t *testing.T) {
	cfg := DefaultConfig()
	run := func(typ railmap.SignalType) int {
		m := railmap.NewRailMap(16, 12)
		straightX(t, m, 0, 11)
		m.AddSignal(m.TileOf(4, 5), railmap.TrackdirXSW, typ, railmap.SignalStateRed)
		res, err := NewSearch(m, cfg, nil, nil).FindPath(testTrain(m.TileOf(10, 5)), Origin{Tile: m.TileOf(1, 5), Td: railmap.TrackdirXSW})
		assert.Nil(t, err)
		assert.True(t, res.Found)
		return res.Cost
	}

	// exit and combo signals take the exit variant of both red penalties.
	exitWant := 10*TileLengthCost + cfg.LookAheadP0 + cfg.FirstRedExitPenalty + cfg.LastRedExitPenalty
	assert.Equal(t, exitWant, run(railmap.SignalExit))
	assert.Equal(t, exitWant, run(railmap.SignalCombo))

	blockWant := 10*TileLengthCost + cfg.LookAheadP0 + cfg.FirstRedPenalty + cfg.LastRedPenalty
	assert.Equal(t, blockWant, run(railmap.SignalBlock))
}

func TestLookAheadTableShape(t *testing.T) {
	cfg := DefaultConfig()
	table := cfg.lookAheadTable()
	assert.Equal(t, cfg.LookAheadMaxSignals, len(table))
	assert.Equal(t, cfg.LookAheadP0, table[0])
	// with the default coefficients a red signal costs strictly less the
	// farther ahead of the train it is.
	for i := 1; i < len(table); i++ {
		assert.Less(t, table[i], table[i-1])
	}
}
