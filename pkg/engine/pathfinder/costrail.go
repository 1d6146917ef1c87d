package pathfinder

import (
	"github.com/lintang-b-s/railnav/pkg/railmap"
	"github.com/lintang-b-s/railnav/pkg/tracerestrict"
	"github.com/lintang-b-s/railnav/pkg/util"
)

// CostModel accumulates the cost of one search node. a node covers a whole
// track segment (everything between two decision points), so one ComputeCost
// call walks tile by tile from the node's entry until the segment ends, then
// adds the volatile parts (signal states, reservations) on top.
//
// segment costs are cached per (tile, trackdir) entry, but only once the path
// has passed more signals than the look-ahead window covers. inside the
// window signal state still changes the cost, outside it only the physical
// layout matters and the cached value is stable.
type CostModel struct {
	w        RailWorld
	cfg      Config
	train    *Train
	restrict *tracerestrict.Registry
	cache    *SegmentCachePool
	nodes    *nodeArena

	lookAhead    []int
	maxCost      int
	disableCache bool

	stoppedOnFirstTwoWay bool
}

func NewCostModel(w RailWorld, cfg Config, train *Train, restrict *tracerestrict.Registry,
	cache *SegmentCachePool, nodes *nodeArena) *CostModel {
	return &CostModel{
		w:         w,
		cfg:       cfg,
		train:     train,
		restrict:  restrict,
		cache:     cache,
		nodes:     nodes,
		lookAhead: cfg.lookAheadTable(),
	}
}

// SetMaxCost caps the total path cost. nodes exceeding the cap are pruned
// mid-walk without writing the segment cache, so an aborted walk can never
// poison a later unrestricted search.
func (c *CostModel) SetMaxCost(v int) {
	c.maxCost = v
}

func (c *CostModel) SetDisableCache(v bool) {
	c.disableCache = v
}

// StoppedOnFirstTwoWaySignal whether the last pruned branch ended on a red
// two-way signal right after the origin. callers use this to tell "no path
// exists" apart from "the path is merely blocked right now".
func (c *CostModel) StoppedOnFirstTwoWaySignal() bool {
	return c.stoppedOnFirstTwoWay
}

// OneTileCost base cost of crossing one tile: full length along a diagonal
// track piece, shorter along a corner piece. level crossings get a surcharge
// so trains prefer routes that do not block road traffic.
func (c *CostModel) OneTileCost(tile railmap.TileIndex, td railmap.Trackdir) int {
	if td.IsDiagonal() {
		cost := TileLengthCost
		if c.w.IsLevelCrossingTile(tile) {
			cost += c.cfg.CrossingPenalty
		}
		return cost
	}
	return TileCornerCost
}

// CurveCost penalty for the direction change between two consecutive
// trackdirs: nothing when continuing straight, one constant for a 45 degree
// turn and a steeper one for a 90 degree turn.
func (c *CostModel) CurveCost(td1, td2 railmap.Trackdir) int {
	if railmap.TrackdirCrossesTrackdirs(td1).Has(td2) {
		return c.cfg.Curve90Penalty
	}
	if td2 != railmap.NextTrackdir(td1) {
		return c.cfg.Curve45Penalty
	}
	return 0
}

// SwitchCost penalty for moving over a double slip: both sides of the tile
// boundary offer more than one track reachable through the crossed edge.
func (c *CostModel) SwitchCost(tile1, tile2 railmap.TileIndex, exitdir railmap.DiagDirection) int {
	if !c.w.IsPlainRailTile(tile1) || !c.w.IsPlainRailTile(tile2) {
		return 0
	}
	b1 := c.w.TrackBits(tile1) & railmap.DiagdirReachesTracks(exitdir.Reverse())
	b2 := c.w.TrackBits(tile2) & railmap.DiagdirReachesTracks(exitdir)
	if util.KillFirstBit(uint64(b1)) != 0 && util.KillFirstBit(uint64(b2)) != 0 {
		return c.cfg.DoubleSlipPenalty
	}
	return 0
}

func (c *CostModel) SlopeCost(tile railmap.TileIndex, td railmap.Trackdir) int {
	if c.w.IsUphill(tile, td) {
		return c.cfg.SlopePenalty
	}
	return 0
}

// SpeedPenalty charged once where the segment ends, while the path is still
// inside the signal look-ahead window: a track speed limit below the train's
// own top speed slows the whole approach, and a minimum speed the train cannot
// reach keeps it out entirely in practice.
func (c *CostModel) SpeedPenalty(tile railmap.TileIndex, skipped int) int {
	maxSpd, minSpd := c.w.SpeedLimits(tile)
	cost := 0
	if c.train.MaxSpeed > 0 && maxSpd > 0 && maxSpd < c.train.MaxSpeed {
		cost += TileLengthCost * (c.train.MaxSpeed - maxSpd) * (4 + skipped) / c.train.MaxSpeed
	}
	if minSpd > c.train.MaxSpeed {
		cost += TileLengthCost * (minSpd - c.train.MaxSpeed)
	}
	return cost
}

// ReservationCost penalty for riding along or across tracks already reserved
// by another train. only charged close behind the origin (half the signal
// look-ahead window) and only under path signals, where the reservation is
// what the train would actually collide with.
func (c *CostModel) ReservationCost(n *Node, tile railmap.TileIndex, td railmap.Trackdir, skipped int) int {
	if n.NumSignalsPassed >= len(c.lookAhead)/2 {
		return 0
	}
	if !n.LastSignalType.IsPBS() {
		return 0
	}
	if c.w.IsRailStationTile(tile) {
		if c.w.IsAnyStationTileReserved(tile, td, skipped) {
			return c.cfg.PBSStationPenalty * (skipped + 1)
		}
		return 0
	}
	if railmap.TrackOverlapsTracks(c.w.ReservedTrackBits(tile), td.Track()) {
		cost := c.cfg.PBSCrossPenalty
		if !td.IsDiagonal() {
			cost = cost * TileCornerCost / TileLengthCost
		}
		return cost
	}
	return 0
}

func (c *CostModel) trainProperties() tracerestrict.TrainProperties {
	return tracerestrict.TrainProperties{
		MaxSpeed:   c.train.MaxSpeed,
		Length:     c.train.Length,
		CargoClass: c.train.CargoClass,
	}
}

// previousSignalLookup resolves the signal passed before the one currently
// being evaluated, for restriction programs that condition on it. signals
// passed earlier in the current walk win, then the ancestor segments are
// searched youngest first.
func (c *CostModel) previousSignalLookup(n *Node, walkPrev railmap.TileIndex) func() (railmap.TileIndex, bool) {
	return func() (railmap.TileIndex, bool) {
		if walkPrev != railmap.InvalidTile {
			return walkPrev, true
		}
		for h := n.Parent; h >= 0; {
			p := c.nodes.get(h)
			if p.Segment != nil && p.Segment.LastSignalTile != railmap.InvalidTile {
				return p.Segment.LastSignalTile, true
			}
			h = p.Parent
		}
		return railmap.InvalidTile, false
	}
}

// SignalCost evaluates the signals on one tile: the penalty, the updates to
// the node's per-path signal state, and any attached restriction program.
// the bool result is true only for the hard prune on a red two-way signal
// right after the origin, which must not be cached (it depends on the
// signal's current state, not the layout).
func (c *CostModel) SignalCost(n *Node, tile railmap.TileIndex, td railmap.Trackdir,
	reasons *EndSegmentReason, prevSignal *railmap.TileIndex) (int, bool) {
	cost := 0

	// signalled tunnel/bridge heads act as simulated signals when the train
	// enters the wormhole through them.
	if c.w.IsTunnelBridgeTile(tile) && c.w.IsTunnelBridgeSignalled(tile) {
		if _, dir := c.w.WormholeExit(tile); dir == td.ExitDir() {
			typ := railmap.SignalBlock
			if c.w.IsTunnelBridgePBS(tile) {
				typ = railmap.SignalPBS
			}
			n.Flags &^= FlagLastSignalWasRed
			n.LastSignalType = typ
			n.NumSignalsPassed++
			*prevSignal = tile
			n.Segment.LastSignalTile, n.Segment.LastSignalTd = tile, td
		}
		return 0, false
	}

	hasAlong := c.w.HasSignalOnTrackdir(tile, td)
	hasAgainst := c.w.HasSignalOnTrackdir(tile, td.Reverse())

	if !hasAlong {
		if hasAgainst {
			typ := c.w.SignalTypeByTrackdir(tile, td.Reverse())
			if typ.IsOneway() {
				*reasons |= EndReasonDeadEnd
				return cost, false
			}
			// passing a path signal from behind is allowed but discouraged
			// near the origin, it would make the train wrong-way on a
			// signalled track.
			if typ.IsPBS() && !n.Flags.Has(FlagNoPBSBackPenalty) &&
				n.NumSignalsPassed < len(c.lookAhead) {
				if !c.cfg.PBSBackSafeWaiting || !c.w.IsSafeWaitingPosition(tile, td) {
					cost += c.cfg.PBSBackPenalty
				}
			}
		}
		return cost, false
	}

	typ := c.w.SignalTypeByTrackdir(tile, td)
	if typ == railmap.SignalNoEntry {
		*reasons |= EndReasonDeadEnd
		return cost, false
	}

	if c.restrict != nil {
		if prog := c.restrict.ProgramFor(tile, td.Track()); prog != nil && prog.IsRelevantToPathfinding() {
			out := prog.Execute(c.trainProperties(), tracerestrict.ProgramInput{
				Tile:           tile,
				Trackdir:       td,
				PreviousSignal: c.previousSignalLookup(n, *prevSignal),
			})
			cost += out.Penalty
			if out.Deny {
				*reasons |= EndReasonDeadEnd
				return cost, false
			}
			if out.ReverseAtSignal {
				n.Flags |= FlagReversePending
			}
			if out.NoPBSBackPenalty {
				n.Flags |= FlagNoPBSBackPenalty
			}
			if out.ReserveThrough {
				// reserve-through signals are passed without the train ever
				// waiting at them, skip the regular signal accounting.
				n.NumResThroughPassed++
				*prevSignal = tile
				n.Segment.LastSignalTile, n.Segment.LastSignalTd = tile, td
				return cost, false
			}
		}
	}

	if c.w.SignalStateByTrackdir(tile, td) == railmap.SignalStateGreen {
		n.Flags &^= FlagLastSignalWasRed
		if n.NumSignalsPassed < len(c.lookAhead) {
			// a green signal takes back the discount a negative look-ahead
			// entry would have granted a red one.
			if la := c.lookAhead[n.NumSignalsPassed]; la < 0 {
				cost += -la
			}
		}
	} else {
		if n.NumSignalsPassed == 0 && c.cfg.FirstTwoWayRedAsEOL &&
			typ == railmap.SignalBlock && hasAgainst {
			// a red two-way block signal right ahead of the train: give up
			// on this branch so the driver picks another platform/line.
			*reasons |= EndReasonDeadEnd | EndReasonFirstTwoWayRed
			c.stoppedOnFirstTwoWay = true
			return -1, true
		}
		if n.NumSignalsPassed < len(c.lookAhead) {
			cost += c.lookAhead[n.NumSignalsPassed]
		}
		if n.NumSignalsPassed == 0 {
			if typ.IsPreExit() {
				cost += c.cfg.FirstRedExitPenalty
			} else {
				cost += c.cfg.FirstRedPenalty
			}
		}
		n.Flags |= FlagLastSignalWasRed
		n.LastRedSignalType = typ
	}

	n.LastSignalType = typ
	n.NumSignalsPassed++
	*prevSignal = tile
	n.Segment.LastSignalTile, n.Segment.LastSignalTd = tile, td
	return cost, false
}

func (c *CostModel) isDestination(t railmap.TileIndex) bool {
	switch c.train.DestType {
	case DestStation:
		return c.w.IsRailStationTile(t) && c.w.StationID(t) == c.train.DestID
	case DestWaypoint:
		return c.w.IsRailWaypointTile(t) && c.w.StationID(t) == c.train.DestID
	case DestDepot:
		return c.w.IsRailDepotTile(t) && t == c.train.DestTile
	default:
		return t == c.train.DestTile
	}
}

// platformLengthPenalty cost of stopping a train at a platform that does not
// match its length. too short is far worse than too long: the train would
// block the tracks behind the platform.
func (c *CostModel) platformLengthPenalty(platLen int) int {
	missing := c.train.LengthTiles() - platLen
	if missing > 0 {
		return c.cfg.PlatformShorterPenalty + c.cfg.PlatformShorterPerTile*missing
	}
	if missing < 0 {
		return c.cfg.PlatformLongerPenalty + c.cfg.PlatformLongerPerTile*(-missing)
	}
	return 0
}

// targetAdjustment marks the node as a target when its segment ends on the
// destination and settles the penalties that only apply there: waiting
// behind a red signal into the destination, and the platform length match.
// the per-tile station penalty charged during the walk is taken back first,
// the destination platform should not be punished for being long.
func (c *CostModel) targetAdjustment(n *Node) int {
	if !n.EndReason.PossibleTarget() || !c.isDestination(n.LastTile) {
		return 0
	}
	n.Flags |= FlagTargetSeen
	extra := 0
	if n.Flags.Has(FlagLastSignalWasRed) {
		if n.LastRedSignalType.IsPreExit() {
			extra += c.cfg.LastRedExitPenalty
		} else if !n.LastRedSignalType.IsPBS() {
			extra += c.cfg.LastRedPenalty
		}
	}
	if n.EndReason.Has(EndReasonStation) && c.train.DestType == DestStation {
		extra -= c.cfg.StationPerTilePenalty * n.PlatformLength
		extra += c.platformLengthPenalty(n.PlatformLength)
	}
	return extra
}

func (c *CostModel) restoreSignalState(n *Node, seg *CachedSegment) {
	if seg.LastSignalTile == railmap.InvalidTile {
		return
	}
	if !c.w.HasSignalOnTrackdir(seg.LastSignalTile, seg.LastSignalTd) {
		return
	}
	typ := c.w.SignalTypeByTrackdir(seg.LastSignalTile, seg.LastSignalTd)
	n.LastSignalType = typ
	if c.w.SignalStateByTrackdir(seg.LastSignalTile, seg.LastSignalTd) == railmap.SignalStateRed {
		n.Flags |= FlagLastSignalWasRed
		n.LastRedSignalType = typ
	} else {
		n.Flags &^= FlagLastSignalWasRed
	}
}

// canUseCache whether the cached segment cost is valid for this node. inside
// the signal look-ahead window the cost still depends on signal states, with
// a cost cap the walk may abort halfway, and a plain tile destination can cut
// segments short at an arbitrary tile.
func (c *CostModel) canUseCache(n *Node, parent *Node) bool {
	return !c.disableCache &&
		c.maxCost == 0 &&
		c.train.DestType != DestTile &&
		parent != nil &&
		parent.NumSignalsPassed >= len(c.lookAhead) &&
		!n.Flags.Has(FlagReversePending)
}

// ComputeCost fills in n.Cost, n.LastTile/LastTd and n.EndReason. returns
// false when the node must be pruned: a dead end, a pruned first red two-way
// signal, or the cost cap exceeded.
func (c *CostModel) ComputeCost(n *Node) bool {
	var parent *Node
	parentCost, entryCost := 0, 0
	if n.Parent >= 0 {
		parent = c.nodes.get(n.Parent)
		parentCost = parent.Cost
		entryCost = c.CurveCost(parent.LastTd, n.Key.Td) +
			c.SwitchCost(parent.LastTile, n.Key.Tile, parent.LastTd.ExitDir())
	}
	if n.Segment == nil {
		n.Segment = c.cache.Get(n.Key)
	}
	seg := n.Segment

	if c.canUseCache(n, parent) && seg.Cost >= 0 {
		n.LastTile, n.LastTd = seg.LastTile, seg.LastTd
		n.EndReason = seg.EndReason
		c.restoreSignalState(n, seg)
		if n.EndReason.Has(EndReasonStation) {
			n.PlatformLength = c.w.PlatformLength(n.LastTile, n.LastTd)
		}
		n.Cost = parentCost + entryCost + seg.Cost + c.targetAdjustment(n)
		return !n.EndReason.Aborts()
	}

	segmentCost, reasons, ok := c.walkSegment(n, parentCost+entryCost)
	n.EndReason = reasons
	if !ok {
		// budget abort or first two-way prune: nothing is cached, the
		// outcome depends on volatile state.
		n.Cost = -1
		return false
	}
	if c.canUseCache(n, parent) && !n.Flags.Has(FlagReversePending) {
		seg.Cost = segmentCost
		seg.EndReason = reasons
		seg.LastTile, seg.LastTd = n.LastTile, n.LastTd
	}
	n.Cost = parentCost + entryCost + segmentCost + c.targetAdjustment(n)
	return !reasons.Aborts()
}

// walkSegment accumulates cost tile by tile from the node's entry until the
// segment ends. the last result is false when the walk aborted early and the
// partial cost must not be cached.
func (c *CostModel) walkSegment(n *Node, baseline int) (int, EndSegmentReason, bool) {
	var reasons EndSegmentReason
	cost := 0
	curTile, curTd := n.Key.Tile, n.Key.Td
	segRailType := c.w.RailType(curTile)
	stepSkipped := n.EntrySkipped
	stepIsStation := n.EntryIsStation
	lastSignal := railmap.InvalidTile
	first := true
	tf := NewTrackFollower(c.w, c.train.RailTypes, c.cfg.Allow90DegTurns)

	var parent *Node
	if n.Parent >= 0 {
		parent = c.nodes.get(n.Parent)
	}

	for {
		cost += c.OneTileCost(curTile, curTd)
		cost += TileLengthCost * stepSkipped
		cost += c.ReservationCost(n, curTile, curTd, stepSkipped)

		sigCost, prune := c.SignalCost(n, curTile, curTd, &reasons, &lastSignal)
		cost += sigCost
		if prune {
			n.LastTile, n.LastTd = curTile, curTd
			return cost, reasons, false
		}
		if reasons.Has(EndReasonDeadEnd) {
			break
		}

		cost += c.SlopeCost(curTile, curTd)

		if c.maxCost > 0 && baseline+cost > c.maxCost {
			reasons |= EndReasonPathTooLong
			n.LastTile, n.LastTd = curTile, curTd
			return cost, reasons, false
		}

		if c.w.IsRailDepotTile(curTile) {
			leaving := curTd.ExitDir() == c.w.DepotDir(curTile)
			if first && leaving {
				// reversing inside the depot we just drove into.
				if parent != nil && parent.LastTile == curTile {
					cost += c.cfg.DepotReversePenalty
				}
			} else {
				reasons |= EndReasonDepot
				break
			}
		} else if c.w.IsRailWaypointTile(curTile) {
			if c.train.DestType == DestWaypoint && c.w.StationID(curTile) == c.train.DestID &&
				c.w.IsAnyStationTileReserved(curTile, curTd, 0) {
				// our destination waypoint is held by another train, act as
				// if a red signal guarded it.
				n.Flags |= FlagLastSignalWasRed
				n.LastRedSignalType = railmap.SignalBlock
			}
			reasons |= EndReasonWaypoint
			break
		} else if stepIsStation {
			platLen := stepSkipped + 1
			cost += c.cfg.StationPerTilePenalty * platLen
			n.PlatformLength = platLen
			reasons |= EndReasonStation | EndReasonSafeTile
			break
		} else if c.train.DestType == DestTile && curTile == c.train.DestTile {
			reasons |= EndReasonSafeTile
			break
		} else if c.w.IsSafeWaitingPosition(curTile, curTd) {
			reasons |= EndReasonSafeTile
			break
		}

		if !tf.Follow(curTile, curTd) {
			reasons |= EndReasonDeadEnd
			break
		}
		if !tf.TdBits.HasAtMostOne() {
			reasons |= EndReasonChoice
			break
		}
		if c.w.RailType(tf.Tile) != segRailType {
			reasons |= EndReasonRailType
			break
		}
		if tf.Tile == n.Key.Tile && tf.Td == n.Key.Td {
			reasons |= EndReasonInfiniteLoop
			break
		}
		if cost > c.cfg.MaxSegmentCost {
			reasons |= EndReasonSegmentTooLong
			break
		}
		if tf.Teleported {
			n.Flags |= FlagTeleport
		}

		curTile, curTd = tf.Tile, tf.Td
		stepSkipped, stepIsStation = tf.TilesSkipped, tf.IsStation
		first = false
	}

	// speed limits only matter while signal state still shapes the cost, so
	// this never lands in the segment cache.
	if n.NumSignalsPassed < len(c.lookAhead) {
		cost += c.SpeedPenalty(curTile, stepSkipped)
	}

	n.LastTile, n.LastTd = curTile, curTd
	return cost, reasons, true
}
