package pathfinder

import (
	"errors"
	"fmt"

	"github.com/lintang-b-s/railnav/pkg/datastructure"
	"github.com/lintang-b-s/railnav/pkg/railmap"
	"github.com/lintang-b-s/railnav/pkg/tracerestrict"
	"github.com/lintang-b-s/railnav/pkg/util"
)

var (
	ErrInvalidOrigin = errors.New("origin tile has no matching track")
	ErrNoDestination = errors.New("train has no resolvable destination")
)

// Origin where the search starts. a train standing on a junction tile can
// often also depart in the opposite direction, the optional reverse position
// competes with the forward one at a configurable penalty.
type Origin struct {
	Tile railmap.TileIndex
	Td   railmap.Trackdir

	HasReverse  bool
	ReverseTile railmap.TileIndex
	ReverseTd   railmap.Trackdir
}

type PathStep struct {
	Tile railmap.TileIndex
	Td   railmap.Trackdir
}

type Result struct {
	Found bool
	Cost  int
	Steps []PathStep

	SignalsPassed int

	// Partial is set when the node budget ran out before the destination was
	// seen. Steps then hold the path to the most promising node reached, so
	// the train can at least start moving toward the destination.
	Partial bool

	// the branch closest to the train was cut on a red two-way signal. the
	// caller should keep the train waiting instead of reporting it lost.
	StoppedOnFirstTwoWaySignal bool
}

// Search best-first path search over track segments. nodes are expanded from
// the end of their segment, ranked by accumulated cost plus a distance
// estimate toward the destination.
type Search struct {
	w        RailWorld
	cfg      Config
	restrict *tracerestrict.Registry
	cache    *SegmentCachePool

	maxCost      int
	disableCache bool
}

func NewSearch(w RailWorld, cfg Config, restrict *tracerestrict.Registry, cache *SegmentCachePool) *Search {
	if cache == nil {
		cache = NewSegmentCachePool()
	}
	return &Search{w: w, cfg: cfg, restrict: restrict, cache: cache}
}

// SetMaxCost caps the total path cost of a search, 0 = uncapped.
func (s *Search) SetMaxCost(v int) {
	s.maxCost = v
}

func (s *Search) SetDisableCache(v bool) {
	s.disableCache = v
}

func (s *Search) resolveDestination(train *Train) (railmap.TileIndex, error) {
	switch train.DestType {
	case DestStation:
		st, err := s.w.StationByID(train.DestID)
		if err != nil {
			return railmap.InvalidTile, fmt.Errorf("resolve station %d: %w", train.DestID, err)
		}
		return st.Tiles[len(st.Tiles)/2], nil
	case DestWaypoint:
		wp, err := s.w.WaypointByID(train.DestID)
		if err != nil {
			return railmap.InvalidTile, fmt.Errorf("resolve waypoint %d: %w", train.DestID, err)
		}
		return wp.Tiles[len(wp.Tiles)/2], nil
	default:
		if train.DestTile == railmap.InvalidTile {
			return railmap.InvalidTile, ErrNoDestination
		}
		return train.DestTile, nil
	}
}

// FindPath runs one search for train from origin. a Result with Found ==
// false is not an error, it means every branch was exhausted or pruned.
func (s *Search) FindPath(train *Train, origin Origin) (*Result, error) {
	destTile, err := s.resolveDestination(train)
	if err != nil {
		return nil, err
	}

	nodes := newNodeArena(256)
	cost := NewCostModel(s.w, s.cfg, train, s.restrict, s.cache, nodes)
	cost.SetMaxCost(s.maxCost)
	cost.SetDisableCache(s.disableCache)

	open := datastructure.NewMinHeap[int32]()
	closed := make(map[NodeKey]int)

	pushOrigin := func(tile railmap.TileIndex, td railmap.Trackdir, penalty int) error {
		if tile == railmap.InvalidTile || !s.w.TrackBits(tile).Has(td.Track()) {
			return ErrInvalidOrigin
		}
		h := nodes.alloc(-1, NodeKey{Tile: tile, Td: td})
		n := nodes.get(h)
		if !cost.ComputeCost(n) {
			return nil
		}
		n.Cost += penalty
		n.Estimate = s.calcEstimate(n, destTile)
		closed[n.Key] = n.Cost
		open.Insert(datastructure.PriorityQueueNode[int32]{Rank: float64(n.Estimate), Item: h})
		return nil
	}

	if err := pushOrigin(origin.Tile, origin.Td, 0); err != nil {
		return nil, err
	}
	if origin.HasReverse {
		if err := pushOrigin(origin.ReverseTile, origin.ReverseTd, s.cfg.ReversePenalty); err != nil {
			return nil, err
		}
	}

	best := int32(-1)
	bestIntermediate := int32(-1)
	outOfNodes := false
	for open.Size() > 0 {
		pqn, err := open.ExtractMin()
		if err != nil {
			break
		}
		h := pqn.Item
		n := nodes.get(h)
		if c, ok := closed[n.Key]; ok && c < n.Cost {
			continue // a cheaper path through this key was found meanwhile
		}
		if n.Flags.Has(FlagTargetSeen) {
			best = h
			break
		}
		if bestIntermediate < 0 || n.Estimate < nodes.get(bestIntermediate).Estimate {
			bestIntermediate = h
		}
		if nodes.size() >= s.cfg.MaxNodes {
			outOfNodes = true
			break
		}
		s.expand(nodes, cost, open, closed, h, destTile, train)
	}

	res := &Result{
		StoppedOnFirstTwoWaySignal: cost.StoppedOnFirstTwoWaySignal(),
	}
	if best < 0 {
		// out of node budget: hand back the path to the most promising node
		// reached so the caller can start moving anyway.
		if outOfNodes && bestIntermediate >= 0 {
			n := nodes.get(bestIntermediate)
			res.Partial = true
			res.Cost = n.Cost
			res.SignalsPassed = n.NumSignalsPassed
			res.Steps = s.reconstruct(nodes, bestIntermediate, train)
		}
		return res, nil
	}
	n := nodes.get(best)
	res.Found = true
	res.Cost = n.Cost
	res.SignalsPassed = n.NumSignalsPassed
	res.Steps = s.reconstruct(nodes, best, train)
	return res, nil
}

func (s *Search) expand(nodes *nodeArena, cost *CostModel, open *datastructure.MinHeap[int32],
	closed map[NodeKey]int, h int32, destTile railmap.TileIndex, train *Train) {
	n := nodes.get(h)

	addChild := func(key NodeKey, skipped int, isStation, choice bool) {
		ch := nodes.alloc(h, key)
		child := nodes.get(ch)
		child.EntrySkipped = skipped
		child.EntryIsStation = isStation
		if choice {
			child.Flags |= FlagChoiceSeen
		}
		if !cost.ComputeCost(child) {
			return
		}
		if c, ok := closed[child.Key]; ok && c <= child.Cost {
			return
		}
		closed[child.Key] = child.Cost
		child.Estimate = s.calcEstimate(child, destTile)
		open.Insert(datastructure.PriorityQueueNode[int32]{Rank: float64(child.Estimate), Item: ch})
	}

	// a segment ending in a depot continues by reversing out of it.
	if n.EndReason.Has(EndReasonDepot) {
		out := railmap.DiagDirToDiagTrackdir(s.w.DepotDir(n.LastTile))
		addChild(NodeKey{Tile: n.LastTile, Td: out}, 0, false, false)
		return
	}

	tf := NewTrackFollower(s.w, train.RailTypes, s.cfg.Allow90DegTurns)
	if !tf.Follow(n.LastTile, n.LastTd) {
		return
	}
	choice := !tf.TdBits.HasAtMostOne()
	for bits := tf.TdBits; bits != railmap.TrackdirBitNone; {
		td := bits.FirstTrackdir()
		bits &^= td.Bit()
		addChild(NodeKey{Tile: tf.Tile, Td: td}, tf.TilesSkipped, tf.IsStation, choice)
	}
}

var diagDirXOffs = [4]int{-1, 0, 1, 0}
var diagDirYOffs = [4]int{0, 1, 0, -1}

// calcEstimate octile distance from the segment end to the destination in
// half-tile resolution, scaled to tile cost units. admissible because the
// cheapest physical move per tile is the corner piece.
func (s *Search) calcEstimate(n *Node, destTile railmap.TileIndex) int {
	exitdir := n.LastTd.ExitDir()
	x1 := 2*int(s.w.TileX(n.LastTile)) + diagDirXOffs[exitdir]
	y1 := 2*int(s.w.TileY(n.LastTile)) + diagDirYOffs[exitdir]
	x2 := 2 * int(s.w.TileX(destTile))
	y2 := 2 * int(s.w.TileY(destTile))
	dx := absInt(x1 - x2)
	dy := absInt(y1 - y2)
	dmin := dx
	if dy < dmin {
		dmin = dy
	}
	dxy := absInt(dx - dy)
	d := dmin*TileCornerCost + (dxy-1)*(TileLengthCost/2)
	if d < 0 {
		d = 0
	}
	return n.Cost + d
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// reconstruct rebuilds the tile/trackdir steps of the winning path by
// re-walking each segment from its entry to its recorded end.
func (s *Search) reconstruct(nodes *nodeArena, best int32, train *Train) []PathStep {
	chain := make([]int32, 0, 16)
	for h := best; h >= 0; h = nodes.get(h).Parent {
		chain = append(chain, h)
	}
	chain = util.ReverseG(chain)
	var steps []PathStep
	tf := NewTrackFollower(s.w, train.RailTypes, s.cfg.Allow90DegTurns)
	for _, h := range chain {
		n := nodes.get(h)
		curTile, curTd := n.Key.Tile, n.Key.Td
		steps = append(steps, PathStep{Tile: curTile, Td: curTd})
		const maxStepsPerSegment = 4096
		for guard := 0; guard < maxStepsPerSegment; guard++ {
			if curTile == n.LastTile && curTd == n.LastTd {
				break
			}
			if !tf.Follow(curTile, curTd) {
				break
			}
			curTile, curTd = tf.Tile, tf.Td
			steps = append(steps, PathStep{Tile: curTile, Td: curTd})
		}
	}
	return steps
}
