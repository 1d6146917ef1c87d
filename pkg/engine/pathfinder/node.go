package pathfinder

import "github.com/lintang-b-s/railnav/pkg/railmap"

// NodeKey identifies a search node by the tile and trackdir it was entered
// with. one key maps to exactly one track segment, which is what makes the
// segment cache work.
type NodeKey struct {
	Tile railmap.TileIndex
	Td   railmap.Trackdir
}

type NodeFlags uint8

const (
	// the node's segment ends on a tile that satisfies the destination.
	FlagTargetSeen NodeFlags = 1 << iota
	// a junction was passed somewhere between the origin and this node.
	FlagChoiceSeen
	// the last signal passed on the path so far was red.
	FlagLastSignalWasRed
	// the path went through a tunnel or bridge wormhole.
	FlagTeleport
	// a restriction program asked the train to reverse behind a signal on
	// this path. recorded only, segment caching is bypassed for such nodes.
	FlagReversePending
	// a restriction program waived the penalty for approaching path signals
	// from the back.
	FlagNoPBSBackPenalty
)

func (f NodeFlags) Has(flag NodeFlags) bool {
	return f&flag != 0
}

// Node one entry in the search tree. a node covers a whole track segment:
// Key is where the segment was entered, LastTile/LastTd where it ends.
type Node struct {
	Key      NodeKey
	LastTile railmap.TileIndex
	LastTd   railmap.Trackdir

	Parent int32 // arena handle, -1 for origin nodes

	Cost     int // accumulated path cost up to LastTile, -1 = pruned
	Estimate int // Cost plus the remaining distance heuristic

	// why the node's segment ended, the union of reasons for cached reuse.
	EndReason EndSegmentReason

	NumSignalsPassed    int
	NumResThroughPassed int
	Flags               NodeFlags
	LastSignalType      railmap.SignalType
	LastRedSignalType   railmap.SignalType

	// how the segment's first tile was reached: tiles jumped over by the
	// track follower (platforms, wormholes) and whether it is a platform.
	EntrySkipped   int
	EntryIsStation bool

	// platform length of the segment's final station, valid when the segment
	// ended on one.
	PlatformLength int

	Segment *CachedSegment
}

// nodeArena backs the search tree with a slice so parent links are stable
// int32 handles instead of pointers that would keep every node alive.
type nodeArena struct {
	nodes []Node
}

func newNodeArena(capHint int) *nodeArena {
	return &nodeArena{nodes: make([]Node, 0, capHint)}
}

func (a *nodeArena) get(h int32) *Node {
	return &a.nodes[h]
}

func (a *nodeArena) size() int {
	return len(a.nodes)
}

// alloc creates a node entered at key as a child of parent (-1 for origin
// nodes), inheriting the per-path signal state.
func (a *nodeArena) alloc(parent int32, key NodeKey) int32 {
	h := int32(len(a.nodes))
	n := Node{
		Key:               key,
		LastTile:          key.Tile,
		LastTd:            key.Td,
		Parent:            parent,
		Cost:              -1,
		LastSignalType:    railmap.SignalBlock,
		LastRedSignalType: railmap.SignalBlock,
	}
	if parent >= 0 {
		p := a.get(parent)
		n.NumSignalsPassed = p.NumSignalsPassed
		n.NumResThroughPassed = p.NumResThroughPassed
		n.LastSignalType = p.LastSignalType
		n.LastRedSignalType = p.LastRedSignalType
		n.Flags = p.Flags & (FlagChoiceSeen | FlagLastSignalWasRed | FlagTeleport | FlagNoPBSBackPenalty)
	}
	a.nodes = append(a.nodes, n)
	return h
}
