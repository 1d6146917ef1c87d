package pathfinder

import "github.com/lintang-b-s/railnav/pkg/railmap"

// EndSegmentReason records why a segment walk terminated. a segment can end
// for several reasons at once (a station platform that is also the last tile
// before a junction, for example), so this is a bitset.
type EndSegmentReason uint16

const (
	EndReasonDeadEnd EndSegmentReason = 1 << iota
	EndReasonRailType
	EndReasonInfiniteLoop
	EndReasonSegmentTooLong
	EndReasonChoice
	EndReasonDepot
	EndReasonWaypoint
	EndReasonStation
	EndReasonSafeTile
	EndReasonPathTooLong
	EndReasonFirstTwoWayRed

	EndReasonNone EndSegmentReason = 0

	// segment ends that may satisfy a destination check.
	endReasonPossibleTarget = EndReasonDepot | EndReasonWaypoint | EndReasonStation | EndReasonSafeTile

	// segment ends that prune the node outright.
	defaultAbortMask = EndReasonDeadEnd | EndReasonPathTooLong | EndReasonInfiniteLoop | EndReasonFirstTwoWayRed
)

func (r EndSegmentReason) Has(flag EndSegmentReason) bool {
	return r&flag != 0
}

// PossibleTarget whether the segment ended somewhere a destination check makes
// sense at all.
func (r EndSegmentReason) PossibleTarget() bool {
	return r&endReasonPossibleTarget != 0
}

// Aborts whether the reason set contains a pruning reason.
func (r EndSegmentReason) Aborts() bool {
	return r&defaultAbortMask != 0
}

// CachedSegment the cacheable part of a cost evaluation. everything in here
// depends only on the entry position and the physical track layout, never on
// signal states or reservations, so it stays valid until the rails change.
type CachedSegment struct {
	Key       NodeKey
	Cost      int // -1 = not yet computed
	EndReason EndSegmentReason

	LastTile railmap.TileIndex
	LastTd   railmap.Trackdir

	// position of the last signal inside the segment, used to rebuild the
	// volatile red/green state on a cache hit. InvalidTile when the segment
	// holds no signal.
	LastSignalTile railmap.TileIndex
	LastSignalTd   railmap.Trackdir
}

// SegmentCachePool owns the cached segments of one rail layout generation.
// throw the whole pool away whenever tracks are built or removed.
type SegmentCachePool struct {
	segments map[NodeKey]*CachedSegment
}

func NewSegmentCachePool() *SegmentCachePool {
	return &SegmentCachePool{segments: make(map[NodeKey]*CachedSegment)}
}

// Get the segment for key, allocating an uncomputed one on first use.
func (p *SegmentCachePool) Get(key NodeKey) *CachedSegment {
	if s, ok := p.segments[key]; ok {
		return s
	}
	s := &CachedSegment{
		Key:            key,
		Cost:           -1,
		LastTile:       railmap.InvalidTile,
		LastSignalTile: railmap.InvalidTile,
	}
	p.segments[key] = s
	return s
}

func (p *SegmentCachePool) Len() int {
	return len(p.segments)
}

// Flush drops every cached segment. called after any track layout change.
func (p *SegmentCachePool) Flush() {
	p.segments = make(map[NodeKey]*CachedSegment)
}
