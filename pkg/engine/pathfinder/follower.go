package pathfinder

import "github.com/lintang-b-s/railnav/pkg/railmap"

// TrackFollower advances one step along the track graph. one Follow call
// moves from (tile, td) onto the next tile and reports every trackdir the
// train could continue with there. platforms and wormholes are jumped over in
// a single step, with TilesSkipped telling the cost model how far.
type TrackFollower struct {
	w         RailWorld
	railTypes railmap.RailTypes
	allow90   bool

	Tile   railmap.TileIndex
	Td     railmap.Trackdir
	TdBits railmap.TrackdirBits

	TilesSkipped int
	IsStation    bool
	Teleported   bool
}

func NewTrackFollower(w RailWorld, railTypes railmap.RailTypes, allow90 bool) *TrackFollower {
	return &TrackFollower{w: w, railTypes: railTypes, allow90: allow90}
}

// Follow advances from tile along td. returns false when the train physically
// cannot continue (map edge, no track, incompatible rail type, closed depot
// side, exit-only wormhole head).
func (f *TrackFollower) Follow(tile railmap.TileIndex, td railmap.Trackdir) bool {
	f.TilesSkipped = 0
	f.IsStation = false
	f.Teleported = false

	exitdir := td.ExitDir()

	// a depot can only be left through its open side.
	if f.w.IsRailDepotTile(tile) && exitdir != f.w.DepotDir(tile) {
		return false
	}

	// leaving a wormhole head in its travel direction jumps to the far head.
	if f.w.IsTunnelBridgeTile(tile) {
		if exit, dir := f.w.WormholeExit(tile); dir == exitdir {
			if f.w.IsTunnelBridgeSignalled(tile) && f.w.IsTunnelBridgeExitOnly(tile) {
				return false
			}
			f.Tile = exit
			f.Td = railmap.DiagDirToDiagTrackdir(exitdir)
			f.TdBits = f.Td.Bit()
			f.TilesSkipped = f.w.WormholeLength(tile)
			f.Teleported = true
			return true
		}
	}

	next := f.w.AdjacentTile(tile, exitdir)
	if next == railmap.InvalidTile {
		return false
	}
	bits := f.w.TrackBits(next)
	if bits == railmap.TrackBitNone {
		return false
	}
	if !f.railTypes.Has(f.w.RailType(next)) {
		return false
	}
	// a depot can only be entered through its open side.
	if f.w.IsRailDepotTile(next) && exitdir != f.w.DepotDir(next).Reverse() {
		return false
	}

	tdBits := railmap.TrackBitsToTrackdirBits(bits) & railmap.DiagdirReachesTrackdirs(exitdir)

	// run along the platform to its far end in one step.
	if f.w.IsRailStationTile(next) && tdBits.Has(railmap.DiagDirToDiagTrackdir(exitdir)) {
		sid := f.w.StationID(next)
		for {
			ahead := f.w.AdjacentTile(next, exitdir)
			if ahead == railmap.InvalidTile || !f.w.IsRailStationTile(ahead) || f.w.StationID(ahead) != sid {
				break
			}
			next = ahead
			f.TilesSkipped++
		}
		f.IsStation = true
		f.Tile = next
		f.Td = railmap.DiagDirToDiagTrackdir(exitdir)
		f.TdBits = f.Td.Bit()
		return true
	}

	if !f.allow90 {
		tdBits &^= railmap.TrackdirCrossesTrackdirs(td)
	}
	if tdBits == railmap.TrackdirBitNone {
		return false
	}

	f.Tile = next
	f.TdBits = tdBits
	f.Td = tdBits.FirstTrackdir()
	return true
}
