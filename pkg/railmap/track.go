package railmap

import (
	"github.com/lintang-b-s/railnav/pkg/util"
)

// DiagDirection arah diagonal antar tile. the map grid is rotated 45 degree,
// so the x axis runs NE-SW and the y axis runs NW-SE. moving to the adjacent
// tile always crosses one of the four diagonal edges.
type DiagDirection uint8

const (
	DiagDirNE DiagDirection = iota // toward negative x
	DiagDirSE                      // toward positive y
	DiagDirSW                      // toward positive x
	DiagDirNW                      // toward negative y

	InvalidDiagDir DiagDirection = 0xFF
)

// Reverse opposite diagonal direction.
func (d DiagDirection) Reverse() DiagDirection {
	return d ^ 2
}

// TileOffset (dx, dy) of the adjacent tile in direction d.
func (d DiagDirection) TileOffset() (int, int) {
	switch d {
	case DiagDirNE:
		return -1, 0
	case DiagDirSE:
		return 0, 1
	case DiagDirSW:
		return 1, 0
	default:
		return 0, -1
	}
}

// Track one of the six track pieces that can occupy a rail tile. X and Y are
// the straight diagonals, the other four connect two adjacent tile edges
// (corner pieces).
type Track uint8

const (
	TrackX     Track = iota // NE <-> SW
	TrackY                  // NW <-> SE
	TrackUpper              // NE <-> NW
	TrackLower              // SE <-> SW
	TrackLeft               // NW <-> SW
	TrackRight              // NE <-> SE

	InvalidTrack Track = 0xFF
)

type TrackBits uint8

const (
	TrackBitNone  TrackBits = 0
	TrackBitX     TrackBits = 1 << TrackX
	TrackBitY     TrackBits = 1 << TrackY
	TrackBitUpper TrackBits = 1 << TrackUpper
	TrackBitLower TrackBits = 1 << TrackLower
	TrackBitLeft  TrackBits = 1 << TrackLeft
	TrackBitRight TrackBits = 1 << TrackRight
	TrackBitCross TrackBits = TrackBitX | TrackBitY
	TrackBitAll   TrackBits = 0x3F
)

func (tb TrackBits) Has(t Track) bool {
	return tb&(1<<t) != 0
}

// FirstTrack lowest numbered track in the set. InvalidTrack if empty.
func (tb TrackBits) FirstTrack() Track {
	if tb == TrackBitNone {
		return InvalidTrack
	}
	return Track(util.FindFirstBit(uint64(tb)))
}

// Trackdir a track piece plus the direction of travel over it. the low three
// bits select the track, bit 3 selects the direction, so td.Track() == td&7
// and td.Reverse() == td^8.
type Trackdir uint8

const (
	TrackdirXNE    Trackdir = 0
	TrackdirYSE    Trackdir = 1
	TrackdirUpperE Trackdir = 2
	TrackdirLowerE Trackdir = 3
	TrackdirLeftS  Trackdir = 4
	TrackdirRightS Trackdir = 5
	TrackdirXSW    Trackdir = 8
	TrackdirYNW    Trackdir = 9
	TrackdirUpperW Trackdir = 10
	TrackdirLowerW Trackdir = 11
	TrackdirLeftN  Trackdir = 12
	TrackdirRightN Trackdir = 13

	InvalidTrackdir Trackdir = 0xFF
)

func (td Trackdir) Track() Track {
	return Track(td & 7)
}

func (td Trackdir) Reverse() Trackdir {
	return td ^ 8
}

// IsDiagonal whether td runs over one of the two straight diagonal tracks.
func (td Trackdir) IsDiagonal() bool {
	return td.Track() == TrackX || td.Track() == TrackY
}

func (td Trackdir) Bit() TrackdirBits {
	return 1 << td
}

type TrackdirBits uint16

const (
	TrackdirBitNone TrackdirBits = 0

	TrackdirBitXNE    TrackdirBits = 1 << TrackdirXNE
	TrackdirBitYSE    TrackdirBits = 1 << TrackdirYSE
	TrackdirBitUpperE TrackdirBits = 1 << TrackdirUpperE
	TrackdirBitLowerE TrackdirBits = 1 << TrackdirLowerE
	TrackdirBitLeftS  TrackdirBits = 1 << TrackdirLeftS
	TrackdirBitRightS TrackdirBits = 1 << TrackdirRightS
	TrackdirBitXSW    TrackdirBits = 1 << TrackdirXSW
	TrackdirBitYNW    TrackdirBits = 1 << TrackdirYNW
	TrackdirBitUpperW TrackdirBits = 1 << TrackdirUpperW
	TrackdirBitLowerW TrackdirBits = 1 << TrackdirLowerW
	TrackdirBitLeftN  TrackdirBits = 1 << TrackdirLeftN
	TrackdirBitRightN TrackdirBits = 1 << TrackdirRightN

	TrackdirBitMask TrackdirBits = 0x3F3F
)

func (tb TrackdirBits) Has(td Trackdir) bool {
	return tb&td.Bit() != 0
}

// FirstTrackdir lowest numbered trackdir in the set. InvalidTrackdir if empty.
func (tb TrackdirBits) FirstTrackdir() Trackdir {
	if tb == TrackdirBitNone {
		return InvalidTrackdir
	}
	return Trackdir(util.FindFirstBit(uint64(tb)))
}

// HasAtMostOne whether the set holds zero or one trackdir. the track follower
// uses this to detect junctions (more than one viable continuation).
func (tb TrackdirBits) HasAtMostOne() bool {
	return util.HasAtMostOneBit(uint64(tb))
}

// ToTrackBits folds both travel directions of every trackdir in the set.
func (tb TrackdirBits) ToTrackBits() TrackBits {
	return TrackBits(tb|tb>>8) & TrackBitAll
}

// TrackToTrackdirBits both travel directions over track t.
func TrackToTrackdirBits(t Track) TrackdirBits {
	return TrackdirBits(1<<t | 1<<(t+8))
}

// TrackBitsToTrackdirBits both travel directions over every track in tb.
func TrackBitsToTrackdirBits(tb TrackBits) TrackdirBits {
	return TrackdirBits(tb) | TrackdirBits(tb)<<8
}

var trackdirToExitdir = [16]DiagDirection{
	DiagDirNE, DiagDirSE, DiagDirNE, DiagDirSE, DiagDirSW, DiagDirSE, InvalidDiagDir, InvalidDiagDir,
	DiagDirSW, DiagDirNW, DiagDirNW, DiagDirSW, DiagDirNW, DiagDirNE,
}

// ExitDir the tile edge crossed when leaving the tile along td.
func (td Trackdir) ExitDir() DiagDirection {
	return trackdirToExitdir[td]
}

// exitdirReachesTrackdirs[d] trackdirs on the next tile that can be entered
// when the previous tile was left through edge d.
var exitdirReachesTrackdirs = [4]TrackdirBits{
	DiagDirNE: TrackdirBitXNE | TrackdirBitLowerE | TrackdirBitLeftN,
	DiagDirSE: TrackdirBitYSE | TrackdirBitUpperE | TrackdirBitLeftS,
	DiagDirSW: TrackdirBitXSW | TrackdirBitUpperW | TrackdirBitRightS,
	DiagDirNW: TrackdirBitYNW | TrackdirBitLowerW | TrackdirBitRightN,
}

// DiagdirReachesTrackdirs trackdirs enterable on a tile reached by moving in
// direction d.
func DiagdirReachesTrackdirs(d DiagDirection) TrackdirBits {
	return exitdirReachesTrackdirs[d]
}

// DiagdirReachesTracks tracks (ignoring direction) enterable on a tile
// reached by moving in direction d.
func DiagdirReachesTracks(d DiagDirection) TrackBits {
	return exitdirReachesTrackdirs[d].ToTrackBits()
}

// trackCrossesTrackdirs[t] trackdirs whose track makes a 90 degree angle with
// track t. consecutive trackdirs across a tile boundary whose tracks cross
// form a 90 degree turn.
var trackCrossesTrackdirs = [6]TrackdirBits{
	TrackX:     TrackdirBitYSE | TrackdirBitYNW,
	TrackY:     TrackdirBitXNE | TrackdirBitXSW,
	TrackUpper: TrackdirBitLeftS | TrackdirBitLeftN | TrackdirBitRightS | TrackdirBitRightN,
	TrackLower: TrackdirBitLeftS | TrackdirBitLeftN | TrackdirBitRightS | TrackdirBitRightN,
	TrackLeft:  TrackdirBitUpperE | TrackdirBitUpperW | TrackdirBitLowerE | TrackdirBitLowerW,
	TrackRight: TrackdirBitUpperE | TrackdirBitUpperW | TrackdirBitLowerE | TrackdirBitLowerW,
}

// TrackdirCrossesTrackdirs trackdirs that would make a 90 degree turn when
// taken directly after td.
func TrackdirCrossesTrackdirs(td Trackdir) TrackdirBits {
	return trackCrossesTrackdirs[td.Track()]
}

// nextTrackdir[td] the trackdir that continues straight ahead on the next
// tile. straights along the grid axes zigzag between the upper/lower and
// left/right corner pieces.
var nextTrackdir = [16]Trackdir{
	TrackdirXNE, TrackdirYSE, TrackdirLowerE, TrackdirUpperE, TrackdirRightS, TrackdirLeftS, InvalidTrackdir, InvalidTrackdir,
	TrackdirXSW, TrackdirYNW, TrackdirLowerW, TrackdirUpperW, TrackdirRightN, TrackdirLeftN,
}

// NextTrackdir the straight continuation of td on the following tile.
func NextTrackdir(td Trackdir) Trackdir {
	return nextTrackdir[td]
}

// DiagDirToDiagTrackdir the diagonal trackdir travelling in direction d.
var diagDirToDiagTrackdir = [4]Trackdir{TrackdirXNE, TrackdirYSE, TrackdirXSW, TrackdirYNW}

func DiagDirToDiagTrackdir(d DiagDirection) Trackdir {
	return diagDirToDiagTrackdir[d]
}
