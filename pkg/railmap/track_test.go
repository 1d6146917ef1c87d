package railmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackdirTrackAndReverse(t *testing.T) {
	assert.Equal(t, TrackX, TrackdirXNE.Track())
	assert.Equal(t, TrackX, TrackdirXSW.Track())
	assert.Equal(t, TrackUpper, TrackdirUpperW.Track())

	assert.Equal(t, TrackdirXSW, TrackdirXNE.Reverse())
	assert.Equal(t, TrackdirUpperE, TrackdirUpperW.Reverse())
	assert.Equal(t, TrackdirLeftS, TrackdirLeftN.Reverse())
}

func TestDiagDirectionReverse(t *testing.T) {
	assert.Equal(t, DiagDirSW, DiagDirNE.Reverse())
	assert.Equal(t, DiagDirNW, DiagDirSE.Reverse())
	assert.Equal(t, DiagDirNE, DiagDirSW.Reverse())
	assert.Equal(t, DiagDirSE, DiagDirNW.Reverse())
}

func TestTrackdirExitDir(t *testing.T) {
	assert.Equal(t, DiagDirNE, TrackdirXNE.ExitDir())
	assert.Equal(t, DiagDirSW, TrackdirXSW.ExitDir())
	assert.Equal(t, DiagDirNE, TrackdirUpperE.ExitDir())
	assert.Equal(t, DiagDirNW, TrackdirUpperW.ExitDir())
	assert.Equal(t, DiagDirSE, TrackdirRightS.ExitDir())
	assert.Equal(t, DiagDirNE, TrackdirRightN.ExitDir())
	assert.Equal(t, DiagDirSW, TrackdirLeftS.ExitDir())
	assert.Equal(t, DiagDirNW, TrackdirLeftN.ExitDir())
}

// leaving a tile through an edge must only reach trackdirs on the next tile
// whose entry edge is the shared one.
func TestDiagdirReachesTrackdirs(t *testing.T) {
	for _, d := range []DiagDirection{DiagDirNE, DiagDirSE, DiagDirSW, DiagDirNW} {
		reached := DiagdirReachesTrackdirs(d)
		for td := Trackdir(0); td <= TrackdirRightN; td++ {
			if td.Track() == InvalidTrack || td == 6 || td == 7 {
				continue
			}
			if reached.Has(td) {
				// entry edge of td is the exit edge of its reverse
				assert.Equal(t, d.Reverse(), td.Reverse().ExitDir(),
					"trackdir %d reached via %d", td, d)
			}
		}
	}
}

func TestNextTrackdirStraightContinuation(t *testing.T) {
	assert.Equal(t, TrackdirXNE, NextTrackdir(TrackdirXNE))
	assert.Equal(t, TrackdirLowerE, NextTrackdir(TrackdirUpperE))
	assert.Equal(t, TrackdirUpperE, NextTrackdir(TrackdirLowerE))
	assert.Equal(t, TrackdirRightS, NextTrackdir(TrackdirLeftS))
	assert.Equal(t, TrackdirLeftN, NextTrackdir(TrackdirRightN))

	// a straight continuation is always reachable from the exit edge
	for td := Trackdir(0); td <= TrackdirRightN; td++ {
		if td == 6 || td == 7 {
			continue
		}
		next := NextTrackdir(td)
		assert.True(t, DiagdirReachesTrackdirs(td.ExitDir()).Has(next),
			"straight continuation of %d not reachable", td)
	}
}

func TestTrackdirCrossesTrackdirs(t *testing.T) {
	// perpendicular corner pieces cross
	assert.True(t, TrackdirCrossesTrackdirs(TrackdirLowerE).Has(TrackdirLeftS))
	assert.True(t, TrackdirCrossesTrackdirs(TrackdirUpperE).Has(TrackdirRightS))
	// straight continuations never cross
	for td := Trackdir(0); td <= TrackdirRightN; td++ {
		if td == 6 || td == 7 {
			continue
		}
		assert.False(t, TrackdirCrossesTrackdirs(td).Has(NextTrackdir(td)),
			"straight continuation of %d flagged as crossing", td)
	}
}

func TestTrackdirBitsToTrackBits(t *testing.T) {
	tb := (TrackdirBitXNE | TrackdirBitXSW | TrackdirBitUpperE).ToTrackBits()
	assert.Equal(t, TrackBitX|TrackBitUpper, tb)

	assert.Equal(t, TrackdirBitYSE|TrackdirBitYNW, TrackToTrackdirBits(TrackY))
}

func TestTrackOverlapsTracks(t *testing.T) {
	// same track overlaps
	assert.True(t, TrackOverlapsTracks(TrackBitX, TrackX))
	// crossing tracks overlap
	assert.True(t, TrackOverlapsTracks(TrackBitY, TrackX))
	assert.True(t, TrackOverlapsTracks(TrackBitLeft, TrackUpper))
	// parallel corner pieces do not
	assert.False(t, TrackOverlapsTracks(TrackBitUpper, TrackLower))
	assert.False(t, TrackOverlapsTracks(TrackBitNone, TrackX))
}
