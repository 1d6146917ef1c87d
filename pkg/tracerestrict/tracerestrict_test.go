package tracerestrict

import (
	"testing"

	"github.com/lintang-b-s/railnav/pkg/railmap"

	"github.com/stretchr/testify/assert"
)

func TestExecutePenaltyForSlowTrains(t *testing.T) {
	prog := &Program{Items: []Item{
		{Cond: CondTrainMaxSpeed, Cmp: CmpLt, Value: 120, Action: ActPenalty, ActionValue: 300},
	}}

	slow := TrainProperties{MaxSpeed: 80}
	fast := TrainProperties{MaxSpeed: 160}
	input := ProgramInput{Tile: 10, Trackdir: railmap.TrackdirXSW}

	assert.Equal(t, 300, prog.Execute(slow, input).Penalty)
	assert.Equal(t, 0, prog.Execute(fast, input).Penalty)
}

func TestExecuteDenyAndReverse(t *testing.T) {
	prog := &Program{Items: []Item{
		{Cond: CondTrainLength, Cmp: CmpGt, Value: 5 * 16, Action: ActDeny},
		{Cond: CondAlways, Action: ActReverse},
	}}

	long := TrainProperties{Length: 8 * 16}
	short := TrainProperties{Length: 3 * 16}
	input := ProgramInput{}

	outLong := prog.Execute(long, input)
	assert.True(t, outLong.Deny)
	assert.True(t, outLong.ReverseAtSignal)

	outShort := prog.Execute(short, input)
	assert.False(t, outShort.Deny)
	assert.True(t, outShort.ReverseAtSignal)
}

func TestPreviousSignalLookupIsLazy(t *testing.T) {
	called := false
	input := ProgramInput{
		PreviousSignal: func() (railmap.TileIndex, bool) {
			called = true
			return 42, true
		},
	}

	noCond := &Program{Items: []Item{{Cond: CondAlways, Action: ActPenalty, ActionValue: 10}}}
	noCond.Execute(TrainProperties{}, input)
	assert.False(t, called)

	withCond := &Program{Items: []Item{
		{Cond: CondPreviousSignal, Cmp: CmpEq, Value: 42, Action: ActReserveThrough},
	}}
	out := withCond.Execute(TrainProperties{}, input)
	assert.True(t, called)
	assert.True(t, out.ReserveThrough)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	prog := &Program{Items: []Item{{Cond: CondAlways, Action: ActPenalty, ActionValue: 1}}}

	assert.Nil(t, reg.ProgramFor(3, railmap.TrackX))
	reg.Attach(3, railmap.TrackX, prog)
	assert.Equal(t, prog, reg.ProgramFor(3, railmap.TrackX))
	assert.Nil(t, reg.ProgramFor(3, railmap.TrackY))

	reg.Remove(3, railmap.TrackX)
	assert.Nil(t, reg.ProgramFor(3, railmap.TrackX))
	assert.False(t, (&Program{}).IsRelevantToPathfinding())
}
