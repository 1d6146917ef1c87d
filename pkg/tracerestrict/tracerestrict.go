// Package tracerestrict is a small programmable rule engine attached to
// individual signals. during pathfinding a program can inject extra cost,
// deny a path outright, or request that the train reverses behind the signal,
// independent of the built-in signal logic.
package tracerestrict

import (
	"github.com/lintang-b-s/railnav/pkg/railmap"
)

type ConditionKind uint8

const (
	CondAlways ConditionKind = iota
	CondTrainMaxSpeed
	CondTrainLength
	CondCargoClass
	CondEntryDirection
	CondPreviousSignal // compares the tile of the signal passed before this one
)

type Comparator uint8

const (
	CmpEq Comparator = iota
	CmpNe
	CmpLt
	CmpGt
)

type ActionKind uint8

const (
	ActPenalty ActionKind = iota
	ActDeny
	ActReverse
	ActReserveThrough
	ActNoPBSBackPenalty
	ActLongReserve
)

// Item one rule: when the condition holds, apply the action. Value is the
// comparison operand for the condition, ActionValue the penalty amount for
// ActPenalty.
type Item struct {
	Cond        ConditionKind
	Cmp         Comparator
	Value       int
	Action      ActionKind
	ActionValue int
}

// TrainProperties the subset of train state programs may condition on.
type TrainProperties struct {
	MaxSpeed   int // km/h
	Length     int // in 1/16 tile units
	CargoClass uint8
}

// ProgramInput position being evaluated plus a lazy lookup for the previous
// signal along the path. the lookup is only invoked when a program actually
// conditions on it.
type ProgramInput struct {
	Tile           railmap.TileIndex
	Trackdir       railmap.Trackdir
	PreviousSignal func() (railmap.TileIndex, bool)
}

// ProgramResult ephemeral outcome of one program execution, consumed by the
// pathfinder within a single cost evaluation.
type ProgramResult struct {
	Penalty          int
	Deny             bool
	ReverseAtSignal  bool
	ReserveThrough   bool
	NoPBSBackPenalty bool

	// LongReserve asks the reservation that follows the path to extend past
	// the next safe waiting position. carried for the caller, the path cost
	// itself is unaffected.
	LongReserve bool
}

type Program struct {
	Items []Item
}

// IsRelevantToPathfinding whether executing the program can influence a path
// cost decision at all. programs that are not are skipped by the pathfinder.
func (p *Program) IsRelevantToPathfinding() bool {
	return len(p.Items) > 0
}

func compare(cmp Comparator, a, b int) bool {
	switch cmp {
	case CmpEq:
		return a == b
	case CmpNe:
		return a != b
	case CmpLt:
		return a < b
	default:
		return a > b
	}
}

func (p *Program) conditionHolds(item Item, train TrainProperties, input ProgramInput) bool {
	switch item.Cond {
	case CondAlways:
		return true
	case CondTrainMaxSpeed:
		return compare(item.Cmp, train.MaxSpeed, item.Value)
	case CondTrainLength:
		return compare(item.Cmp, train.Length, item.Value)
	case CondCargoClass:
		return compare(item.Cmp, int(train.CargoClass), item.Value)
	case CondEntryDirection:
		return compare(item.Cmp, int(input.Trackdir.ExitDir()), item.Value)
	case CondPreviousSignal:
		prev, ok := input.PreviousSignal()
		if !ok {
			return false
		}
		return compare(item.Cmp, int(prev), item.Value)
	}
	return false
}

// Execute runs the program against one train at one signal position.
func (p *Program) Execute(train TrainProperties, input ProgramInput) ProgramResult {
	var out ProgramResult
	for _, item := range p.Items {
		if !p.conditionHolds(item, train, input) {
			continue
		}
		switch item.Action {
		case ActPenalty:
			out.Penalty += item.ActionValue
		case ActDeny:
			out.Deny = true
		case ActReverse:
			out.ReverseAtSignal = true
		case ActReserveThrough:
			out.ReserveThrough = true
		case ActNoPBSBackPenalty:
			out.NoPBSBackPenalty = true
		case ActLongReserve:
			out.LongReserve = true
		}
	}
	return out
}

type signalKey struct {
	tile  railmap.TileIndex
	track railmap.Track
}

// Registry programs attached to signal positions.
type Registry struct {
	programs map[signalKey]*Program
}

func NewRegistry() *Registry {
	return &Registry{programs: make(map[signalKey]*Program)}
}

func (r *Registry) Attach(tile railmap.TileIndex, track railmap.Track, prog *Program) {
	r.programs[signalKey{tile, track}] = prog
}

func (r *Registry) Remove(tile railmap.TileIndex, track railmap.Track) {
	delete(r.programs, signalKey{tile, track})
}

// ProgramFor the program attached at (tile, track), nil when none.
func (r *Registry) ProgramFor(tile railmap.TileIndex, track railmap.Track) *Program {
	return r.programs[signalKey{tile, track}]
}
