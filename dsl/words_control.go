package dsl

import (
	"sync/atomic"

	"github.com/Fastcode/nuclear-go/internal/threading"
)

// bufferWord caps the number of concurrently active tasks a reaction
// may have. Single is Buffer(1).
type bufferWord struct {
	limit int32
}

// Buffer returns a word whose precondition blocks new task creation
// once the reaction already has limit tasks active, per spec.md's
// Buffer precondition semantics (checked against Reaction.ActiveTasks).
func Buffer(limit int) Word {
	if limit < 1 {
		limit = 1
	}
	return &bufferWord{limit: int32(limit)}
}

// Single is the common case of Buffer(1): at most one task from this
// reaction may be active at a time.
func Single() Word { return &bufferWord{limit: 1} }

func (w *bufferWord) hooks() hookSet {
	return hookSet{
		precondition: func(reaction *threading.Reaction) bool {
			return reaction.ActiveTasks() < w.limit
		},
	}
}

// onceWord fires a reaction at most once, then unbinds it, matching
// spec.md's Once word.
type onceWord struct {
	fired atomic.Bool
}

// Once returns a word that allows exactly one task to be created for
// this reaction; once that task finishes, the reaction unbinds itself.
func Once() Word { return &onceWord{} }

func (w *onceWord) hooks() hookSet {
	return hookSet{
		precondition: func(reaction *threading.Reaction) bool {
			return w.fired.CompareAndSwap(false, true)
		},
		postRun: func(reaction *threading.Reaction) {
			reaction.Unbind()
		},
	}
}

type noStatsWord struct{}

// NoStats opts a reaction out of ReactionEvent/LogMessage statistics
// emission. Required on any reaction whose own trigger is
// nuclear.ReactionEvent or nuclear.LogMessage, to avoid an infinite
// statistics-about-statistics loop.
func NoStats() Word { return noStatsWord{} }

func (noStatsWord) hooks() hookSet { return hookSet{noStats: true} }
