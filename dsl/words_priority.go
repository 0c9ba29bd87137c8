package dsl

import "github.com/Fastcode/nuclear-go/internal/threading"

// Priority levels, ordered low to high; default (no Priority word) is
// Normal. Higher values run first within a pool's queue.
const (
	PriorityIdle   int32 = -100
	PriorityLow    int32 = -10
	PriorityNormal int32 = 0
	PriorityHigh   int32 = 10
	PriorityRealtime int32 = 100
)

type priorityWord struct{ level int32 }

// Priority pins a reaction's tasks to the given level. When more than
// one Priority word appears in a single On(...) call, the last one
// wins, matching spec.md's last-writer-wins merge rule.
func Priority(level int32) Word { return &priorityWord{level: level} }

func (w *priorityWord) hooks() hookSet {
	return hookSet{priority: func(*threading.Reaction) int32 { return w.level }}
}
