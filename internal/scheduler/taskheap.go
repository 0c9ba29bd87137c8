package scheduler

import (
	"container/heap"

	"github.com/Fastcode/nuclear-go/internal/threading"
)

// taskHeap is a container/heap.Interface ordering ReactionTasks by
// spec.md's ScheduledWork key: (priority DESC, task_id ASC).
type taskHeap []*threading.ReactionTask

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	return threading.Less(h[i], h[j])
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*threading.ReactionTask))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

func newTaskHeap() *taskHeap {
	h := &taskHeap{}
	heap.Init(h)
	return h
}
