package scheduler

import (
	"sync"
	"sync/atomic"

	"github.com/Fastcode/nuclear-go/internal/threading"
)

// IdleTask fires its Reaction when its target Pool (or, if PoolID is
// empty, every pool with CountsForIdle) has no runnable work and the
// reaction itself has no active task. Each fire creates exactly one
// task; further fires are suppressed until that task completes, then
// the idle task re-arms (spec.md §3 IdleTask).
type IdleTask struct {
	Reaction *threading.Reaction
	PoolID   string // empty means "any/all counting pools"

	fired atomic.Bool
}

type idleRegistry struct {
	mu    sync.Mutex
	tasks map[uint64][]*IdleTask // keyed by reaction id, supports multiple pool filters per reaction
}

func newIdleRegistry() *idleRegistry {
	return &idleRegistry{tasks: make(map[uint64][]*IdleTask)}
}

func (r *idleRegistry) add(task *IdleTask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.Reaction.ID] = append(r.tasks[task.Reaction.ID], task)
}

func (r *idleRegistry) remove(reactionID uint64, poolID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.tasks[reactionID]
	out := existing[:0]
	for _, t := range existing {
		if t.PoolID != poolID {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		delete(r.tasks, reactionID)
	} else {
		r.tasks[reactionID] = out
	}
}

func (r *idleRegistry) snapshot() []*IdleTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*IdleTask, 0, len(r.tasks))
	for _, ts := range r.tasks {
		out = append(out, ts...)
	}
	return out
}
