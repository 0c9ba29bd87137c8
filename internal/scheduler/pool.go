// Package scheduler owns Pools and Groups and routes ReactionTask
// submissions between them, per spec.md §4.5.
//
// Grounded on the teacher's modules/scheduler.Scheduler (worker-goroutine
// pool draining a shared queue, started/stopped under a context, events
// emitted on lifecycle transitions) generalized from a fixed worker
// count pulling named Jobs to a priority heap pulling ReactionTasks, and
// on original_source's threading/scheduler (not present in the filtered
// source pack, but named throughout Reaction/ReactionTask/PowerPlant) for
// the submission algorithm itself.
package scheduler

import (
	"container/heap"
	"sync"

	"github.com/Fastcode/nuclear-go/internal/threading"
)

// Pool is a named worker set draining a shared priority queue.
type Pool struct {
	Descriptor threading.PoolDescriptor

	mu      sync.Mutex
	cond    *sync.Cond
	queue   *taskHeap
	running int
	workers int

	onTaskFinished func(pool *Pool)
}

func newPool(desc threading.PoolDescriptor) *Pool {
	p := &Pool{Descriptor: desc, queue: newTaskHeap()}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// enqueue pushes t onto the pool's priority queue and wakes one waiter.
func (p *Pool) enqueue(t *threading.ReactionTask) {
	p.mu.Lock()
	heap.Push(p.queue, t)
	p.mu.Unlock()
	p.cond.Signal()
}

// pop blocks until a task is available or terminated becomes true,
// returning (nil, false) in the latter case with the queue empty.
func (p *Pool) pop(terminated func() bool) (*threading.ReactionTask, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.queue.Len() == 0 {
		if terminated() {
			return nil, false
		}
		p.cond.Wait()
	}
	t := heap.Pop(p.queue).(*threading.ReactionTask)
	p.running++
	return t, true
}

// finish marks a task as no longer running in this pool and reports
// whether the pool is now idle (empty queue, zero running).
func (p *Pool) finish() (idle bool) {
	p.mu.Lock()
	p.running--
	idle = p.queue.Len() == 0 && p.running == 0
	p.mu.Unlock()
	p.cond.Broadcast()
	return idle
}

// IsIdle reports whether the pool currently has no queued or running
// work, used for IdleTask evaluation against unfiltered idle tasks.
func (p *Pool) IsIdle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len() == 0 && p.running == 0
}

// QueueLen reports the number of queued-but-not-running tasks.
func (p *Pool) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}

// wake unblocks every waiter so they can reconsider the terminated
// predicate (used by shutdown).
func (p *Pool) wake() {
	p.cond.Broadcast()
}
