package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Fastcode/nuclear-go/internal/threading"
)

// RunState is the scheduler's lifecycle state machine, per spec.md
// §4.5: Created -> Running -> ShuttingDown -> Terminated.
type RunState int32

const (
	Created RunState = iota
	Running
	ShuttingDown
	Terminated
)

// Logger is the minimal subset of logging the scheduler needs (panic
// recovery, worker lifecycle). Satisfied by the root package's Logger.
type Logger interface {
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}

// Scheduler owns every Pool and Group, the idle-task registry, and the
// run-state driving startup/shutdown, per spec.md §4.5.
type Scheduler struct {
	log Logger

	mu    sync.Mutex
	pools map[string]*Pool

	groups *groupRegistry
	idle   *idleRegistry

	state atomic.Int32

	defaultConcurrency int

	wg sync.WaitGroup // non-MainThread worker goroutines

	shutdownOnce sync.Once
	drained      chan struct{}
}

// New constructs a Scheduler. defaultConcurrency sizes the unnamed
// default pool and is used whenever a PoolDescriptor with Concurrency<=0
// is first seen.
func New(defaultConcurrency int, log Logger) *Scheduler {
	if log == nil {
		log = noopLogger{}
	}
	if defaultConcurrency <= 0 {
		defaultConcurrency = 2
	}
	s := &Scheduler{
		log:                log,
		pools:              make(map[string]*Pool),
		groups:             newGroupRegistry(),
		idle:               newIdleRegistry(),
		defaultConcurrency: defaultConcurrency,
		drained:            make(chan struct{}),
	}
	s.state.Store(int32(Created))
	return s
}

// State returns the current run-state.
func (s *Scheduler) State() RunState { return RunState(s.state.Load()) }

func (s *Scheduler) poolFor(desc threading.PoolDescriptor) *Pool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[desc.ID]
	if ok {
		return p
	}
	if desc.Concurrency <= 0 && desc.ID != threading.MainThreadPoolID {
		desc.Concurrency = s.defaultConcurrency
	}
	if desc.ID == threading.MainThreadPoolID {
		desc.Concurrency = 1
	}
	p = newPool(desc)
	s.pools[desc.ID] = p
	return p
}

// AddIdleTask registers an idle task with the scheduler.
func (s *Scheduler) AddIdleTask(reaction *threading.Reaction, poolID string) {
	s.idle.add(&IdleTask{Reaction: reaction, PoolID: poolID})
}

// RemoveIdleTask removes a previously registered idle task.
func (s *Scheduler) RemoveIdleTask(reactionID uint64, poolID string) {
	s.idle.remove(reactionID, poolID)
}

// Submit routes task T per spec.md §4.5's submission algorithm:
//  1. Terminated: drop.
//  2. Inline-eligible (RunInlineAlways, or requestInline with
//     RunInline != Never): try direct execution, acquiring all of T's
//     group tokens without blocking; fall back to enqueue if any token
//     is unavailable.
//  3. Otherwise: enqueue into T.Pool's priority queue.
//
// Submit never panics and never lets a panic from T's callback escape:
// ReactionTask.Run recovers internally.
func (s *Scheduler) Submit(task *threading.ReactionTask, requestInline bool) {
	if s.State() == Terminated {
		return
	}

	inlineEligible := task.RunInline == threading.RunInlineAlways ||
		(requestInline && task.RunInline != threading.RunInlineNever)

	if inlineEligible {
		if release, ok := s.groups.tryAcquireAll(task.Groups); ok {
			defer release()
			task.Run()
			return
		}
		// Tokens unavailable: fall through to enqueue rather than block,
		// per spec.md's "blocking is forbidden" for the inline path.
	}

	pool := s.poolFor(task.Pool)
	if pool.Descriptor.ID != threading.MainThreadPoolID && s.State() == Running {
		s.ensureWorkers(pool)
	}
	pool.enqueue(task)
}

// StartWorkers spawns Concurrency worker goroutines for every known pool
// except MainThread.
// Pools discovered after StartWorkers runs (a PoolDescriptor seen for
// the first time at runtime) spawn lazily on first submission via
// ensureWorkers.
func (s *Scheduler) StartWorkers() {
	s.mu.Lock()
	pools := make([]*Pool, 0, len(s.pools))
	for id, p := range s.pools {
		if id != threading.MainThreadPoolID {
			pools = append(pools, p)
		}
	}
	s.mu.Unlock()

	for _, p := range pools {
		s.spawnPoolWorkers(p)
	}
}

// ensureWorkers lazily spawns workers for a pool created after startup
// (e.g. the first task submitted against a previously-unseen
// PoolDescriptor).
func (s *Scheduler) ensureWorkers(p *Pool) {
	p.mu.Lock()
	needed := p.Descriptor.Concurrency - p.workers
	if needed > 0 {
		p.workers += needed
	}
	p.mu.Unlock()
	for i := 0; i < needed; i++ {
		s.wg.Add(1)
		go s.runWorker(p)
	}
}

func (s *Scheduler) spawnPoolWorkers(p *Pool) {
	p.mu.Lock()
	needed := p.Descriptor.Concurrency - p.workers
	p.workers = p.Descriptor.Concurrency
	p.mu.Unlock()
	for i := 0; i < needed; i++ {
		s.wg.Add(1)
		go s.runWorker(p)
	}
}

func (s *Scheduler) terminated() bool { return s.State() == Terminated }

// MainThreadPool returns the pool bound to MainThreadPoolID, creating
// it (with concurrency forced to 1) if no reaction has named it yet.
// PowerPlant.Start runs this pool's worker loop directly on the
// goroutine that called Start, rather than spawning a separate one.
func (s *Scheduler) MainThreadPool() *Pool {
	return s.poolFor(threading.PoolDescriptor{ID: threading.MainThreadPoolID, Concurrency: 1})
}

// RunMainThread runs p's worker loop on the calling goroutine. Intended
// for exactly one call, against MainThreadPool(), from Start.
func (s *Scheduler) RunMainThread(p *Pool) {
	s.workerLoop(p)
}

// runWorker is the worker loop for one pool-thread goroutine, per
// spec.md §4.5's pseudocode.
func (s *Scheduler) runWorker(p *Pool) {
	defer s.wg.Done()
	s.workerLoop(p)
}

// workerLoop is factored out so PowerPlant.Start can run it directly on
// the calling goroutine for the MainThread pool.
func (s *Scheduler) workerLoop(p *Pool) {
	for {
		t, ok := p.pop(s.terminated)
		if !ok {
			return
		}

		release, err := s.groups.acquireBlocking(context.Background(), t.Groups)
		if err != nil {
			// Context never cancels here (context.Background()), but
			// guard defensively: drop the task rather than wedge the
			// worker.
			p.finish()
			continue
		}

		t.Run()
		release()

		if idle := p.finish(); idle {
			s.evaluateIdle(p)
		}
	}
}

// evaluateIdle fires any idle task whose condition is now satisfied.
func (s *Scheduler) evaluateIdle(triggering *Pool) {
	for _, it := range s.idle.snapshot() {
		if it.PoolID != "" && it.PoolID != triggering.Descriptor.ID {
			continue
		}
		if !s.idleConditionMet(it) {
			continue
		}
		if !it.fired.CompareAndSwap(false, true) {
			continue
		}
		task, outcome := it.Reaction.GetTask(false, nil)
		if outcome != threading.OutcomeSubmitted {
			it.fired.Store(false)
			continue
		}
		task.PostRun = append(task.PostRun, func() { it.fired.Store(false) })
		s.Submit(task, false)
	}
}

func (s *Scheduler) idleConditionMet(it *IdleTask) bool {
	if it.Reaction.ActiveTasks() > 0 {
		return false
	}
	if it.PoolID != "" {
		s.mu.Lock()
		p, ok := s.pools[it.PoolID]
		s.mu.Unlock()
		if !ok {
			return false
		}
		return p.IsIdle()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pools {
		if p.Descriptor.CountsForIdle && !p.IsIdle() {
			return false
		}
	}
	return true
}

// TransitionRunning moves Created -> Running.
func (s *Scheduler) TransitionRunning() { s.state.Store(int32(Running)) }

// TransitionShuttingDown moves Running -> ShuttingDown.
func (s *Scheduler) TransitionShuttingDown() { s.state.Store(int32(ShuttingDown)) }

// AllPoolsDrained reports whether every pool has an empty queue and no
// running tasks, the condition spec.md's graceful shutdown waits for
// before transitioning to Terminated.
func (s *Scheduler) AllPoolsDrained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pools {
		if !p.IsIdle() {
			return false
		}
	}
	return true
}

// Terminate transitions to Terminated and wakes every pool so idle
// workers observe it and exit.
func (s *Scheduler) Terminate() {
	s.shutdownOnce.Do(func() {
		s.state.Store(int32(Terminated))
		s.mu.Lock()
		pools := make([]*Pool, 0, len(s.pools))
		for _, p := range s.pools {
			pools = append(pools, p)
		}
		s.mu.Unlock()
		for _, p := range pools {
			p.wake()
		}
		close(s.drained)
	})
}

// Wait blocks until every spawned non-MainThread worker goroutine has
// exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// ForceDrop empties every pool's queue without running the dropped
// tasks, used by forced shutdown (spec.md: "drop queued tasks but never
// kill a running callback").
func (s *Scheduler) ForceDrop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pools {
		p.mu.Lock()
		p.queue = newTaskHeap()
		p.mu.Unlock()
	}
}

// Pools returns the current set of pool ids, for diagnostics.
func (s *Scheduler) Pools() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.pools))
	for id := range s.pools {
		out = append(out, id)
	}
	return out
}
