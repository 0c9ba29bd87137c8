package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fastcode/nuclear-go/internal/threading"
)

func newTask(t *testing.T, priority int32, pool threading.PoolDescriptor, groups []threading.GroupDescriptor, ran func()) *threading.ReactionTask {
	t.Helper()
	r := threading.New(threading.Identifiers{}, true)
	task := threading.NewTask(r, priority, pool, groups, threading.RunInlineNeutral)
	task.Callback = func() error {
		if ran != nil {
			ran()
		}
		return nil
	}
	return task
}

func TestPoolDrainsHighestPriorityFirst(t *testing.T) {
	p := newPool(threading.PoolDescriptor{ID: "p", Concurrency: 1})

	var mu sync.Mutex
	var order []int32

	low := newTask(t, 0, p.Descriptor, nil, func() { mu.Lock(); order = append(order, 0); mu.Unlock() })
	high := newTask(t, 10, p.Descriptor, nil, func() { mu.Lock(); order = append(order, 10); mu.Unlock() })

	p.enqueue(low)
	p.enqueue(high)

	for i := 0; i < 2; i++ {
		task, ok := p.pop(func() bool { return false })
		require.True(t, ok)
		task.Run()
		p.finish()
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int32{10, 0}, order, "higher priority task must drain before the older lower-priority one")
}

func TestSchedulerGroupSerializesMutualExclusion(t *testing.T) {
	s := New(4, nil)
	s.TransitionRunning()
	s.StartWorkers()
	defer s.Terminate()

	const n = 20
	var running atomic.Int32
	var sawOverlap atomic.Bool
	var wg sync.WaitGroup
	wg.Add(n)

	group := []threading.GroupDescriptor{{ID: "serial", Tokens: 1}}
	for i := 0; i < n; i++ {
		task := newTask(t, 0, threading.PoolDescriptor{ID: "workers", Concurrency: 4}, group, nil)
		task.Callback = func() error {
			defer wg.Done()
			if running.Add(1) > 1 {
				sawOverlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
			return nil
		}
		s.Submit(task, false)
	}

	wg.Wait()
	assert.False(t, sawOverlap.Load(), "tasks sharing a Group token must never run concurrently")
}

func TestSchedulerInlineSubmissionRunsOnCallingGoroutine(t *testing.T) {
	s := New(2, nil)
	s.TransitionRunning()
	s.StartWorkers()
	defer s.Terminate()

	var ranOnCaller bool
	callerGoroutine := make(chan struct{})
	go func() {
		task := newTask(t, 0, threading.PoolDescriptor{}, nil, func() { ranOnCaller = true })
		task.RunInline = threading.RunInlineAlways
		s.Submit(task, false)
		close(callerGoroutine)
	}()

	<-callerGoroutine
	assert.True(t, ranOnCaller, "a RunInlineAlways task must execute synchronously inside Submit")
}

func TestSchedulerInlineFallsBackToQueueWhenGroupTokenUnavailable(t *testing.T) {
	s := New(2, nil)
	s.TransitionRunning()
	s.StartWorkers()
	defer s.Terminate()

	group := []threading.GroupDescriptor{{ID: "g", Tokens: 1}}

	blockRelease := make(chan struct{})
	started := make(chan struct{})
	holder := newTask(t, 0, threading.PoolDescriptor{ID: "w", Concurrency: 2}, group, nil)
	holder.Callback = func() error {
		close(started)
		<-blockRelease
		return nil
	}
	s.Submit(holder, false)
	<-started

	ran := make(chan struct{})
	follower := newTask(t, 0, threading.PoolDescriptor{ID: "w", Concurrency: 2}, group, func() { close(ran) })
	follower.RunInline = threading.RunInlineAlways
	s.Submit(follower, false) // inline-eligible but token held; must enqueue instead of blocking

	select {
	case <-ran:
		t.Fatal("follower ran before the group token was released")
	case <-time.After(20 * time.Millisecond):
	}

	close(blockRelease)
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("follower never ran after the token was released")
	}
}

func TestSchedulerAllPoolsDrainedAndForceDrop(t *testing.T) {
	s := New(1, nil)
	s.TransitionRunning()
	defer s.Terminate()

	assert.True(t, s.AllPoolsDrained())

	block := make(chan struct{})
	task := newTask(t, 0, threading.PoolDescriptor{ID: "w", Concurrency: 1}, nil, nil)
	task.Callback = func() error { <-block; return nil }
	queued := newTask(t, 0, threading.PoolDescriptor{ID: "w", Concurrency: 1}, nil, nil)

	s.StartWorkers()
	s.Submit(task, false)
	s.Submit(queued, false)
	time.Sleep(10 * time.Millisecond)

	assert.False(t, s.AllPoolsDrained(), "one task running, one queued")
	s.ForceDrop()

	close(block)
	time.Sleep(10 * time.Millisecond)
	assert.True(t, s.AllPoolsDrained(), "ForceDrop must empty the queue without touching the running task")
}

func TestSchedulerIdleTaskFiresOnceQueueDrains(t *testing.T) {
	s := New(1, nil)
	s.TransitionRunning()
	s.StartWorkers()
	defer s.Terminate()

	idleReaction := threading.New(threading.Identifiers{}, true)
	fired := make(chan struct{}, 1)
	idleReaction.SetFactory(func(bool, any) (*threading.ReactionTask, threading.Outcome) {
		task := threading.NewTask(idleReaction, 0, threading.PoolDescriptor{}, nil, threading.RunInlineNeutral)
		task.Callback = func() error {
			select {
			case fired <- struct{}{}:
			default:
			}
			return nil
		}
		return task, threading.OutcomeSubmitted
	})
	s.AddIdleTask(idleReaction, "")

	work := newTask(t, 0, threading.PoolDescriptor{ID: "w", Concurrency: 1, CountsForIdle: true}, nil, nil)
	s.Submit(work, false)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("idle task never fired after its pool drained")
	}
}
