package nuclear

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fastcode/nuclear-go/dsl"
	"github.com/Fastcode/nuclear-go/internal/messages"
)

type tickMsg struct{ N int }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DefaultPoolConcurrency = 4
	cfg.ShutdownGrace = 2 * time.Second
	return cfg
}

// runStarted starts pp.Start on its own goroutine and returns a function
// that triggers Shutdown and waits for Start to return, bounding the whole
// scenario so a broken test fails fast instead of hanging the suite.
func runStarted(t *testing.T, pp *PowerPlant) (stop func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pp.Start()
	}()
	// give Start a moment to reach Running before the scenario submits work
	require.Eventually(t, pp.Running, time.Second, time.Millisecond)

	return func() {
		pp.Shutdown()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("PowerPlant.Start never returned after Shutdown")
		}
	}
}

func TestStartEmitsStartupThenCommandLineArguments(t *testing.T) {
	pp := New(testConfig(), nil, []string{"a", "b"})

	var mu sync.Mutex
	var order []string
	pp.Install("watcher", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		r.On(func(ctx context.Context) {
			mu.Lock()
			order = append(order, "startup")
			mu.Unlock()
		}, dsl.Startup())
		r.On(func(ctx context.Context) {
			mu.Lock()
			order = append(order, "args")
			mu.Unlock()
		}, dsl.Trigger[messages.CommandLineArguments]())
		return r
	})

	stop := runStarted(t, pp)
	time.Sleep(20 * time.Millisecond)
	stop()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, order)
	assert.Equal(t, "startup", order[0])
}

func TestSingleReactionSerializesItsOwnTasks(t *testing.T) {
	pp := New(testConfig(), nil, nil)

	var active atomic.Int32
	var sawOverlap atomic.Bool
	var finished atomic.Int32

	pp.Install("single", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		r.On(func(ctx context.Context) {
			if active.Add(1) > 1 {
				sawOverlap.Store(true)
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
			finished.Add(1)
		}, dsl.Trigger[tickMsg](), dsl.Single())
		return r
	})

	stop := runStarted(t, pp)
	env := &Environment{Name: "emitter", pp: pp}
	for i := 0; i < 5; i++ {
		env.EmitLocal(tickMsg{N: i})
	}
	require.Eventually(t, func() bool { return finished.Load() >= 1 }, time.Second, 5*time.Millisecond)
	stop()

	assert.False(t, sawOverlap.Load(), "Single must prevent overlapping executions of the same reaction")
}

func TestGroupSerializesAcrossTwoDistinctReactions(t *testing.T) {
	pp := New(testConfig(), nil, nil)

	var active atomic.Int32
	var sawOverlap atomic.Bool
	var wg sync.WaitGroup
	wg.Add(2)

	body := func(ctx context.Context) {
		defer wg.Done()
		if active.Add(1) > 1 {
			sawOverlap.Store(true)
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
	}

	pp.Install("a", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		r.On(body, dsl.Trigger[tickMsg](), dsl.Group("shared", 1))
		return r
	})
	pp.Install("b", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		r.On(body, dsl.Trigger[tickMsg](), dsl.Group("shared", 1))
		return r
	})

	stop := runStarted(t, pp)
	env := &Environment{Name: "emitter", pp: pp}
	env.EmitLocal(tickMsg{N: 1})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("both group members never finished")
	}
	stop()

	assert.False(t, sawOverlap.Load(), "two reactions sharing a Group must never run concurrently")
}

func TestInlineReactionRunsSynchronouslyOnEmit(t *testing.T) {
	pp := New(testConfig(), nil, nil)

	var ran atomic.Bool
	pp.Install("inline", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		r.On(func(ctx context.Context) {
			ran.Store(true)
		}, dsl.Trigger[tickMsg](), dsl.Inline())
		return r
	})

	stop := runStarted(t, pp)
	defer stop()

	env := &Environment{Name: "emitter", pp: pp}
	env.EmitInline(tickMsg{N: 1})
	assert.True(t, ran.Load(), "an Inline reaction requested inline must have already run by the time EmitInline returns")
}

func TestWatchdogFiresAfterTimeoutWithoutService(t *testing.T) {
	pp := New(testConfig(), nil, nil)

	fired := make(chan struct{}, 1)
	pp.Install("watchdog", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		wd := dsl.Watchdog("session", "peer-1", 30*time.Millisecond)
		r.On(func(ctx context.Context) {
			select {
			case fired <- struct{}{}:
			default:
			}
		}, wd)
		return r
	})

	stop := runStarted(t, pp)
	defer stop()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog never fired")
	}
}

func TestShutdownDrainsQueuedWorkBeforeTerminating(t *testing.T) {
	pp := New(testConfig(), nil, nil)

	var completed atomic.Int32
	block := make(chan struct{})
	pp.Install("drainer", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		r.On(func(ctx context.Context) {
			<-block
			completed.Add(1)
		}, dsl.Trigger[tickMsg](), dsl.Pool("drain", 1, true))
		return r
	})

	stop := runStarted(t, pp)
	env := &Environment{Name: "emitter", pp: pp}
	env.EmitLocal(tickMsg{N: 1})
	env.EmitLocal(tickMsg{N: 2})

	time.Sleep(10 * time.Millisecond)
	close(block)
	stop()

	assert.EqualValues(t, 2, completed.Load(), "a graceful shutdown must let already-queued tasks finish")
}

func TestStartReturnsErrAlreadyStartedOnSecondCall(t *testing.T) {
	pp := New(testConfig(), nil, nil)
	stop := runStarted(t, pp)
	defer stop()

	err := pp.Start()
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestSyncSerializesAcrossTwoReactionsByTypeIdentity(t *testing.T) {
	pp := New(testConfig(), nil, nil)

	var active atomic.Int32
	var sawOverlap atomic.Bool
	var wg sync.WaitGroup
	wg.Add(2)

	body := func(ctx context.Context) {
		defer wg.Done()
		if active.Add(1) > 1 {
			sawOverlap.Store(true)
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
	}

	pp.Install("a", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		r.On(body, dsl.Trigger[tickMsg](), dsl.Sync[tickMsg]())
		return r
	})
	pp.Install("b", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		r.On(body, dsl.Trigger[tickMsg](), dsl.Sync[tickMsg]())
		return r
	})

	stop := runStarted(t, pp)
	env := &Environment{Name: "emitter", pp: pp}
	env.EmitLocal(tickMsg{N: 1})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("both Sync members never finished")
	}
	stop()

	assert.False(t, sawOverlap.Load(), "two reactions sharing Sync[T] must never run concurrently")
}

func TestShutdownBoundReactionDefersUntilNormalPriorityWorkDrains(t *testing.T) {
	pp := New(testConfig(), nil, nil)

	var mu sync.Mutex
	var order []string
	block := make(chan struct{})

	pp.Install("worker", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		r.On(func(ctx context.Context) {
			<-block
			mu.Lock()
			order = append(order, "normal")
			mu.Unlock()
		}, dsl.Trigger[tickMsg](), dsl.Pool("shared", 1, true))
		r.On(func(ctx context.Context) {
			mu.Lock()
			order = append(order, "shutdown")
			mu.Unlock()
		}, dsl.Shutdown(), dsl.Pool("shared", 1, true))
		return r
	})

	stop := runStarted(t, pp)
	env := &Environment{Name: "emitter", pp: pp}
	env.EmitLocal(tickMsg{N: 1})
	env.EmitLocal(tickMsg{N: 2})
	env.EmitLocal(tickMsg{N: 3})

	// Let the three normal-priority tasks queue up (one running, blocked
	// on block; two behind it) before Shutdown enqueues behind them too.
	time.Sleep(20 * time.Millisecond)

	stopDone := make(chan struct{})
	go func() { stop(); close(stopDone) }()
	time.Sleep(20 * time.Millisecond) // let Shutdown's emit enqueue its IDLE-priority task
	close(block)

	select {
	case <-stopDone:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown never returned")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 4)
	assert.Equal(t, []string{"normal", "normal", "normal", "shutdown"}, order,
		"a Shutdown-bound reaction must default to IDLE priority and run only after queued normal-priority work drains")
}

func TestEmitWatchdogServicesWithoutFiringAndIsVisibleToOtherSubscribers(t *testing.T) {
	pp := New(testConfig(), nil, nil)

	fired := make(chan struct{}, 1)
	serviced := make(chan messages.ServiceWatchdog, 16)

	pp.Install("watchdog", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		wd := dsl.Watchdog("session", "peer-1", 60*time.Millisecond)
		r.On(func(ctx context.Context) {
			select {
			case fired <- struct{}{}:
			default:
			}
		}, wd)
		return r
	})
	pp.Install("observer", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		sw := dsl.Trigger[messages.ServiceWatchdog]()
		r.On(func(ctx context.Context) {
			if v, ok := sw.Get(ctx); ok {
				serviced <- v
			}
		}, sw)
		return r
	})

	stop := runStarted(t, pp)
	env := &Environment{Name: "servicer", pp: pp}

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		env.EmitWatchdog(messages.ServiceWatchdog{Group: "session", Key: "peer-1"})
		time.Sleep(20 * time.Millisecond)
	}
	stop()

	select {
	case <-fired:
		t.Fatal("watchdog fired despite being serviced faster than its timeout")
	default:
	}
	select {
	case <-serviced:
	default:
		t.Fatal("EmitWatchdog must publish ServiceWatchdog to every other subscriber, not just rearm the watchdog")
	}
}

func TestForceShutdownDropsQueuedWorkButLetsRunningTaskFinish(t *testing.T) {
	pp := New(testConfig(), nil, nil)

	var started atomic.Int32
	var completed atomic.Int32
	block := make(chan struct{})

	pp.Install("forcer", func(env *Environment) Reactor {
		r := &BaseReactor{Environment: env}
		r.On(func(ctx context.Context) {
			started.Add(1)
			<-block
			completed.Add(1)
		}, dsl.Trigger[tickMsg](), dsl.Pool("force", 1, true))
		return r
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pp.Start()
	}()
	require.Eventually(t, pp.Running, time.Second, time.Millisecond)

	env := &Environment{Name: "emitter", pp: pp}
	env.EmitLocal(tickMsg{N: 1}) // grabs the pool's single worker, blocks
	env.EmitLocal(tickMsg{N: 2}) // queues behind it

	require.Eventually(t, func() bool { return started.Load() == 1 }, time.Second, time.Millisecond)

	pp.ForceShutdown()
	close(block)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start never returned after ForceShutdown")
	}

	assert.EqualValues(t, 1, completed.Load(), "ForceShutdown must let the already-running task finish")
	assert.EqualValues(t, 1, started.Load(), "ForceShutdown must drop the still-queued task rather than starting it")
}
