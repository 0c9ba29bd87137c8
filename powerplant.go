package nuclear

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Fastcode/nuclear-go/dsl"
	"github.com/Fastcode/nuclear-go/internal/chrono"
	"github.com/Fastcode/nuclear-go/internal/collab"
	"github.com/Fastcode/nuclear-go/internal/messages"
	"github.com/Fastcode/nuclear-go/internal/scheduler"
	"github.com/Fastcode/nuclear-go/internal/store"
	"github.com/Fastcode/nuclear-go/internal/threading"
)

// PowerPlant is the process-wide runtime: one TypeStore, one Scheduler,
// one ChronoController, and the reactors installed onto it, per
// spec.md §4.7.
type PowerPlant struct {
	cfg    Config
	logger Logger
	args   []string

	store     *store.Store
	scheduler *scheduler.Scheduler
	chrono    collab.ChronoController
	io        collab.IOController
	network   collab.NetworkController
	watchdogs *watchdogRegistry

	mu       sync.Mutex
	reactors []Reactor

	startOnce sync.Once
	started   atomic.Bool
}

// New constructs a PowerPlant. A nil Logger defaults to a slog text
// handler writing to stderr; args is recorded and re-emitted as
// messages.CommandLineArguments right after Startup.
func New(cfg Config, log Logger, args []string) *PowerPlant {
	if log == nil {
		log = NewSlogLogger(nil)
	}
	sched := scheduler.New(cfg.DefaultPoolConcurrency, schedulerLogAdapter{log})
	pp := &PowerPlant{
		cfg:       cfg,
		logger:    log,
		args:      args,
		store:     store.New(),
		scheduler: sched,
		chrono:    chrono.New(),
		io:        NewNoopIO(),
		network:   NewLoopbackNetwork(),
		watchdogs: newWatchdogRegistry(),
	}
	return pp
}

// WithNetwork overrides the default LoopbackNetwork. Call before
// Install-ing any reactor that uses Network/UDP words.
func (pp *PowerPlant) WithNetwork(n collab.NetworkController) { pp.network = n }

// WithIO overrides the default no-op IOController.
func (pp *PowerPlant) WithIO(io collab.IOController) { pp.io = io }

// Install constructs a reactor via ctor, handing it a fresh Environment
// bound to this PowerPlant, and records it for the reactor-teardown
// pass of Shutdown.
func (pp *PowerPlant) Install(name string, ctor func(*Environment) Reactor) Reactor {
	env := &Environment{Name: name, pp: pp}
	r := ctor(env)
	pp.mu.Lock()
	pp.reactors = append(pp.reactors, r)
	pp.mu.Unlock()
	return r
}

func (pp *PowerPlant) install(env *Environment, callback dsl.Callback, words []dsl.Word) (*Handle, error) {
	compiled, err := dsl.Compose(pp.store, callback, words)
	if err != nil {
		return nil, err
	}
	env.count++
	identifiers := threading.Identifiers{
		Label:       fmt.Sprintf("%s#%d", env.Name, env.count),
		ReactorName: env.Name,
	}
	reaction := threading.New(identifiers, compiled.EmitStats)
	reaction.SetFactory(compiled.Build(reaction))

	bc := dsl.BindContext{
		Store:            pp.store,
		Chrono:           pp.chrono,
		IO:               pp.io,
		Network:          pp.network,
		Reactor:          dsl.ReactorInfo{Name: env.Name, LogLevel: env.LogLevel},
		Submit:           pp.submitForReaction,
		RegisterWatchdog: pp.watchdogs.register,
	}
	compiled.Bind(bc, reaction)

	return &Handle{reaction: reaction}, nil
}

func (pp *PowerPlant) submitForReaction(reaction *threading.Reaction, requestInline bool) {
	task, outcome := reaction.GetTask(requestInline, nil)
	pp.handleOutcome(reaction, task, outcome, requestInline)
}

// emit is the Local/Inline scope entry point: it publishes msg to the
// TypeStore and offers every current subscriber a task, installing an
// Override so get hooks racing this dispatch see msg rather than
// whatever Set them next.
func (pp *PowerPlant) emit(msg any, requestInline bool) {
	t := reflect.TypeOf(msg)
	pp.store.Set(t, msg)
	override := &dsl.Override{Type: t, Value: msg}
	for _, sub := range pp.store.Subscribers(t) {
		pp.fireSubscriber(sub, requestInline, override)
	}
}

// fireSubscriber recovers a panic from a single subscriber's factory
// call so one misbehaving reaction can't stop its siblings from
// running, per spec.md §7's emit-dispatch panic isolation.
func (pp *PowerPlant) fireSubscriber(reaction *threading.Reaction, requestInline bool, override *dsl.Override) {
	defer func() {
		if r := recover(); r != nil {
			pp.logger.Error("emit dispatch panic", "reaction", reaction.ID, "panic", r)
		}
	}()
	task, outcome := reaction.GetTask(requestInline, override)
	pp.handleOutcome(reaction, task, outcome, requestInline)
}

func (pp *PowerPlant) handleOutcome(reaction *threading.Reaction, task *threading.ReactionTask, outcome threading.Outcome, requestInline bool) {
	switch outcome {
	case threading.OutcomeSubmitted:
		if reaction.EmitStats {
			task.PostRun = append(task.PostRun, func() {
				pp.emit(ReactionEvent{Kind: ReactionFinished, ReactionID: reaction.ID, Statistics: task.Stats}, false)
			})
		}
		pp.scheduler.Submit(task, requestInline)
	case threading.OutcomeBlocked:
		if reaction.EmitStats {
			pp.emit(ReactionEvent{Kind: ReactionBlocked, ReactionID: reaction.ID}, false)
		}
	case threading.OutcomeMissingData:
		if reaction.EmitStats {
			pp.emit(ReactionEvent{Kind: ReactionMissingData, ReactionID: reaction.ID}, false)
		}
	case threading.OutcomeDisabled:
	}
}

func (pp *PowerPlant) emitDelay(msg any, d time.Duration) {
	pp.chrono.Schedule(collab.ChronoTask{
		FireAt: time.Now().Add(d),
		Callback: func(time.Time) bool {
			pp.emit(msg, false)
			return false
		},
	})
}

// emitWatchdog is the Watchdog emit scope from spec.md's emit scope
// table: msg must be a messages.ServiceWatchdog, whose (Group, Key)
// looks up and rearms every matching dsl.Watchdog registration before
// msg is published under Local scope like any other emit, so other
// subscribers of messages.ServiceWatchdog still see the service.
func (pp *PowerPlant) emitWatchdog(msg any) {
	if sw, ok := msg.(messages.ServiceWatchdog); ok {
		pp.watchdogs.service(sw.Group, sw.Key)
	}
	pp.emit(msg, false)
}

func (pp *PowerPlant) emitNetwork(msg any, target string, reliable bool) error {
	if pp.network == nil {
		return ErrNotRunning
	}
	typeName := reflect.TypeOf(msg).String()
	payload, err := encodePayload(msg)
	if err != nil {
		return err
	}
	return pp.network.Emit(collab.NetworkEmit{
		Target:   target,
		TypeHash: typeHash(typeName),
		TypeName: typeName,
		Payload:  payload,
		Reliable: reliable,
	})
}

func (pp *PowerPlant) writeLog(reactorName, level, text string) {
	msg := LogMessage{Level: level, DisplayLevel: level, Text: text, ReactorName: reactorName, Time: time.Now()}
	switch level {
	case "debug":
		pp.logger.Debug(text, "reactor", reactorName)
	case "warn":
		pp.logger.Warn(text, "reactor", reactorName)
	case "error":
		pp.logger.Error(text, "reactor", reactorName)
	default:
		pp.logger.Info(text, "reactor", reactorName)
	}
	pp.emit(msg, true)
}

// Running reports whether Start has transitioned the scheduler into
// the Running state and Shutdown hasn't moved it past that yet.
func (pp *PowerPlant) Running() bool { return pp.scheduler.State() == scheduler.Running }

// Start transitions Created -> Running: it emits Startup then
// CommandLineArguments under Local scope, then spawns every known pool's
// workers (a pool that receives a task during those two emits already
// gets its workers from Submit), and finally runs the MainThread pool's
// worker loop on the calling
// goroutine -- Start blocks until Shutdown drains everything. A second
// call to Start returns ErrAlreadyStarted without touching any state.
func (pp *PowerPlant) Start() error {
	if !pp.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	pp.scheduler.TransitionRunning()

	pp.emit(messages.Startup{}, false)
	pp.emit(messages.CommandLineArguments{Args: pp.args}, false)

	pp.scheduler.StartWorkers()

	main := pp.scheduler.MainThreadPool()
	if main != nil {
		pp.scheduler.RunMainThread(main)
	}
	pp.scheduler.Wait()
	return nil
}

// Shutdown is spec.md §4.5.2's graceful shutdown(): it transitions
// Running -> ShuttingDown, emits Shutdown under Local scope
// (Shutdown-bound reactions enqueue at IDLE priority, so in-flight
// normal-priority work drains first), then waits unconditionally --
// with no timeout -- until every pool has drained before unbinding
// every installed reactor in installation order and terminating the
// scheduler. Every task queued before Shutdown was called is
// guaranteed to run to completion; callers that need a bound on how
// long that can take should race Shutdown against their own timer and
// call ForceShutdown if it fires, rather than Shutdown silently
// dropping work on their behalf.
func (pp *PowerPlant) Shutdown() {
	pp.scheduler.TransitionShuttingDown()
	pp.emit(messages.Shutdown{}, false)

	for !pp.scheduler.AllPoolsDrained() {
		time.Sleep(5 * time.Millisecond)
	}

	pp.teardown()
}

// ForceShutdown is spec.md §4.5.2's shutdown(force=true): it skips the
// Shutdown emit entirely (step 2 is never reached), drops every
// still-queued task via ForceDrop, and then unbinds reactors and
// terminates exactly like Shutdown. It never kills a callback already
// running -- those are allowed to finish -- but nothing still queued
// gets a chance to start. Safe to call concurrently with an
// in-progress Shutdown; whichever reaches scheduler.Terminate first
// wins, the other's Terminate call is a no-op.
func (pp *PowerPlant) ForceShutdown() {
	pp.scheduler.TransitionShuttingDown()
	pp.scheduler.ForceDrop()
	pp.teardown()
}

// teardown unbinds every installed reactor in installation order,
// closes the chrono controller, and terminates the scheduler. Shared
// tail of both Shutdown and ForceShutdown.
func (pp *PowerPlant) teardown() {
	pp.mu.Lock()
	reactors := pp.reactors
	pp.reactors = nil
	pp.mu.Unlock()
	for _, r := range reactors {
		r.Shutdown()
	}

	_ = pp.chrono.Close()
	pp.scheduler.Terminate()
}
