package threading

import (
	"sync"
	"sync/atomic"

	"github.com/Fastcode/nuclear-go/internal/ids"
)

// Identifiers is the string identification bundle carried by a Reaction,
// used for logging, statistics, and debugging (spec.md's
// `identifiers: { label, reactor_name, dsl_description, callback_description }`).
type Identifiers struct {
	Label               string
	ReactorName         string
	DSLDescription      string
	CallbackDescription string
}

// Outcome describes what happened when a Reaction's factory was asked
// to produce a task for a firing emit.
type Outcome int

const (
	// OutcomeSubmitted means a ReactionTask was produced and should be
	// handed to the scheduler.
	OutcomeSubmitted Outcome = iota
	// OutcomeBlocked means a precondition hook (Buffer/Single) rejected
	// task creation.
	OutcomeBlocked
	// OutcomeMissingData means a non-Optional get hook could not
	// resolve its value.
	OutcomeMissingData
	// OutcomeDisabled means the reaction is currently disabled.
	OutcomeDisabled
)

// Factory produces a databound ReactionTask for one firing, or reports
// why it could not. requestInline mirrors the C++ get_task's
// request_inline parameter: true when the emit that triggered this
// factory call asked for inline execution. emitCtx is an opaque value
// (a *dsl.Override in practice) carrying the current-value shadow for
// the message type being dispatched; this package never looks inside
// it, it is threaded straight through to the dsl package's get hooks.
type Factory func(requestInline bool, emitCtx any) (*ReactionTask, Outcome)

// Reaction is a binding: an identity, an enable flag, an active-task
// counter referenced by Buffer/Single preconditions, and the factory
// built once by the DSL composer at bind time.
//
// Grounded on original_source/src/threading/Reaction.hpp: the Go
// realization replaces std::atomic<bool>/std::atomic<int> with
// sync/atomic, and the C++ vector<function<void(Reaction&)>> unbinders
// with a mutex-guarded slice plus an idempotency flag (unbind is
// required to be safe to call more than once).
type Reaction struct {
	ID uint64

	Identifiers Identifiers

	// EmitStats is false for reactions whose own topic is itself a
	// statistics message, to avoid an infinite statistics-about-
	// statistics loop.
	EmitStats bool

	enabled     atomic.Bool
	activeTasks atomic.Int32

	factory Factory

	mu        sync.Mutex
	unbound   bool
	unbinders []func()
}

// New constructs a Reaction with no factory yet. The composer needs a
// live *Reaction to close over before it can build the factory (bind
// hooks and precondition/priority/pool hooks all take the reaction as
// an argument), so construction is two-phase: New, then SetFactory.
// Reactions are always created enabled.
func New(identifiers Identifiers, emitStats bool) *Reaction {
	r := &Reaction{
		ID:          ids.Reactions.Next(),
		Identifiers: identifiers,
		EmitStats:   emitStats,
	}
	r.enabled.Store(true)
	return r
}

// SetFactory attaches the composed factory. Called exactly once, right
// after New, before the reaction is reachable by any emitter.
func (r *Reaction) SetFactory(f Factory) { r.factory = f }

// Enabled reports whether this reaction currently accepts new tasks.
func (r *Reaction) Enabled() bool { return r.enabled.Load() }

// SetEnabled toggles whether GetTask will produce tasks. Disabling does
// not affect tasks already created.
func (r *Reaction) SetEnabled(v bool) { r.enabled.Store(v) }

// ActiveTasks returns the number of tasks currently alive for this
// reaction (created but not yet finished).
func (r *Reaction) ActiveTasks() int32 { return r.activeTasks.Load() }

// IncActiveTasks is called by a ReactionTask at creation time.
func (r *Reaction) IncActiveTasks() int32 { return r.activeTasks.Add(1) }

// DecActiveTasks is called when a ReactionTask is destroyed (its
// callback has returned or panicked).
func (r *Reaction) DecActiveTasks() int32 { return r.activeTasks.Add(-1) }

// GetTask invokes the factory to attempt to create a new task for this
// reaction. If the reaction is disabled it short-circuits with
// OutcomeDisabled without calling the factory (and without counting as
// a blocked/missing-data event).
func (r *Reaction) GetTask(requestInline bool, emitCtx any) (*ReactionTask, Outcome) {
	if !r.Enabled() {
		return nil, OutcomeDisabled
	}
	return r.factory(requestInline, emitCtx)
}

// AddUnbinder registers a closure to run exactly once when Unbind is
// called. Unbinders are run in registration order.
func (r *Reaction) AddUnbinder(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unbound {
		// Already unbound: honour the call immediately so a Word bound
		// after the fact doesn't leak into an external store forever.
		fn()
		return
	}
	r.unbinders = append(r.unbinders, fn)
}

// Unbind runs every registered unbinder exactly once. Idempotent:
// calling it a second time is a no-op, matching spec.md's invariant.
func (r *Reaction) Unbind() {
	r.mu.Lock()
	if r.unbound {
		r.mu.Unlock()
		return
	}
	r.unbound = true
	unbinders := r.unbinders
	r.unbinders = nil
	r.mu.Unlock()

	r.SetEnabled(false)
	for _, fn := range unbinders {
		fn()
	}
}

// IsUnbound reports whether Unbind has already run.
func (r *Reaction) IsUnbound() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unbound
}
