// Package dsl implements the reaction-binding DSL: the Word interface
// and its concrete words (Trigger, With, Buffer, Single, Priority,
// Pool, Group, Inline, Startup, Shutdown, Every, Watchdog, IO,
// Network), and the composer that fuses a list of Words into the single
// threading.Factory a Reactor.On(...) call installs on a Reaction.
//
// Grounded on original_source/src/dsl/ (the word headers define the
// same bind/get/precondition/priority/pool/group/run_inline/scope hook
// points this package mirrors) and, for the Go realization of "thread-
// local" state, on SPEC_FULL.md §5.
package dsl

import (
	"reflect"

	"github.com/Fastcode/nuclear-go/internal/collab"
	"github.com/Fastcode/nuclear-go/internal/store"
	"github.com/Fastcode/nuclear-go/internal/threading"
)

// ReactorInfo is the identity a bind hook may need (e.g. to label a
// chrono registration in logs).
type ReactorInfo struct {
	Name     string
	LogLevel int
}

// BindContext is handed to every Word's bind hook exactly once, at the
// moment a Reactor.On(...) call installs the composed Reaction.
type BindContext struct {
	Store   *store.Store
	Chrono  collab.ChronoController
	IO      collab.IOController
	Network collab.NetworkController
	Reactor ReactorInfo

	// Submit asks the reaction to produce a task for itself and hands
	// it to the scheduler, without any triggering emit. The timer-driven
	// words (Every, Watchdog) use this to fire their reaction from
	// outside the TypeStore's normal subscriber dispatch.
	Submit func(reaction *threading.Reaction, requestInline bool)

	// RegisterWatchdog records rearm against the (group, key) pair so a
	// later EmitWatchdog(ServiceWatchdog{Group, Key}) can find and call
	// it. Returns the closure that undoes the registration, passed to
	// reaction.AddUnbinder alongside the chrono unbind.
	RegisterWatchdog func(group string, key any, rearm func()) (unregister func())
}

// Override is the current-value shadow an emit dispatch installs while
// it walks a message type's subscriber list: get hooks for that type
// see Override.Value instead of racing store.Get against a subsequent
// Set. This is the Go substitute for NUClear's thread-local "current
// task" data override; see SPEC_FULL.md §5.
type Override struct {
	Type  reflect.Type
	Value any
}

// GetContext is handed to every Word's get hook when a factory call
// resolves a task's data snapshot.
type GetContext struct {
	Store    *store.Store
	Override *Override
}

// BindHook registers a Reaction with an external collaborator (the
// TypeStore, the ChronoController, ...) and returns the closure that
// undoes the registration, passed straight to reaction.AddUnbinder.
type BindHook func(bc BindContext, reaction *threading.Reaction) (unbind func())

// GetHook resolves one Word's contribution to a task's data snapshot.
// ok false means "no value available"; the composer treats that as
// OutcomeMissingData unless the get entry is marked optional.
type GetHook func(gc GetContext) (value any, ok bool)

// PreconditionHook gates task creation on the reaction's own state
// (Buffer/Single inspect ActiveTasks). All preconditions across every
// Word must pass (logical AND) for a task to be created.
type PreconditionHook func(reaction *threading.Reaction) bool

// PriorityHook resolves the priority a task should run at. Multiple
// Words supplying one is last-writer-wins by position in the On(...)
// call, matching spec.md's merge rule for single-valued hooks.
type PriorityHook func(reaction *threading.Reaction) int32

// PoolHook resolves the pool a task should be queued against.
// Last-writer-wins, same as PriorityHook.
type PoolHook func(reaction *threading.Reaction) threading.PoolDescriptor

// GroupHook contributes zero or more group descriptors. Union across
// every Word (deduped by GroupDescriptor.ID).
type GroupHook func(reaction *threading.Reaction) []threading.GroupDescriptor

// RunInlineHook resolves a Word's opinion on inline execution. Neutral
// yields to any other non-Neutral opinion; Always and Never both
// present at once is a fatal configuration error caught at bind time.
type RunInlineHook func(reaction *threading.Reaction) threading.RunInline

// PreRunHook and PostRunHook run once per task, before/after the
// callback (and its scopes), in Word order.
type PreRunHook func(reaction *threading.Reaction)
type PostRunHook func(reaction *threading.Reaction)

// ScopeHook produces a threading.ScopeGuard fresh for each task.
type ScopeHook func() threading.ScopeGuard

// hookSet is everything a single Word may contribute. A Word leaves a
// field nil/zero to decline that hook.
type hookSet struct {
	bind         BindHook
	get          GetHook
	getKey       any // identity used as the task.Data map key; nil if get is nil
	getRequired  bool
	precondition PreconditionHook
	priority     PriorityHook
	pool         PoolHook
	group        GroupHook
	runInline    RunInlineHook
	preRun       PreRunHook
	postRun      PostRunHook
	scope        ScopeHook
	noStats      bool
}

// Word is one DSL tag passed to Reactor.On(...). Concrete words are
// produced by the constructors in this package (Trigger, With, Buffer,
// Priority(PriorityNormal), Pool(...), Group(...), Inline, Startup(), Every(...),
// ...).
type Word interface {
	hooks() hookSet
}
