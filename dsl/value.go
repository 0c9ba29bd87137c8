package dsl

import (
	"context"
	"reflect"
	"sync"

	"github.com/Fastcode/nuclear-go/internal/threading"
)

// genValue is what a get hook stores under its key in a task's Data
// map: the resolved value plus whether resolution actually succeeded
// (an Optional word's inner fetch can fail while the word itself still
// satisfies the composer's required-get gate).
type genValue struct {
	value any
	ok    bool
}

// GetWord[T] is both a Word (it contributes bind/get hooks) and a typed
// accessor: call Get(ctx) from inside the bound reaction's callback to
// read the snapshot this word captured when the task was created.
//
// This is the Go stand-in for the C++ template TaskGenerator's
// heterogeneous argument binding: instead of reflecting over the
// callback's parameter list, each word IS the handle the callback reads
// through, keyed on its own pointer identity in task.Data.
type GetWord[T any] struct {
	typ      reflect.Type
	trigger  bool // true for Trigger[T] (also subscribes/binds); false for With[T] (get-only)
	required bool
	fetch    func(gc GetContext) (T, bool)
}

func newGetWord[T any](trigger, required bool, fetch func(gc GetContext) (T, bool)) *GetWord[T] {
	var zero T
	return &GetWord[T]{
		typ:      reflect.TypeOf(zero),
		trigger:  trigger,
		required: required,
		fetch:    fetch,
	}
}

func defaultFetch[T any](gc GetContext, typ reflect.Type) (T, bool) {
	if gc.Override != nil && gc.Override.Type == typ {
		if v, ok := gc.Override.Value.(T); ok {
			return v, true
		}
	}
	if v, ok := gc.Store.Get(typ); ok {
		if t, ok := v.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// Trigger returns a word that both subscribes the reaction to T (its
// presence causes the reaction to fire on every emit of T) and binds T
// as a required get: the callback cannot run without a value.
func Trigger[T any]() *GetWord[T] {
	w := newGetWord[T](true, true, nil)
	w.fetch = func(gc GetContext) (T, bool) { return defaultFetch[T](gc, w.typ) }
	return w
}

// With returns a word that binds T as a required get without
// subscribing: the reaction does not fire when T alone is emitted, but
// any firing reaction's task snapshot includes T's latest value (or
// fails with OutcomeMissingData if none has ever been emitted).
func With[T any]() *GetWord[T] {
	w := newGetWord[T](false, true, nil)
	w.fetch = func(gc GetContext) (T, bool) { return defaultFetch[T](gc, w.typ) }
	return w
}

// Get returns the value this word captured for the currently running
// task, read out of the context the reaction callback was invoked
// with. ok is false if ctx carries no task or the task was not created
// by a reaction this word was passed to.
func (w *GetWord[T]) Get(ctx context.Context) (T, bool) {
	var zero T
	task, ok := threading.TaskFrom(ctx)
	if !ok {
		return zero, false
	}
	gv, ok := task.Data[w]
	if !ok {
		return zero, false
	}
	v, _ := gv.value.(T)
	return v, gv.ok
}

func (w *GetWord[T]) hooks() hookSet {
	hs := hookSet{
		getKey:      w,
		getRequired: w.required,
		get: func(gc GetContext) (any, bool) {
			v, ok := w.fetch(gc)
			return v, ok
		},
	}
	if w.trigger {
		hs.bind = func(bc BindContext, reaction *threading.Reaction) func() {
			unsub := bc.Store.Subscribe(w.typ, reaction)
			return unsub
		}
	}
	return hs
}

// OptionalWord[T] wraps a GetWord[T] (typically Trigger[T]() or
// With[T]()) so a missing value no longer blocks task creation; the
// callback still observes the miss via Get's second return value.
type OptionalWord[T any] struct {
	inner *GetWord[T]
}

// Optional relaxes inner so the reaction can still fire (and its other
// words still resolve) even if inner has no value yet.
func Optional[T any](inner *GetWord[T]) *OptionalWord[T] {
	return &OptionalWord[T]{inner: inner}
}

func (w *OptionalWord[T]) Get(ctx context.Context) (T, bool) {
	var zero T
	task, ok := threading.TaskFrom(ctx)
	if !ok {
		return zero, false
	}
	gv, ok := task.Data[w]
	if !ok {
		return zero, false
	}
	v, _ := gv.value.(T)
	return v, gv.ok
}

func (w *OptionalWord[T]) hooks() hookSet {
	hs := w.inner.hooks()
	hs.getKey = w
	hs.getRequired = false
	hs.get = func(gc GetContext) (any, bool) {
		return w.inner.fetch(gc)
	}
	return hs
}

// LastWord[T] keeps a bounded, reaction-owned ring buffer of the most
// recent N values observed for T, carried across firings that don't
// themselves produce a new T (spec.md's "transient carry-over" data
// accessor). State lives on the word itself since a Reactor.On(...)
// call constructs it exactly once and every task created from the
// resulting reaction shares the same word instance.
type LastWord[T any] struct {
	inner *GetWord[T]
	n     int

	mu  sync.Mutex
	buf []T
}

// Last wraps inner so each resolved snapshot is the up-to-n most
// recently seen values, oldest first, instead of a single value.
func Last[T any](n int, inner *GetWord[T]) *LastWord[T] {
	if n < 1 {
		n = 1
	}
	return &LastWord[T]{inner: inner, n: n}
}

func (w *LastWord[T]) Get(ctx context.Context) ([]T, bool) {
	task, ok := threading.TaskFrom(ctx)
	if !ok {
		return nil, false
	}
	gv, ok := task.Data[w]
	if !ok {
		return nil, false
	}
	v, _ := gv.value.([]T)
	return v, gv.ok
}

func (w *LastWord[T]) hooks() hookSet {
	hs := w.inner.hooks()
	hs.getKey = w
	hs.getRequired = false
	hs.get = func(gc GetContext) (any, bool) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if v, ok := w.inner.fetch(gc); ok {
			w.buf = append(w.buf, v)
			if len(w.buf) > w.n {
				w.buf = w.buf[len(w.buf)-w.n:]
			}
		}
		out := make([]T, len(w.buf))
		copy(out, w.buf)
		return out, len(out) > 0
	}
	return hs
}
