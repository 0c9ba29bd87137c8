package nuclear

import (
	"github.com/Fastcode/nuclear-go/dsl"
	"github.com/Fastcode/nuclear-go/internal/threading"
)

// Handle is the external view of a bound reaction: spec.md's
// ReactionHandle (enable/disable/enabled/unbind, idempotent).
type Handle struct {
	reaction *threading.Reaction
}

// Enable re-activates a previously disabled reaction.
func (h *Handle) Enable() { h.reaction.SetEnabled(true) }

// Disable stops new tasks from being created for this reaction without
// unbinding it (already-running tasks are unaffected).
func (h *Handle) Disable() { h.reaction.SetEnabled(false) }

// Enabled reports whether this reaction currently accepts new tasks.
func (h *Handle) Enabled() bool { return h.reaction.Enabled() }

// Unbind permanently disables the reaction and runs every bind hook's
// unbind closure, in registration order. Safe to call more than once.
func (h *Handle) Unbind() { h.reaction.Unbind() }

// Reactor is what Install expects back from a reactor constructor: a
// hook to unbind every reaction the reactor owns, called in PowerPlant
// shutdown's reactor-teardown pass.
type Reactor interface {
	Shutdown()
}

// BaseReactor is embedded by concrete reactor types to get identity,
// On(...) binding, and ordered-unbind-on-shutdown for free, mirroring
// spec.md §4.6's fixed identity + owned-handles reactor shape.
type BaseReactor struct {
	*Environment

	handles []*Handle
}

// On composes words into a bound reaction and records the resulting
// Handle so Shutdown can unbind it later. callback runs once per task
// created by this reaction, on whichever pool/goroutine the scheduler
// assigns it to; read word values back out of ctx via each word's
// Get method. Reactors should call this, not Environment.on directly,
// so Shutdown can unwind everything they bound.
func (r *BaseReactor) On(callback dsl.Callback, words ...dsl.Word) (*Handle, error) {
	h, err := r.Environment.on(callback, words)
	if err != nil {
		return nil, err
	}
	r.handles = append(r.handles, h)
	return h, nil
}

// Shutdown unbinds every reaction this reactor owns, in the order they
// were created (spec.md: "unbind in order on destruction").
func (r *BaseReactor) Shutdown() {
	handles := r.handles
	r.handles = nil
	for _, h := range handles {
		h.Unbind()
	}
}
