package threading

import "context"

// ctxKey is the unexported context key for the current ReactionTask.
//
// This realizes spec.md's "at most one ReactionTask is the current task
// on any given thread" without goroutine-local storage: Go has none, so
// the current task travels explicitly as a context.Context value passed
// into the user callback, and into any Emit call the callback makes in
// turn. See SPEC_FULL.md §5 for the rationale.
type ctxKey struct{}

// WithTask returns a context carrying t as the current ReactionTask.
func WithTask(ctx context.Context, t *ReactionTask) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// TaskFrom extracts the current ReactionTask from ctx, if any.
func TaskFrom(ctx context.Context) (*ReactionTask, bool) {
	t, ok := ctx.Value(ctxKey{}).(*ReactionTask)
	return t, ok
}
