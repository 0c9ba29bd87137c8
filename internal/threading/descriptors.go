// Package threading holds the Reaction/ReactionTask binding machinery:
// the per-reaction identity and factory (Reaction), and the per-execution
// databound unit of work (ReactionTask), along with the small descriptor
// types the scheduler keys pools and groups by.
//
// This mirrors NUClear's threading::Reaction / threading::ReactionTask
// (see original_source/src/threading/Reaction.hpp), generalized from the
// C++ template-bound TaskGenerator to a Go closure factory built once at
// bind time by the dsl package's composer.
package threading

// RunInline describes how a task's run_inline hook resolved. Neutral
// words yield to any other word's opinion; Always and Never are
// terminal and conflict fatally when both appear (checked by the DSL
// composer at bind time, not here).
type RunInline int

const (
	RunInlineNeutral RunInline = iota
	RunInlineAlways
	RunInlineNever
)

// PoolDescriptor names a thread pool. Descriptors are deduped by ID: two
// descriptors sharing an ID refer to the same pool, so Concurrency and
// CountsForIdle should agree across every word that produces one for a
// given ID (the scheduler uses whichever it sees first when a pool is
// created lazily).
type PoolDescriptor struct {
	ID            string
	Concurrency   int
	CountsForIdle bool
}

// DefaultPoolID is the pool used when no word supplies a pool hook.
const DefaultPoolID = ""

// MainThreadPoolID is reserved for the single worker bound to the
// goroutine that calls PowerPlant.Start.
const MainThreadPoolID = "__main_thread__"

// GroupDescriptor names a mutual-exclusion token pool. Deduped by ID;
// the token count is fixed at the point of first use, matching
// spec.md's GroupDescriptor.
type GroupDescriptor struct {
	ID     string
	Tokens int
}
