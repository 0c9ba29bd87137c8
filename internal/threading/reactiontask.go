package threading

import (
	"sort"
	"time"

	"github.com/Fastcode/nuclear-go/internal/ids"
)

// Statistics is the optional record attached to a ReactionTask,
// re-emitted as its own message (unless the parent reaction's EmitStats
// is false) once the task finishes. Fields mirror spec.md's
// `statistics: optional record`.
type Statistics struct {
	// TraceID correlates one task's Statistics/ReactionEvent/LogMessage
	// trio across process boundaries (e.g. a distributed trace sink);
	// minted fresh per task by the dsl composer.
	TraceID      string
	ReactionID   uint64
	TaskID       uint64
	ReactorName  string
	Label        string
	DSL          string
	Callback     string
	CreatedAt    time.Time
	StartedAt    time.Time
	FinishedAt   time.Time
	Panic        any
	Blocked      bool
	MissingData  bool
}

// ScopeGuard is entered before a task's callback runs and exited
// (its returned cleanup, if non-nil, invoked) immediately after,
// regardless of whether the callback panicked. This realizes spec.md's
// `scope: (task) -> scoped guard` hook, e.g. TaskScope<G> markers.
type ScopeGuard func() (cleanup func())

// ReactionTask is one scheduled execution of a Reaction with resolved
// priority/pool/groups and a data snapshot already captured in Callback.
//
// Grounded on original_source/src/threading/ReactionTask.cpp: creation
// increments the parent's active-task counter, destruction (here,
// completion of Run) decrements it.
type ReactionTask struct {
	ID     uint64
	Parent *Reaction

	Priority  int32
	Pool      PoolDescriptor
	Groups    []GroupDescriptor
	RunInline RunInline

	Stats *Statistics

	PreRun  []func()
	PostRun []func()
	Scopes  []ScopeGuard

	// Data holds the per-task snapshot values produced by get hooks,
	// keyed by the Word instance that produced them (a *dsl.GetWord[T]
	// pointer, opaque to this package). Callback closures read from it
	// via threading.TaskFrom + this map rather than capturing typed
	// values directly, so the DSL composer can build Callback before
	// the snapshot exists.
	Data map[any]any

	// Callback is the user reaction body with its data snapshot already
	// bound in by the factory's get hooks.
	Callback func() error
}

// NewTask allocates a ReactionTask, assigns it a monotonic id, sorts its
// groups by ID (spec.md 4.5: "groups are sorted by id before
// acquisition to prevent circular wait"), and increments the parent
// reaction's active-task counter.
func NewTask(parent *Reaction, priority int32, pool PoolDescriptor, groups []GroupDescriptor, runInline RunInline) *ReactionTask {
	sorted := append([]GroupDescriptor(nil), groups...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	t := &ReactionTask{
		ID:        ids.Tasks.Next(),
		Parent:    parent,
		Priority:  priority,
		Pool:      pool,
		Groups:    sorted,
		RunInline: runInline,
	}
	parent.IncActiveTasks()
	return t
}

// Run executes pre_run, the callback (with any scope guards entered
// around it and a panic recovered into Stats.Panic), then post_run, and
// finally decrements the parent's active-task counter. Run never lets a
// panic from the callback escape, so the caller (a pool worker or an
// inline emitter) gets control back; pre_run, post_run and scope hooks
// run outside that recover.
func (t *ReactionTask) Run() {
	defer t.Parent.DecActiveTasks()

	if t.Stats != nil {
		t.Stats.StartedAt = time.Now()
	}

	for _, fn := range t.PreRun {
		fn()
	}

	cleanups := make([]func(), 0, len(t.Scopes))
	for _, enter := range t.Scopes {
		if cleanup := enter(); cleanup != nil {
			cleanups = append(cleanups, cleanup)
		}
	}

	func() {
		defer func() {
			if r := recover(); r != nil && t.Stats != nil {
				t.Stats.Panic = r
			}
		}()
		if t.Callback != nil {
			_ = t.Callback()
		}
	}()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	for _, fn := range t.PostRun {
		fn()
	}

	if t.Stats != nil {
		t.Stats.FinishedAt = time.Now()
	}
}

// Less implements the ScheduledWork ordering from spec.md: higher
// priority first, and among ties the older (smaller id) task first.
func Less(a, b *ReactionTask) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.ID < b.ID
}
