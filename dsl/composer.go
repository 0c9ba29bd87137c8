package dsl

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Fastcode/nuclear-go/internal/store"
	"github.com/Fastcode/nuclear-go/internal/threading"
)

// Callback is a reaction body, invoked once per created task with a
// context carrying that task (retrievable by any Word's Get method,
// and needed to re-enter Emit from inside the callback).
type Callback func(ctx context.Context)

// ErrNoBindWord is returned by Compose when none of the given Words
// contributed a bind hook: a reaction with nothing subscribing it to
// anything (no Trigger, Every, Watchdog, IO, ...) can never fire, which
// is treated as a configuration error rather than a silently inert
// reaction.
var ErrNoBindWord = errors.New("nuclear/dsl: On(...) requires at least one binding word (Trigger, Every, Watchdog, IO, ...)")

// ErrRunInlineConflict is returned by Compose when both an Always and a
// Never run_inline opinion appear in the same On(...) call (e.g.
// Inline() together with NotInline()).
var ErrRunInlineConflict = errors.New("nuclear/dsl: conflicting Inline()/NotInline() words in the same On(...) call")

// ErrNilCallback is returned by Compose when the reaction body passed
// to On(...) is nil.
var ErrNilCallback = errors.New("nuclear/dsl: On(...) callback must not be nil")

type getEntry struct {
	key      any
	hook     GetHook
	required bool
}

// Compiled is the product of Compose against a fixed BindContext: a
// factory builder and a bind runner, both still waiting on the live
// *threading.Reaction the composer's caller constructs next.
type Compiled struct {
	binds []BindHook
	build func(reaction *threading.Reaction) threading.Factory

	// EmitStats is false if any word (e.g. NoStats()) opted this
	// reaction out of ReactionEvent/LogMessage statistics emission,
	// breaking the loop a reaction bound to those very types would
	// otherwise cause.
	EmitStats bool
}

// Bind runs every contributing word's bind hook against reaction and
// registers each resulting unbind closure with it. Call this exactly
// once, right after SetFactory, before reaction is reachable by any
// emitter.
func (c *Compiled) Bind(bc BindContext, reaction *threading.Reaction) {
	for _, bind := range c.binds {
		if unbind := bind(bc, reaction); unbind != nil {
			reaction.AddUnbinder(unbind)
		}
	}
}

// Build returns the threading.Factory to install on reaction via
// SetFactory.
func (c *Compiled) Build(reaction *threading.Reaction) threading.Factory {
	return c.build(reaction)
}

// Compose fuses words into a Compiled program, applying the DSL's merge
// rules:
//   - bind/get: every word's hooks run, independently (a reaction may
//     bind many types at once).
//   - precondition: logical AND across every word.
//   - priority/pool: last-writer-wins by position in words.
//   - group: union, deduped by GroupDescriptor.ID.
//   - run_inline: Neutral yields to any other opinion; Always and Never
//     both present is a fatal configuration error.
//   - pre_run/post_run/scope: every word's hook runs, in Word order.
//
// priority/pool/group/run_inline are resolved once, at Build time (not
// per task), since their hooks take only the Reaction and never message
// data, so they can never disagree across firings of the same reaction.
func Compose(st *store.Store, callback Callback, words []Word) (*Compiled, error) {
	var (
		binds         []BindHook
		gets          []getEntry
		preconds      []PreconditionHook
		priorityHook  PriorityHook
		poolHook      PoolHook
		groupHooks    []GroupHook
		runInlineHooks []RunInlineHook
		preRuns       []PreRunHook
		postRuns      []PostRunHook
		scopes        []ScopeHook
		emitStats     = true
	)

	for _, w := range words {
		h := w.hooks()
		if h.noStats {
			emitStats = false
		}
		if h.bind != nil {
			binds = append(binds, h.bind)
		}
		if h.get != nil {
			gets = append(gets, getEntry{key: h.getKey, hook: h.get, required: h.getRequired})
		}
		if h.precondition != nil {
			preconds = append(preconds, h.precondition)
		}
		if h.priority != nil {
			priorityHook = h.priority
		}
		if h.pool != nil {
			poolHook = h.pool
		}
		if h.group != nil {
			groupHooks = append(groupHooks, h.group)
		}
		if h.runInline != nil {
			runInlineHooks = append(runInlineHooks, h.runInline)
		}
		if h.preRun != nil {
			preRuns = append(preRuns, h.preRun)
		}
		if h.postRun != nil {
			postRuns = append(postRuns, h.postRun)
		}
		if h.scope != nil {
			scopes = append(scopes, h.scope)
		}
	}

	if callback == nil {
		return nil, ErrNilCallback
	}
	if len(binds) == 0 {
		return nil, ErrNoBindWord
	}

	resolvedInline, err := foldRunInline(runInlineHooks)
	if err != nil {
		return nil, err
	}

	build := func(reaction *threading.Reaction) threading.Factory {
		priority := PriorityNormal
		if priorityHook != nil {
			priority = priorityHook(reaction)
		}
		pool := threading.PoolDescriptor{ID: threading.DefaultPoolID}
		if poolHook != nil {
			pool = poolHook(reaction)
		}
		groupSet := make(map[string]threading.GroupDescriptor)
		for _, g := range groupHooks {
			for _, d := range g(reaction) {
				groupSet[d.ID] = d
			}
		}
		groups := make([]threading.GroupDescriptor, 0, len(groupSet))
		for _, d := range groupSet {
			groups = append(groups, d)
		}

		return func(requestInline bool, emitCtx any) (*threading.ReactionTask, threading.Outcome) {
			for _, pc := range preconds {
				if !pc(reaction) {
					return nil, threading.OutcomeBlocked
				}
			}

			override, _ := emitCtx.(*Override)
			gc := GetContext{Store: st, Override: override}

			task := threading.NewTask(reaction, priority, pool, groups, resolvedInline)
			task.Data = make(map[any]any, len(gets))

			missing := false
			for _, ge := range gets {
				val, ok := ge.hook(gc)
				task.Data[ge.key] = genValue{value: val, ok: ok}
				if ge.required && !ok {
					missing = true
				}
			}
			if missing {
				reaction.DecActiveTasks()
				return nil, threading.OutcomeMissingData
			}

			for _, pr := range preRuns {
				pr := pr
				task.PreRun = append(task.PreRun, func() { pr(reaction) })
			}
			for _, pr := range postRuns {
				pr := pr
				task.PostRun = append(task.PostRun, func() { pr(reaction) })
			}
			for _, sc := range scopes {
				task.Scopes = append(task.Scopes, sc())
			}

			task.Callback = func() error {
				callback(threading.WithTask(context.Background(), task))
				return nil
			}

			task.Stats = &threading.Statistics{
				TraceID:     uuid.NewString(),
				ReactionID:  reaction.ID,
				TaskID:      task.ID,
				ReactorName: reaction.Identifiers.ReactorName,
				Label:       reaction.Identifiers.Label,
				DSL:         reaction.Identifiers.DSLDescription,
				Callback:    reaction.Identifiers.CallbackDescription,
				CreatedAt:   time.Now(),
			}

			return task, threading.OutcomeSubmitted
		}
	}

	return &Compiled{binds: binds, build: build, EmitStats: emitStats}, nil
}

func foldRunInline(hooks []RunInlineHook) (threading.RunInline, error) {
	resolved := threading.RunInlineNeutral
	for _, h := range hooks {
		v := h(nil)
		if v == threading.RunInlineNeutral {
			continue
		}
		if resolved != threading.RunInlineNeutral && resolved != v {
			return threading.RunInlineNeutral, ErrRunInlineConflict
		}
		resolved = v
	}
	return resolved, nil
}
