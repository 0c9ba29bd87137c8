package dsl

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fastcode/nuclear-go/internal/store"
	"github.com/Fastcode/nuclear-go/internal/threading"
)

type pingMsg struct{ N int }
type pongMsg struct{ S string }

func noopCallback(context.Context) {}

func buildReaction(t *testing.T, st *store.Store, callback Callback, words ...Word) (*Compiled, *threading.Reaction) {
	t.Helper()
	compiled, err := Compose(st, callback, words)
	require.NoError(t, err)

	reaction := threading.New(threading.Identifiers{Label: "test"}, compiled.EmitStats)
	reaction.SetFactory(compiled.Build(reaction))
	compiled.Bind(BindContext{Store: st}, reaction)
	return compiled, reaction
}

func TestComposeRequiresABindWord(t *testing.T) {
	st := store.New()
	_, err := Compose(st, noopCallback, []Word{Priority(PriorityHigh)})
	assert.ErrorIs(t, err, ErrNoBindWord)
}

func TestComposeRequiresANonNilCallback(t *testing.T) {
	st := store.New()
	_, err := Compose(st, nil, []Word{Trigger[pingMsg]()})
	assert.ErrorIs(t, err, ErrNilCallback)
}

func TestTriggerSubscribesAndDeliversValue(t *testing.T) {
	st := store.New()
	var got pingMsg
	var ok bool
	trig := Trigger[pingMsg]()
	_, reaction := buildReaction(t, st, func(ctx context.Context) {
		got, ok = trig.Get(ctx)
	}, trig)

	st.Set(reflect.TypeOf(pingMsg{}), pingMsg{N: 5})
	task, outcome := reaction.GetTask(false, nil)
	require.Equal(t, threading.OutcomeSubmitted, outcome)
	task.Run()

	assert.True(t, ok)
	assert.Equal(t, pingMsg{N: 5}, got)
}

func TestWithGetIsRequiredAndMissingDataBlocksTask(t *testing.T) {
	st := store.New()
	trig := Trigger[pingMsg]()
	with := With[pongMsg]()
	_, reaction := buildReaction(t, st, noopCallback, trig, with)
	st.Set(reflect.TypeOf(pingMsg{}), pingMsg{N: 1})

	// pongMsg has never been Set: the required With get must fail.
	_, outcome := reaction.GetTask(false, nil)
	assert.Equal(t, threading.OutcomeMissingData, outcome)

	st.Set(reflect.TypeOf(pongMsg{}), pongMsg{S: "hi"})
	_, outcome = reaction.GetTask(false, nil)
	assert.Equal(t, threading.OutcomeSubmitted, outcome)
}

func TestOptionalDoesNotBlockOnMissingData(t *testing.T) {
	st := store.New()
	trig := Trigger[pingMsg]()
	opt := Optional(With[pongMsg]())
	var ok bool
	_, reaction := buildReaction(t, st, func(ctx context.Context) {
		_, ok = opt.Get(ctx)
	}, trig, opt)
	st.Set(reflect.TypeOf(pingMsg{}), pingMsg{N: 1})

	task, outcome := reaction.GetTask(false, nil)
	require.Equal(t, threading.OutcomeSubmitted, outcome)
	task.Run()
	assert.False(t, ok, "optional get still reports failure to the callback")
}

func TestBufferLimitsConcurrentActiveTasks(t *testing.T) {
	st := store.New()
	trig := Trigger[pingMsg]()
	_, reaction := buildReaction(t, st, noopCallback, trig, Buffer(1))
	st.Set(reflect.TypeOf(pingMsg{}), pingMsg{N: 1})

	task1, outcome := reaction.GetTask(false, nil)
	require.Equal(t, threading.OutcomeSubmitted, outcome)

	_, outcome = reaction.GetTask(false, nil)
	assert.Equal(t, threading.OutcomeBlocked, outcome, "a second task must be blocked while the first is still active")

	task1.Run() // decrements active count
	_, outcome = reaction.GetTask(false, nil)
	assert.Equal(t, threading.OutcomeSubmitted, outcome, "buffer slot frees up once the first task finishes")
}

func TestOnceFiresOnceThenUnbinds(t *testing.T) {
	st := store.New()
	trig := Trigger[pingMsg]()
	_, reaction := buildReaction(t, st, noopCallback, trig, Once())
	st.Set(reflect.TypeOf(pingMsg{}), pingMsg{N: 1})

	task, outcome := reaction.GetTask(false, nil)
	require.Equal(t, threading.OutcomeSubmitted, outcome)

	_, outcome = reaction.GetTask(false, nil)
	assert.Equal(t, threading.OutcomeBlocked, outcome, "Once forbids a second task before the first even runs")

	task.Run()
	assert.True(t, reaction.IsUnbound(), "Once must unbind the reaction once its one task finishes")
}

func TestPriorityLastWriterWins(t *testing.T) {
	st := store.New()
	trig := Trigger[pingMsg]()
	_, reaction := buildReaction(t, st, noopCallback, trig, Priority(PriorityLow), Priority(PriorityHigh))
	st.Set(reflect.TypeOf(pingMsg{}), pingMsg{N: 1})

	task, outcome := reaction.GetTask(false, nil)
	require.Equal(t, threading.OutcomeSubmitted, outcome)
	assert.Equal(t, PriorityHigh, task.Priority)
}

func TestPoolLastWriterWins(t *testing.T) {
	st := store.New()
	trig := Trigger[pingMsg]()
	_, reaction := buildReaction(t, st, noopCallback, trig,
		Pool("first", 1, false), Pool("second", 2, true))
	st.Set(reflect.TypeOf(pingMsg{}), pingMsg{N: 1})

	task, outcome := reaction.GetTask(false, nil)
	require.Equal(t, threading.OutcomeSubmitted, outcome)
	assert.Equal(t, "second", task.Pool.ID)
}

func TestGroupsUnionDedupedByID(t *testing.T) {
	st := store.New()
	trig := Trigger[pingMsg]()
	_, reaction := buildReaction(t, st, noopCallback, trig,
		Group("a", 1), Group("b", 2), Group("a", 1))
	st.Set(reflect.TypeOf(pingMsg{}), pingMsg{N: 1})

	task, outcome := reaction.GetTask(false, nil)
	require.Equal(t, threading.OutcomeSubmitted, outcome)
	require.Len(t, task.Groups, 2)
	ids := map[string]bool{}
	for _, g := range task.Groups {
		ids[g.ID] = true
	}
	assert.True(t, ids["a"])
	assert.True(t, ids["b"])
}

func TestInlineAndNotInlineConflict(t *testing.T) {
	st := store.New()
	_, err := Compose(st, noopCallback, []Word{Trigger[pingMsg](), Inline(), NotInline()})
	assert.ErrorIs(t, err, ErrRunInlineConflict)
}

func TestInlineResolvesToAlways(t *testing.T) {
	st := store.New()
	trig := Trigger[pingMsg]()
	_, reaction := buildReaction(t, st, noopCallback, trig, Inline())
	st.Set(reflect.TypeOf(pingMsg{}), pingMsg{N: 1})

	task, outcome := reaction.GetTask(false, nil)
	require.Equal(t, threading.OutcomeSubmitted, outcome)
	assert.Equal(t, threading.RunInlineAlways, task.RunInline)
}

func TestNoStatsOptsOutOfEmitStats(t *testing.T) {
	st := store.New()
	compiled, err := Compose(st, noopCallback, []Word{Trigger[pingMsg](), NoStats()})
	require.NoError(t, err)
	assert.False(t, compiled.EmitStats)
}

func TestLastAccumulatesBoundedRingBuffer(t *testing.T) {
	st := store.New()
	trig := Trigger[pingMsg]()
	last := Last[pingMsg](2, trig)

	var got []pingMsg
	_, reaction := buildReaction(t, st, func(ctx context.Context) {
		got, _ = last.Get(ctx)
	}, trig, last)

	for _, n := range []int{1, 2, 3} {
		st.Set(reflect.TypeOf(pingMsg{}), pingMsg{N: n})
		task, outcome := reaction.GetTask(false, nil)
		require.Equal(t, threading.OutcomeSubmitted, outcome)
		task.Run()
	}

	assert.Equal(t, []pingMsg{{N: 2}, {N: 3}}, got, "Last(2) keeps only the two most recent values")
}
