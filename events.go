package nuclear

import (
	"time"

	"github.com/Fastcode/nuclear-go/internal/threading"
)

// ReactionEventKind names why a ReactionEvent was emitted.
type ReactionEventKind int

const (
	// ReactionBlocked means a precondition word (Buffer/Single/Once)
	// rejected task creation.
	ReactionBlocked ReactionEventKind = iota
	// ReactionMissingData means a required get word had no value.
	ReactionMissingData
	// ReactionFinished means a task ran to completion (whether or not
	// its callback panicked; check Statistics.Panic).
	ReactionFinished
)

// ReactionEvent is emitted under Local scope (unless the reaction's
// EmitStats is false) describing the outcome of one factory call or
// task run, per spec.md §7's runtime-transient error taxonomy: these
// never surface as Go error values.
type ReactionEvent struct {
	Kind       ReactionEventKind
	ReactionID uint64
	Statistics *threading.Statistics // set only for ReactionFinished
}

// LogMessage is the message PowerPlant.Log emits under Inline scope in
// addition to forwarding to the configured Logger, per spec.md §6.
type LogMessage struct {
	Level        string
	DisplayLevel string
	Text         string
	ReactorName  string
	Statistics   *threading.Statistics // never set by Environment.Log, which has no access to the calling task
	Time         time.Time
}
