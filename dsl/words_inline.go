package dsl

import "github.com/Fastcode/nuclear-go/internal/threading"

type inlineWord struct{ mode threading.RunInline }

// Inline marks a reaction as always eligible to run on the emitting
// goroutine rather than being queued, provided it can acquire all its
// group tokens without blocking.
func Inline() Word { return &inlineWord{mode: threading.RunInlineAlways} }

// NotInline forbids inline execution even when the triggering emit
// requests it, forcing the task onto its pool's queue.
func NotInline() Word { return &inlineWord{mode: threading.RunInlineNever} }

func (w *inlineWord) hooks() hookSet {
	return hookSet{runInline: func(*threading.Reaction) threading.RunInline { return w.mode }}
}
