package dsl

// Startup and Shutdown wrap Trigger against the core's own lifecycle
// messages (internal/messages.Startup / .Shutdown), which PowerPlant
// emits under Local scope at the corresponding state transition.
// Startup is an ordinary Trigger word; Shutdown additionally fuses in
// an IDLE priority default, per spec.

import (
	"github.com/Fastcode/nuclear-go/internal/messages"
	"github.com/Fastcode/nuclear-go/internal/threading"
)

// Startup returns a word that fires on the Startup message
// PowerPlant.Start emits right after the Created -> Running transition,
// before CommandLineArguments and before Start spawns the worker pools.
func Startup() *GetWord[messages.Startup] { return Trigger[messages.Startup]() }

// ShutdownWord is the Word Shutdown() returns: a
// Trigger[messages.Shutdown] whose priority hook defaults to
// PriorityIdle, so Shutdown-bound reactions enqueue behind whatever
// normal-priority work is still queued and drain last.
type ShutdownWord struct {
	*GetWord[messages.Shutdown]
}

// Shutdown returns a word that fires once PowerPlant.Shutdown
// transitions Running -> ShuttingDown, at PriorityIdle by default. A
// Priority(...) word listed after this one in the same On(...) call
// still overrides it, per the composer's last-writer-wins merge rule.
func Shutdown() *ShutdownWord {
	return &ShutdownWord{GetWord: Trigger[messages.Shutdown]()}
}

func (w *ShutdownWord) hooks() hookSet {
	hs := w.GetWord.hooks()
	hs.priority = func(*threading.Reaction) int32 { return PriorityIdle }
	return hs
}
