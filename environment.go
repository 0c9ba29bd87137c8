package nuclear

import (
	"fmt"
	"time"

	"github.com/Fastcode/nuclear-go/dsl"
)

// Environment is the back-reference a reactor constructor receives: the
// reactor's fixed identity plus every emit/bind/log entry point into
// the owning PowerPlant, per spec.md §4.6/§4.7.
type Environment struct {
	Name     string
	LogLevel int

	pp *PowerPlant

	count int
}

func (e *Environment) on(callback dsl.Callback, words []dsl.Word) (*Handle, error) {
	return e.pp.install(e, callback, words)
}

// On composes words into a new bound reaction owned directly by this
// Environment (no BaseReactor bookkeeping): callback runs once per task
// created by this reaction. Most reactors should embed BaseReactor and
// call its On instead, so Shutdown unwinds everything.
func (e *Environment) On(callback dsl.Callback, words ...dsl.Word) (*Handle, error) {
	return e.on(callback, words)
}

// EmitLocal publishes msg under Local scope: every current subscriber
// to msg's type is offered a task, synchronously, on the calling
// goroutine, before EmitLocal returns -- but each task itself is then
// handed to Submit, which queues it unless it's Inline-eligible.
func (e *Environment) EmitLocal(msg any) { e.pp.emit(msg, false) }

// EmitInline publishes msg and additionally requests inline execution:
// eligible subscribers (RunInlineAlways, or no opposing RunInlineNever)
// run synchronously on the calling goroutine if their group tokens are
// immediately available, rather than being queued.
func (e *Environment) EmitInline(msg any) { e.pp.emit(msg, true) }

// EmitInitialise publishes msg exactly like EmitLocal. It exists as its
// own entry point so call sites can express intent (seeding a reactor's
// first value at bind time) even though the two scopes behave
// identically in this implementation: msg is dispatched immediately,
// whether or not Start has run; it is not deferred until Start, and it
// is not dropped once the PowerPlant is running.
func (e *Environment) EmitInitialise(msg any) { e.pp.emit(msg, false) }

// EmitDelay publishes msg under Local scope after d elapses, using the
// PowerPlant's ChronoController as the timer.
func (e *Environment) EmitDelay(msg any, d time.Duration) { e.pp.emitDelay(msg, d) }

// EmitWatchdog services a watchdog: msg (a messages.ServiceWatchdog)
// rearms every dsl.Watchdog registration bound against msg's (Group,
// Key) pair, then publishes msg under Local scope exactly like
// EmitLocal, so anything else subscribed to messages.ServiceWatchdog
// still observes the refresh.
func (e *Environment) EmitWatchdog(msg any) { e.pp.emitWatchdog(msg) }

// EmitNetwork asks the configured NetworkController to deliver msg to
// target (or broadcast, if target is empty), optionally requesting
// reliable delivery.
func (e *Environment) EmitNetwork(msg any, target string, reliable bool) error {
	return e.pp.emitNetwork(msg, target, reliable)
}

// EmitUDP is EmitNetwork addressed directly at addr:port rather than a
// named peer, for collaborators that haven't completed peer discovery.
func (e *Environment) EmitUDP(msg any, addr string, port int) error {
	return e.pp.emitNetwork(msg, fmt.Sprintf("%s:%d", addr, port), true)
}

// Log builds a LogMessage, emits it under Inline scope, and forwards it
// to the configured Logger so operators get console output with no
// LogMessage subscriber installed. The LogMessage's Statistics field is
// left nil: Log takes no context, so it does not know which task (if
// any) is calling it.
func (e *Environment) Log(level, text string) { e.pp.writeLog(e.Name, level, text) }

// AddIdleTask registers handle to fire whenever poolID (or every
// CountsForIdle pool, if poolID is empty) has no running or queued
// work and handle's own reaction has no active tasks.
func (e *Environment) AddIdleTask(handle *Handle, poolID string) {
	e.pp.scheduler.AddIdleTask(handle.reaction, poolID)
}

// RemoveIdleTask undoes a prior AddIdleTask.
func (e *Environment) RemoveIdleTask(handle *Handle, poolID string) {
	e.pp.scheduler.RemoveIdleTask(handle.reaction.ID, poolID)
}
