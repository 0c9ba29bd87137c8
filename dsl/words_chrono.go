package dsl

import (
	"sync/atomic"
	"time"

	"github.com/Fastcode/nuclear-go/internal/collab"
	"github.com/Fastcode/nuclear-go/internal/messages"
	"github.com/Fastcode/nuclear-go/internal/threading"
)

type everyWord struct {
	interval time.Duration
}

// Every registers a recurring timer with the PowerPlant's
// ChronoController: the reaction fires every interval with no data
// requirement, starting interval after bind.
func Every(interval time.Duration) Word { return &everyWord{interval: interval} }

func (w *everyWord) hooks() hookSet {
	return hookSet{
		bind: func(bc BindContext, reaction *threading.Reaction) func() {
			if bc.Chrono == nil {
				return nil
			}
			id := bc.Chrono.Schedule(collab.ChronoTask{
				FireAt: time.Now().Add(w.interval),
				Recur:  w.interval,
				Callback: func(time.Time) bool {
					bc.Submit(reaction, false)
					return true
				},
			})
			return func() { bc.Chrono.Unbind(id) }
		},
	}
}

// watchdogWord fires messages.ServiceWatchdog{Group, Key} if no
// EmitWatchdog(ServiceWatchdog{Group, Key}) call resets its timer
// within timeout, per spec.md's Watchdog semantics. Servicing goes
// through BindContext.RegisterWatchdog at bind time, so the rearm is
// reachable from Environment.EmitWatchdog rather than a private method
// on the Word itself.
type watchdogWord struct {
	group   string
	key     any
	timeout time.Duration

	chrono collab.ChronoController
	chrID  atomic.Uint64
	armed  atomic.Bool
	fire   func()
}

// Watchdog arms a timeout keyed by (group, key): if
// Environment.EmitWatchdog(ServiceWatchdog{group, key}) is not called
// again within timeout of the previous call (or of bind time), the
// reaction fires with a messages.ServiceWatchdog value carrying the
// key.
func Watchdog(group string, key any, timeout time.Duration) *WatchdogHandle {
	w := &watchdogWord{group: group, key: key, timeout: timeout}
	return &WatchdogHandle{w: w}
}

// WatchdogHandle is the Word passed to On(...). There is no accessor
// method to reset its own deadline: servicing happens only through the
// documented Watchdog emit scope (Environment.EmitWatchdog), so a
// refresh is always visible to anything else subscribed to
// messages.ServiceWatchdog.
type WatchdogHandle struct{ w *watchdogWord }

func (h *WatchdogHandle) hooks() hookSet { return h.w.hooks() }

func (w *watchdogWord) rearm() {
	if w.chrono == nil {
		return
	}
	if old := w.chrID.Load(); old != 0 {
		w.chrono.Unbind(old)
	}
	id := w.schedule()
	w.chrID.Store(id)
}

func (w *watchdogWord) schedule() uint64 {
	return w.chrono.Schedule(collab.ChronoTask{
		FireAt: time.Now().Add(w.timeout),
		Callback: func(time.Time) bool {
			if w.armed.CompareAndSwap(false, true) {
				w.fire()
				w.armed.Store(false)
			}
			return false
		},
	})
}

func (w *watchdogWord) hooks() hookSet {
	return hookSet{
		bind: func(bc BindContext, reaction *threading.Reaction) func() {
			w.chrono = bc.Chrono
			w.fire = func() { bc.Submit(reaction, false) }
			w.rearm()

			var unregister func()
			if bc.RegisterWatchdog != nil {
				unregister = bc.RegisterWatchdog(w.group, w.key, w.rearm)
			}
			return func() {
				if id := w.chrID.Load(); id != 0 {
					bc.Chrono.Unbind(id)
				}
				if unregister != nil {
					unregister()
				}
			}
		},
		getKey:      w,
		getRequired: true,
		get: func(gc GetContext) (any, bool) {
			return messages.ServiceWatchdog{Group: w.group, Key: w.key}, true
		},
	}
}
