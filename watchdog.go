package nuclear

import "sync"

// watchdogKey identifies one armed dsl.Watchdog registration: the
// (group, key) pair spec.md's Watchdog<G, N, period> and
// ServiceWatchdog<G>(key) share.
type watchdogKey struct {
	group string
	key   any
}

// watchdogRegistry is the keyed service-time map spec.md's emit scope
// table describes for Watchdog: "Updates the watchdog's service-time
// map for the given key." Each dsl.Watchdog word's bind hook registers
// its rearm closure here; PowerPlant.emitWatchdog looks registrations
// up by key and calls every one that matches, so a service arrives
// through the same dispatch path as any other emitted message instead
// of a private accessor on the word.
type watchdogRegistry struct {
	mu   sync.Mutex
	next uint64
	subs map[watchdogKey]map[uint64]func()
}

func newWatchdogRegistry() *watchdogRegistry {
	return &watchdogRegistry{subs: make(map[watchdogKey]map[uint64]func())}
}

// register records rearm against (group, key) and returns the closure
// that undoes it, for the bind hook to chain into its unbind.
func (r *watchdogRegistry) register(group string, key any, rearm func()) func() {
	r.mu.Lock()
	r.next++
	id := r.next
	k := watchdogKey{group: group, key: key}
	if r.subs[k] == nil {
		r.subs[k] = make(map[uint64]func())
	}
	r.subs[k][id] = rearm
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs[k], id)
		if len(r.subs[k]) == 0 {
			delete(r.subs, k)
		}
		r.mu.Unlock()
	}
}

// service calls every rearm closure currently registered against
// (group, key). A key with no armed watchdog is a silent no-op: a
// service for a watchdog nobody bound yet is not an error.
func (r *watchdogRegistry) service(group string, key any) {
	r.mu.Lock()
	k := watchdogKey{group: group, key: key}
	rearms := make([]func(), 0, len(r.subs[k]))
	for _, fn := range r.subs[k] {
		rearms = append(rearms, fn)
	}
	r.mu.Unlock()

	for _, fn := range rearms {
		fn()
	}
}
