// Package store implements the TypeStore: a last-value cache and
// subscriber list keyed by message type, as described in spec.md §4.1.
//
// Grounded on the teacher's registry/registry.go (a concurrency-safe,
// name-keyed registry with snapshot-based iteration) generalized from
// string keys to reflect.Type keys, and on
// original_source/src/dsl/store/TypeCallbackStore.hpp /
// DataStore.hpp for the semantics being ported: one cached latest value
// plus an ordered subscriber list per message type.
package store

import (
	"reflect"
	"sort"
	"sync"

	"github.com/Fastcode/nuclear-go/internal/threading"
)

type typeEntry struct {
	mu          sync.RWMutex
	latest      any
	hasLatest   bool
	subscribers []*threading.Reaction
}

// Store is the process-wide TypeStore: one entry per distinct message
// type, each holding the most recently emitted value and its ordered
// subscriber list.
type Store struct {
	mu      sync.RWMutex
	entries map[reflect.Type]*typeEntry
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[reflect.Type]*typeEntry)}
}

func (s *Store) entry(t reflect.Type) *typeEntry {
	s.mu.RLock()
	e, ok := s.entries[t]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[t]; ok {
		return e
	}
	e = &typeEntry{}
	s.entries[t] = e
	return e
}

// Set replaces the latest value for type t. Single-writer-wins: readers
// who already hold a reference to the prior value via Get keep their
// own snapshot, since Go values (and the interfaces wrapping them) are
// immutable handles here -- callers should treat emitted messages as
// read-only once published, exactly as spec.md's "old value retained by
// any handle already holding it" requires.
func (s *Store) Set(t reflect.Type, v any) {
	e := s.entry(t)
	e.mu.Lock()
	e.latest = v
	e.hasLatest = true
	e.mu.Unlock()
}

// Get returns the current latest value for t, if any has been emitted.
func (s *Store) Get(t reflect.Type) (any, bool) {
	e := s.entry(t)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest, e.hasLatest
}

// Subscribe appends reaction to the ordered subscriber list for t and
// returns an unsubscribe closure. The Reaction's own unbind machinery is
// expected to call this closure exactly once (see
// threading.Reaction.AddUnbinder).
func (s *Store) Subscribe(t reflect.Type, reaction *threading.Reaction) (unsubscribe func()) {
	e := s.entry(t)
	e.mu.Lock()
	e.subscribers = append(e.subscribers, reaction)
	e.mu.Unlock()

	return func() { s.unsubscribe(t, reaction.ID) }
}

func (s *Store) unsubscribe(t reflect.Type, reactionID uint64) {
	e := s.entry(t)
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, r := range e.subscribers {
		if r.ID == reactionID {
			e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
			return
		}
	}
}

// Subscribers returns a snapshot of the current subscriber list for t.
// Iteration over the returned slice is safe under concurrent
// subscribe/unsubscribe because the snapshot is copied out under the
// entry's lock (spec.md: "iteration over a snapshot, so unsubscription
// during dispatch is safe").
func (s *Store) Subscribers(t reflect.Type) []*threading.Reaction {
	e := s.entry(t)
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*threading.Reaction, len(e.subscribers))
	copy(out, e.subscribers)
	return out
}

// Types returns every message type currently known to the store, sorted
// by name, for diagnostics (e.g. a health/status dump).
func (s *Store) Types() []reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]reflect.Type, 0, len(s.entries))
	for t := range s.entries {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
