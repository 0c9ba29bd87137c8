// Package ids hands out process-wide monotonic identifiers.
//
// Reaction and ReactionTask identity both need a cheap, strictly
// increasing counter: reactions so that bind order can be recovered for
// debugging, tasks so that the scheduler can break priority ties in
// favour of the older task (spec ScheduledWork ordering).
package ids

import "sync/atomic"

// Generator produces monotonically increasing, unique uint64 values.
// The zero value is ready to use; the first call to Next returns 1 so
// that 0 can be reserved as an "unset" sentinel by callers.
type Generator struct {
	counter uint64
}

// Next returns the next id in the sequence. Safe for concurrent use.
func (g *Generator) Next() uint64 {
	return atomic.AddUint64(&g.counter, 1)
}

// Reactions hands out reaction ids.
var Reactions Generator

// Tasks hands out reaction task ids.
var Tasks Generator

// Chrono hands out ChronoController registration ids.
var Chrono Generator
