// Package messages holds the handful of control messages the core
// itself emits and that DSL words bind to directly, kept separate from
// both dsl and the root package so neither has to import the other just
// to share these types.
package messages

// Startup is emitted once under Local scope when PowerPlant.Start
// transitions Created -> Running, before worker pools spawn.
type Startup struct{}

// Shutdown is emitted once under Local scope when PowerPlant.Shutdown
// transitions Running -> ShuttingDown. Reactions bound to Shutdown
// default to IDLE priority so in-flight normal work drains first.
type Shutdown struct{}

// CommandLineArguments carries the argv captured at PowerPlant
// construction, emitted under Local scope right after Startup.
type CommandLineArguments struct {
	Args []string
}

// ServiceWatchdog[G] would be generic in the original DSL; Go keys a
// watchdog by (group type name, key) instead, see dsl's Watchdog word.
// ServiceWatchdog carries the key being serviced.
type ServiceWatchdog struct {
	Group string
	Key   any
}
