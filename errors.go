package nuclear

import "errors"

// Configuration errors: fatal, returned synchronously from constructors
// and On(...), never panicked.
var (
	ErrAlreadyStarted     = errors.New("nuclear: PowerPlant already started")
	ErrNotRunning         = errors.New("nuclear: PowerPlant is not running")
	ErrReactorNameEmpty   = errors.New("nuclear: reactor name must not be empty")
	ErrNilCallback        = errors.New("nuclear: On(...) callback must not be nil")
	ErrMainThreadTaken    = errors.New("nuclear: MainThread pool already bound to the Start goroutine")
	ErrShutdownInProgress = errors.New("nuclear: shutdown already in progress")
)

// Resource errors: returned from Start when a collaborator fails to
// come up.
var (
	ErrChronoStartFailed = errors.New("nuclear: chrono controller failed to start")
)
