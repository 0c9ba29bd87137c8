// Package chrono is the default, in-process ChronoController: the
// collaborator that drives the Every/Delay/Watchdog DSL words.
//
// Grounded on the teacher's modules/scheduler (robfig/cron-backed
// worker with a cronEntries map for cancellation); this package reuses
// the same engine for a different purpose: instead of named, persisted
// Jobs, it schedules anonymous fire callbacks keyed by the reaction's
// ChronoTask id, because that's all the Every/Delay/Watchdog words need
// from a chrono collaborator.
package chrono

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Fastcode/nuclear-go/internal/collab"
	"github.com/Fastcode/nuclear-go/internal/ids"
)

// onceSchedule fires at most once, at At. robfig/cron calls Next after
// every run to compute the following fire time; returning a time far in
// the future effectively disables further firing (the entry is then
// removed explicitly once the callback reports "don't recur").
type onceSchedule struct {
	at   time.Time
	fired bool
}

func (s *onceSchedule) Next(t time.Time) time.Time {
	if !s.fired {
		s.fired = true
		return s.at
	}
	return t.Add(100 * 365 * 24 * time.Hour)
}

// everySchedule fires every d, measured from the previous fire (or from
// the moment the entry is added), at any resolution, including below a
// second.
type everySchedule struct{ d time.Duration }

func (s everySchedule) Next(t time.Time) time.Time { return t.Add(s.d) }

// Controller is a cron.Cron-backed ChronoController.
type Controller struct {
	cron *cron.Cron

	mu      sync.Mutex
	entries map[uint64]cron.EntryID
}

// New starts a Controller. Callers must Close it on shutdown.
func New() *Controller {
	c := &Controller{
		cron:    cron.New(cron.WithSeconds()),
		entries: make(map[uint64]cron.EntryID),
	}
	c.cron.Start()
	return c
}

// Schedule registers task with the underlying cron engine: a recurring
// task (task.Recur > 0) uses everySchedule{task.Recur}; a one-shot task
// uses onceSchedule anchored at task.FireAt. The wrapped job removes
// itself from the entries map and the cron engine once Callback returns
// false (recurring) or after its single fire (one-shot). The returned
// id is minted here, ignoring any value the caller set on task.ID --
// Controller is the sole owner of id allocation since two distinct
// Every/Watchdog registrations must never collide.
func (c *Controller) Schedule(task collab.ChronoTask) uint64 {
	id := ids.Chrono.Next()

	var sched cron.Schedule
	if task.Recur > 0 {
		sched = everySchedule{d: task.Recur}
	} else {
		sched = &onceSchedule{at: task.FireAt}
	}

	job := cron.FuncJob(func() {
		again := true
		if task.Callback != nil {
			again = task.Callback(time.Now())
		}
		if task.Recur == 0 || !again {
			c.Unbind(id)
		}
	})

	entryID := c.cron.Schedule(sched, job)

	c.mu.Lock()
	c.entries[id] = entryID
	c.mu.Unlock()

	return id
}

// Unbind cancels a previously scheduled task. Safe to call more than
// once or for an id that has already fired and self-removed.
func (c *Controller) Unbind(id uint64) {
	c.mu.Lock()
	entryID, ok := c.entries[id]
	if ok {
		delete(c.entries, id)
	}
	c.mu.Unlock()

	if ok {
		c.cron.Remove(entryID)
	}
}

// Close stops the underlying cron engine and waits for any running job
// to finish, per the collaborator contract.
func (c *Controller) Close() error {
	ctx := c.cron.Stop()
	<-ctx.Done()
	return nil
}
