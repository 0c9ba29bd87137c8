package dsl

import "github.com/Fastcode/nuclear-go/internal/threading"

type poolWord struct {
	desc threading.PoolDescriptor
}

// Pool pins a reaction's tasks to a named pool with the given
// concurrency. Pools are deduped by id across the whole PowerPlant: the
// first task submitted against an id creates the pool and fixes its
// concurrency for every later reference. countsForIdle marks the pool as one an unscoped
// AddIdleTask (no explicit pool) waits on.
func Pool(id string, concurrency int, countsForIdle bool) Word {
	return &poolWord{desc: threading.PoolDescriptor{ID: id, Concurrency: concurrency, CountsForIdle: countsForIdle}}
}

// MainThread pins a reaction to the single worker bound to the
// goroutine that calls PowerPlant.Start. Its concurrency is always 1:
// the scheduler forces it for this pool id.
func MainThread() Word {
	return &poolWord{desc: threading.PoolDescriptor{ID: threading.MainThreadPoolID, Concurrency: 1}}
}

func (w *poolWord) hooks() hookSet {
	return hookSet{pool: func(*threading.Reaction) threading.PoolDescriptor { return w.desc }}
}
