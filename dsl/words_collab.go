package dsl

import (
	"github.com/Fastcode/nuclear-go/internal/collab"
	"github.com/Fastcode/nuclear-go/internal/threading"
)

// IO registers interest in readiness events on fd under eventsMask with
// the PowerPlant's IOController, keyed by the reaction's id, and removes
// that registration on unbind. The word itself never submits a task for
// the reaction, and the default controller (NewNoopIO) never fires.
func IO(fd int, eventsMask uint32) Word {
	return &ioWord{fd: fd, mask: eventsMask}
}

type ioWord struct {
	fd   int
	mask uint32
}

func (w *ioWord) hooks() hookSet {
	return hookSet{
		bind: func(bc BindContext, reaction *threading.Reaction) func() {
			if bc.IO == nil {
				return nil
			}
			_ = bc.IO.Configure(collab.IOConfiguration{FD: w.fd, EventsMask: w.mask, ReactionID: reaction.ID})
			return func() { bc.IO.Unbind(reaction.ID) }
		},
	}
}

// NetworkSource returns a plain Trigger[T]: the reaction fires on every
// local emit of T, whichever peer (if any) it came from. name is not
// used; values are not filtered by the announcing peer.
func NetworkSource[T any](name string) *GetWord[T] {
	w := Trigger[T]()
	return w
}
