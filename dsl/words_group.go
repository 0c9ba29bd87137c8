package dsl

import (
	"reflect"

	"github.com/Fastcode/nuclear-go/internal/threading"
)

type groupWord struct {
	desc threading.GroupDescriptor
}

// Group mints a mutual-exclusion token pool named id with the given
// token count. Every reaction naming the same id contends for the same
// tokens; the token count is fixed by the first task the scheduler
// acquires the group for, matching spec.md's GroupDescriptor semantics. Multiple Group
// words on one reaction union (a task must hold a token from every
// named group before it may run).
func Group(id string, tokens int) Word {
	if tokens < 1 {
		tokens = 1
	}
	return &groupWord{desc: threading.GroupDescriptor{ID: id, Tokens: tokens}}
}

func (w *groupWord) hooks() hookSet {
	return hookSet{
		group: func(*threading.Reaction) []threading.GroupDescriptor {
			return []threading.GroupDescriptor{w.desc}
		},
	}
}

// Sync mints a singleton mutual-exclusion group keyed on T's type
// identity, token count fixed at 1 -- the type-keyed counterpart to
// Group's string-keyed, caller-sized groups. Two reactions both
// writing Sync[SameType]() contend for the same single token; a
// reaction can never hold two Sync[T] tokens for the same T at once.
func Sync[T any]() Word {
	id := reflect.TypeOf((*T)(nil)).Elem().String()
	return &groupWord{desc: threading.GroupDescriptor{ID: "sync:" + id, Tokens: 1}}
}
