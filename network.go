package nuclear

import (
	"encoding/json"

	"github.com/Fastcode/nuclear-go/internal/collab"
	"github.com/Fastcode/nuclear-go/internal/wire"
)

func encodePayload(msg any) ([]byte, error) { return json.Marshal(msg) }

func typeHash(typeName string) uint64 { return wire.TypeHash(typeName) }

// noopIO is the reference IOController: it accepts every Configure
// call and never fires, suitable for tests and processes that bind no
// IO/TCP/UDP words.
type noopIO struct{}

// NewNoopIO returns the default IOController PowerPlant installs when
// none is supplied via WithIO.
func NewNoopIO() collab.IOController { return noopIO{} }

func (noopIO) Configure(collab.IOConfiguration) error { return nil }
func (noopIO) Unbind(uint64)                          {}

// LoopbackNetwork is the reference NetworkController: Emit hands each
// NetworkEmit's type hash, type name and still-encoded payload to the
// callback installed with OnDeliver, on the calling goroutine. It does
// not decode the payload or publish anything into the TypeStore itself,
// and it never opens a socket; a real UDP transport would implement
// collab.NetworkController the same way but push bytes through
// internal/wire's framing onto an actual conn.
type LoopbackNetwork struct {
	deliver func(typeHash uint64, typeName string, payload []byte)
}

// NewLoopbackNetwork returns a LoopbackNetwork with no delivery target
// configured (PowerPlant installs it this way by default and never calls
// OnDeliver). Until OnDeliver is called, Emit is a harmless no-op,
// matching the "no real transport" default.
func NewLoopbackNetwork() *LoopbackNetwork { return &LoopbackNetwork{} }

func (n *LoopbackNetwork) Configure(collab.NetworkConfiguration) error { return nil }

func (n *LoopbackNetwork) Emit(e collab.NetworkEmit) error {
	if n.deliver == nil {
		return nil
	}
	n.deliver(e.TypeHash, e.TypeName, e.Payload)
	return nil
}

// OnDeliver installs the callback invoked when a NetworkEmit arrives.
func (n *LoopbackNetwork) OnDeliver(fn func(typeHash uint64, typeName string, payload []byte)) {
	n.deliver = fn
}
