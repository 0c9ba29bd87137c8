// Package wire implements the Network emit scope's wire codec: type
// hashing, packet framing, ACK/NACK bitsets, and the per-peer RTT
// estimator, as pure, independently-testable helpers. It does not open
// a socket; the root package uses only TypeHash (to tag each
// NetworkEmit), and LoopbackNetwork uses none of these helpers.
//
// Grounded on original_source/src/network/ (NUClear's NUClearNetwork
// wire format) for framing shape, and on the teacher's use of
// cespare/xxhash for content hashing elsewhere in its storage layer.
package wire

import "github.com/cespare/xxhash/v2"

// TypeHashSeed seeds the type-name hash so it never collides with an
// unrelated xxhash use elsewhere in the process.
const TypeHashSeed = 0x4E55436C

// TypeHash returns the 64-bit identifier a DATA packet's header carries
// for its payload's wire type name, per spec.md §6.
func TypeHash(typeName string) uint64 {
	d := xxhash.NewWithSeed(TypeHashSeed)
	_, _ = d.WriteString(typeName)
	return d.Sum64()
}
