package wire

import "github.com/bits-and-blooms/bitset"

// AckSet tracks which sequence numbers (relative to a base) in a
// reliable DATA stream have been acknowledged, so a NACK packet can
// compactly name exactly the gaps.
//
// Grounded on original_source/src/network/NetworkController.cpp's
// packet-loss tracking, reimplemented over bits-and-blooms/bitset
// instead of a hand-rolled bit array.
type AckSet struct {
	base uint32
	bits *bitset.BitSet
}

// NewAckSet creates a tracker whose sequence numbers start at base.
func NewAckSet(base uint32) *AckSet {
	return &AckSet{base: base, bits: bitset.New(64)}
}

// Ack marks seq as received.
func (a *AckSet) Ack(seq uint32) {
	if seq < a.base {
		return
	}
	a.bits.Set(uint(seq - a.base))
}

// Acked reports whether seq has been marked received.
func (a *AckSet) Acked(seq uint32) bool {
	if seq < a.base {
		return true
	}
	return a.bits.Test(uint(seq - a.base))
}

// Missing returns every sequence number in [base, upTo) not yet
// acknowledged, in ascending order -- the set a NACK packet should
// request retransmission of.
func (a *AckSet) Missing(upTo uint32) []uint32 {
	var out []uint32
	for seq := a.base; seq < upTo; seq++ {
		if !a.bits.Test(uint(seq - a.base)) {
			out = append(out, seq)
		}
	}
	return out
}

// EncodeNack packs Missing(upTo) into a NACK packet's payload: four
// bytes of base, four bytes of upTo, followed by one bit per sequence
// number in range (1 = missing), matching DecodeNack.
func EncodeNack(base, upTo uint32, missing []uint32) []byte {
	span := int(upTo - base)
	bs := bitset.New(uint(span))
	for _, seq := range missing {
		bs.Set(uint(seq - base))
	}
	body, _ := bs.MarshalBinary()
	out := make([]byte, 8+len(body))
	putUint32(out[0:4], base)
	putUint32(out[4:8], upTo)
	copy(out[8:], body)
	return out
}

// DecodeNack is the inverse of EncodeNack, returning the missing
// sequence numbers it encodes.
func DecodeNack(payload []byte) (base, upTo uint32, missing []uint32, err error) {
	if len(payload) < 8 {
		return 0, 0, nil, ErrShortPacket
	}
	base = getUint32(payload[0:4])
	upTo = getUint32(payload[4:8])
	bs := &bitset.BitSet{}
	if err := bs.UnmarshalBinary(payload[8:]); err != nil {
		return 0, 0, nil, err
	}
	for seq := base; seq < upTo; seq++ {
		if bs.Test(uint(seq - base)) {
			missing = append(missing, seq)
		}
	}
	return base, upTo, missing, nil
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
