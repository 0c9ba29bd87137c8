package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// Magic identifies a NUClear-Go wire packet, distinguishing it from
// stray traffic on a shared UDP port.
var Magic = [3]byte{0xE2, 0x98, 0xA2}

// Version is the wire format revision this package encodes/decodes.
const Version byte = 0x02

// PacketType names the handful of frame kinds the Network emit scope
// exchanges between peers.
type PacketType byte

const (
	PacketAnnounce PacketType = iota + 1
	PacketLeave
	PacketData
	PacketAck
	PacketNack
	PacketDataRetransmission
)

// ErrShortPacket is returned when a buffer is too small to hold a
// header.
var ErrShortPacket = errors.New("nuclear/wire: packet shorter than header")

// ErrBadMagic is returned when a buffer's first three bytes don't
// match Magic, so Decode refuses to interpret it as ours.
var ErrBadMagic = errors.New("nuclear/wire: bad magic")

// ErrUnsupportedVersion is returned when a buffer's version byte isn't
// one this package understands.
var ErrUnsupportedVersion = errors.New("nuclear/wire: unsupported version")

// headerLen is magic(3) + version(1) + type(1) + typeHash(8) + seq(4) +
// payloadLen(4).
const headerLen = 3 + 1 + 1 + 8 + 4 + 4

// Header is the fixed-size prefix of every packet.
type Header struct {
	Type     PacketType
	TypeHash uint64
	Seq      uint32
}

// Packet is a decoded frame: its header plus the payload bytes that
// follow it (empty for ACK/NACK/ANNOUNCE/LEAVE).
type Packet struct {
	Header
	Payload []byte
}

// Encode serializes p into the wire format.
func Encode(p Packet) []byte {
	buf := make([]byte, headerLen+len(p.Payload))
	copy(buf[0:3], Magic[:])
	buf[3] = Version
	buf[4] = byte(p.Type)
	binary.BigEndian.PutUint64(buf[5:13], p.TypeHash)
	binary.BigEndian.PutUint32(buf[13:17], p.Seq)
	binary.BigEndian.PutUint32(buf[17:21], uint32(len(p.Payload)))
	copy(buf[headerLen:], p.Payload)
	return buf
}

// Decode parses a wire-format buffer into a Packet.
func Decode(buf []byte) (Packet, error) {
	if len(buf) < headerLen {
		return Packet{}, ErrShortPacket
	}
	if !bytes.Equal(buf[0:3], Magic[:]) {
		return Packet{}, ErrBadMagic
	}
	if buf[3] != Version {
		return Packet{}, ErrUnsupportedVersion
	}
	payloadLen := binary.BigEndian.Uint32(buf[17:21])
	if uint32(len(buf)-headerLen) < payloadLen {
		return Packet{}, ErrShortPacket
	}
	p := Packet{
		Header: Header{
			Type:     PacketType(buf[4]),
			TypeHash: binary.BigEndian.Uint64(buf[5:13]),
			Seq:      binary.BigEndian.Uint32(buf[13:17]),
		},
	}
	if payloadLen > 0 {
		p.Payload = append([]byte(nil), buf[headerLen:headerLen+payloadLen]...)
	}
	return p, nil
}
