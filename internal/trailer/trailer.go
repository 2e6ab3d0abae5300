// Package trailer encodes and decodes the 8-byte metadata record appended to
// the end of every cover file that carries a hidden payload chunk.
package trailer

import (
	"encoding/binary"
	"errors"
)

// Size is the on-disk width of an encoded trailer, in bytes.
const Size = 8

// MaxParts is the largest total_parts (and therefore the largest number of
// cover files) the 15-bit field can represent.
const MaxParts = 1<<15 - 1

// ErrInvalidTrailer is returned by Decode when the decoded fields fail the
// semantic checks below, independent of whether the bytes parsed at all.
var ErrInvalidTrailer = errors.New("invalid payload metadata")

// Meta is the logical content of a trailer record.
//
// Bit layout of the encoded big-endian uint64, high bit first:
//
//	63..32  payload_size (u32)
//	31      encrypted (bool)
//	30..16  part (u16, 15 bits)
//	15      reserved, always written 0
//	14..0   total_parts (u16, 15 bits)
type Meta struct {
	PayloadSize uint32
	Encrypted   bool
	Part        uint16
	TotalParts  uint16
}

// Encode packs m into its 8-byte big-endian wire representation. The
// reserved bit is always emitted as 0.
func Encode(m Meta) [Size]byte {
	var word uint64
	word |= uint64(m.PayloadSize) << 32
	if m.Encrypted {
		word |= 1 << 31
	}
	word |= uint64(m.Part&MaxParts) << 16
	// bit 15 (reserved) stays 0
	word |= uint64(m.TotalParts & MaxParts)

	var out [Size]byte
	binary.BigEndian.PutUint64(out[:], word)
	return out
}

// Decode unpacks an 8-byte big-endian record into a Meta, rejecting records
// whose part/total_parts fields cannot describe a valid chunk. payload_size
// of zero is accepted: an empty chunk is legitimate when a blob is smaller
// than the number of covers. The reserved bit is ignored.
func Decode(b [Size]byte) (Meta, error) {
	word := binary.BigEndian.Uint64(b[:])

	m := Meta{
		PayloadSize: uint32(word >> 32),
		Encrypted:   word&(1<<31) != 0,
		Part:        uint16((word >> 16) & MaxParts),
		TotalParts:  uint16(word & MaxParts),
	}

	if m.Part == 0 || m.TotalParts == 0 || m.Part > m.TotalParts {
		return Meta{}, ErrInvalidTrailer
	}

	return m, nil
}
