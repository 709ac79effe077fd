package protocol

import (
	"errors"
	"io"
)

// MaxVarintLen is the longest encoding of a 32 bit varint.
const MaxVarintLen = 5

var (
	errVarintTooLong  = errors.New("varint is longer than 5 bytes")
	errVarintOverflow = errors.New("varint overflows 32 bits")
)

// EncodeVarint encodes v as a protocol varint: 7 bits per byte, least
// significant group first, high bit set on every byte but the last.
func EncodeVarint(v uint32) []byte {
	return AppendVarint(make([]byte, 0, VarintSize(v)), v)
}

// AppendVarint appends the varint encoding of v to buf.
func AppendVarint(buf []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// VarintSize returns the number of bytes EncodeVarint(v) produces.
func VarintSize(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// DecodeVarint reads one varint from r.
//
// A stream that ends inside the value, a value longer than MaxVarintLen
// bytes or one that does not fit in 32 bits is a protocol error. Any other read error is returned as is.
func DecodeVarint(r io.ByteReader) (uint32, error) {
	var (
		result uint32
		shift  uint
	)
	for i := 0; i < MaxVarintLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				if i == 0 {
					return 0, &Error{Kind: KindProtocol, Op: "varint", Err: io.EOF}
				}
				return 0, &Error{Kind: KindProtocol, Op: "varint", Err: io.ErrUnexpectedEOF}
			}
			return 0, err
		}
		if i == MaxVarintLen-1 && b&0x70 != 0 {
			return 0, &Error{Kind: KindProtocol, Op: "varint", Err: errVarintOverflow}
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, &Error{Kind: KindProtocol, Op: "varint", Err: errVarintTooLong}
}
