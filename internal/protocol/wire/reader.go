package wire

import (
	"encoding/binary"
	"fmt"
)

// Reader provides sequential reading of big-endian encoded payload data with
// error accumulation. Once an error occurs, all subsequent reads become no-ops
// returning zero values.
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader creates a new Reader wrapping the given byte slice.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// require checks that n bytes are available at the current position.
func (r *Reader) require(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || n > len(r.data)-r.pos {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncatedPayload, n, r.pos, len(r.data)-r.pos)
		return false
	}
	return true
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() uint8 {
	if !r.require(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

// ReadUint32 reads a big-endian uint32.
func (r *Reader) ReadUint32() uint32 {
	if !r.require(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

// ReadUint64 reads a big-endian uint64.
func (r *Reader) ReadUint64() uint64 {
	if !r.require(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

// ReadBytes reads n bytes into a freshly allocated slice.
func (r *Reader) ReadBytes(n int) []byte {
	if !r.require(n) {
		return nil
	}
	b := make([]byte, n)
	copy(b, r.data[r.pos:r.pos+n])
	r.pos += n
	return b
}

// ReadString reads a length-prefixed string.
//
// The declared length is checked against the remaining buffer before any
// allocation, so a hostile length cannot trigger a large allocation.
func (r *Reader) ReadString() string {
	n := r.ReadUint32()
	if r.err != nil {
		return ""
	}
	if uint64(n) > uint64(len(r.data)-r.pos) {
		r.err = fmt.Errorf("%w: string declares %d bytes at offset %d, have %d",
			ErrTruncatedPayload, n, r.pos, len(r.data)-r.pos)
		return ""
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s
}

// Err returns the first error encountered, or nil.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return max(len(r.data)-r.pos, 0)
}

// Position returns the current read position.
func (r *Reader) Position() int {
	return r.pos
}
