package wire

import (
	"encoding/binary"
	"fmt"
)

const (
	// Magic identifies fshare frames ("FS").
	Magic uint16 = 0x4653

	// Version is the only protocol version this package speaks.
	Version uint8 = 1

	// HeaderSize is the fixed size of an encoded header.
	HeaderSize = 8
)

// Header is the fixed-size prefix of every frame.
type Header struct {
	Magic   uint16
	Version uint8
	Type    MessageType
	Length  uint32
}

// NewHeader returns a header for the current protocol version.
func NewHeader(t MessageType, length uint32) Header {
	return Header{Magic: Magic, Version: Version, Type: t, Length: length}
}

// Put encodes h into the first HeaderSize bytes of dst.
// dst must be at least HeaderSize bytes long.
func (h Header) Put(dst []byte) {
	_ = dst[HeaderSize-1]
	binary.BigEndian.PutUint16(dst[0:2], h.Magic)
	dst[2] = h.Version
	dst[3] = uint8(h.Type)
	binary.BigEndian.PutUint32(dst[4:8], h.Length)
}

// EncodeHeader returns the wire representation of h.
func EncodeHeader(h Header) [HeaderSize]byte {
	var b [HeaderSize]byte
	h.Put(b[:])
	return b
}

// DecodeHeader parses a header from the start of b.
//
// It fails with ErrMalformedHeader when fewer than HeaderSize bytes are
// available or the magic does not match. The version is stored but not
// checked; see ReadFrame.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: need %d bytes, have %d", ErrMalformedHeader, HeaderSize, len(b))
	}
	h := Header{
		Magic:   binary.BigEndian.Uint16(b[0:2]),
		Version: b[2],
		Type:    MessageType(b[3]),
		Length:  binary.BigEndian.Uint32(b[4:8]),
	}
	if h.Magic != Magic {
		return Header{}, fmt.Errorf("%w: bad magic 0x%04X", ErrMalformedHeader, h.Magic)
	}
	return h, nil
}
