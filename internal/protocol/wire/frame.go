package wire

import (
	"fmt"
	"io"
	"math"

	"github.com/marmos91/fshare/pkg/bufpool"
)

// DefaultMaxPayload bounds the payload of a single incoming frame when the
// caller does not configure a limit.
const DefaultMaxPayload = 1 << 20

// Frame is one header plus its payload.
type Frame struct {
	Header  Header
	Payload []byte
}

// Type returns the frame's message type.
func (f *Frame) Type() MessageType {
	return f.Header.Type
}

// ReadFrame reads exactly one frame from r.
//
// The declared payload length is validated against maxPayload before any
// payload bytes are read or allocated. A maxPayload of 0 selects
// DefaultMaxPayload.
//
// On ErrUnsupportedVersion and ErrFrameTooLarge the returned frame carries the
// decoded header so the caller can log it. A clean EOF before the first header
// byte is returned as io.EOF; any other short read as io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader, maxPayload uint32) (*Frame, error) {
	if maxPayload == 0 {
		maxPayload = DefaultMaxPayload
	}

	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	h, err := DecodeHeader(hdr[:])
	if err != nil {
		return nil, err
	}
	f := &Frame{Header: h}

	if h.Version != Version {
		return f, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Length > maxPayload {
		return f, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, h.Length, maxPayload)
	}

	if h.Length > 0 {
		f.Payload = make([]byte, h.Length)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("read %s payload: %w", h.Type, err)
		}
	}
	return f, nil
}

// WriteFrame writes one frame to w with a single Write call.
func WriteFrame(w io.Writer, t MessageType, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	buf := bufpool.Get(HeaderSize + len(payload))
	defer bufpool.Put(buf)

	NewHeader(t, uint32(len(payload))).Put(buf)
	copy(buf[HeaderSize:], payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write %s frame: %w", t, err)
	}
	return nil
}
