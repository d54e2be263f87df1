package wire

import "errors"

var (
	// ErrMalformedHeader is returned when a header is shorter than HeaderSize
	// or does not start with Magic.
	ErrMalformedHeader = errors.New("wire: malformed header")

	// ErrUnsupportedVersion is returned by ReadFrame when the header carries a
	// protocol version other than Version.
	ErrUnsupportedVersion = errors.New("wire: unsupported protocol version")

	// ErrTruncatedPayload is returned when a payload declares more bytes than
	// are present in the buffer.
	ErrTruncatedPayload = errors.New("wire: truncated payload")

	// ErrFrameTooLarge is returned by ReadFrame when the declared payload
	// length exceeds the configured limit.
	ErrFrameTooLarge = errors.New("wire: frame too large")
)
