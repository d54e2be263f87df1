package adapter

// ProtocolError is a domain error translated for a specific wire protocol.
// Adapters return it from MapError so handlers can reply with a typed status
// instead of a generic failure.
type ProtocolError interface {
	error

	// Code is the protocol status code.
	Code() uint32

	// Message is the human-readable text sent to the peer.
	Message() string

	// Unwrap returns the underlying domain error.
	Unwrap() error
}
