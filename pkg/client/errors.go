package client

import (
	"errors"
	"fmt"

	"github.com/marmos91/fshare/internal/protocol/wire"
)

// ErrUnexpectedReply is returned when the server answers with a message type
// the operation does not expect.
var ErrUnexpectedReply = errors.New("client: unexpected reply")

// ServerError is an ERROR_RESPONSE received from the server.
type ServerError struct {
	Status  wire.Status
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return e.Status.String()
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// IsNotFound reports whether the server reported a missing file.
func (e *ServerError) IsNotFound() bool {
	return e.Status == wire.StatusFileNotFound
}

// IsAuthError reports whether the server rejected the credentials or the
// session is not authenticated.
func (e *ServerError) IsAuthError() bool {
	return e.Status == wire.StatusAccessDenied
}

// IsConflict reports whether the target file already exists.
func (e *ServerError) IsConflict() bool {
	return e.Status == wire.StatusFileExists
}

// IsInvalidRequest reports whether the server rejected the request's contents.
func (e *ServerError) IsInvalidRequest() bool {
	return e.Status == wire.StatusInvalidRequest
}

func unexpected(op string, got wire.MessageType) error {
	return fmt.Errorf("%w to %s: %s", ErrUnexpectedReply, op, got)
}
