package fshare

import (
	"errors"

	"github.com/marmos91/fshare/internal/protocol/wire"
	"github.com/marmos91/fshare/pkg/adapter"
	"github.com/marmos91/fshare/pkg/storage"
)

// StatusError is a failure reported to the peer as an ERROR_RESPONSE.
type StatusError struct {
	Status wire.Status
	Msg    string
	Err    error
}

var _ adapter.ProtocolError = (*StatusError)(nil)

func (e *StatusError) Error() string {
	if e.Err != nil {
		return e.Status.String() + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Status.String() + ": " + e.Msg
}

func (e *StatusError) Code() uint32    { return uint32(e.Status) }
func (e *StatusError) Message() string { return e.Msg }
func (e *StatusError) Unwrap() error   { return e.Err }

// mapStorageError translates a storage error into a wire status. fallback is
// the message used when the error has no more specific meaning.
func mapStorageError(err error, fallback string) *StatusError {
	var se *StatusError
	if errors.As(err, &se) {
		return se
	}

	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrNotRegular):
		return &StatusError{Status: wire.StatusFileNotFound, Msg: "File not found", Err: err}
	case errors.Is(err, storage.ErrExists):
		return &StatusError{Status: wire.StatusFileExists, Msg: "File already exists", Err: err}
	case errors.Is(err, storage.ErrInvalidName):
		return &StatusError{Status: wire.StatusInvalidRequest, Msg: "Invalid filename", Err: err}
	default:
		return &StatusError{Status: wire.StatusError, Msg: fallback, Err: err}
	}
}
