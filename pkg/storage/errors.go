package storage

import "errors"

var (
	// ErrNotFound is returned when the named file does not exist.
	ErrNotFound = errors.New("storage: file not found")

	// ErrNotRegular is returned when the name refers to something other than
	// a regular file, such as the staging directory.
	ErrNotRegular = errors.New("storage: not a regular file")

	// ErrExists is returned by OpenForWriting and Commit when the target
	// exists and overwriting is disabled.
	ErrExists = errors.New("storage: file already exists")

	// ErrInvalidName is returned for names that fail filename validation.
	ErrInvalidName = errors.New("storage: invalid filename")

	// ErrUploadClosed is returned when using an upload after Commit or Abort.
	ErrUploadClosed = errors.New("storage: upload already closed")
)
