package storage

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/marmos91/fshare/internal/logger"
)

// Upload is an in-progress write to a staged file.
//
// Writes go straight to the staged file without the manager lock. Exactly one
// of Commit or Abort finishes the upload; later calls return ErrUploadClosed
// (Abort is a no-op after either).
type Upload struct {
	m       *Manager
	name    string
	staged  string
	f       afero.File
	written uint64
	closed  bool
}

// Name returns the target filename.
func (u *Upload) Name() string { return u.name }

// Written returns the number of bytes written so far.
func (u *Upload) Written() uint64 { return u.written }

// Write appends p to the staged file.
func (u *Upload) Write(p []byte) (int, error) {
	if u.closed {
		return 0, ErrUploadClosed
	}
	n, err := u.f.Write(p)
	u.written += uint64(n)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", u.name, err)
	}
	return n, nil
}

// Commit closes the staged file and moves it into the storage root.
// On failure the staged data is discarded.
func (u *Upload) Commit() error {
	if u.closed {
		return ErrUploadClosed
	}
	u.closed = true

	if err := u.f.Close(); err != nil {
		u.discard()
		return fmt.Errorf("close %s: %w", u.name, err)
	}
	if err := u.m.commit(u); err != nil {
		u.discard()
		return err
	}
	return nil
}

// Abort discards the staged data.
func (u *Upload) Abort() {
	if u.closed {
		return
	}
	u.closed = true
	_ = u.f.Close()
	u.discard()
}

func (u *Upload) discard() {
	if err := u.m.fs.Remove(u.staged); err != nil {
		logger.Warn("Failed to remove staged upload", logger.Filename(u.name), logger.Err(err))
	}
}
