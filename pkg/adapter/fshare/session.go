package fshare

import (
	"time"

	"github.com/marmos91/fshare/pkg/storage"
)

// State is the position of a session in its lifecycle.
type State uint8

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateUploading
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateUploading:
		return "uploading"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// pendingUpload is the upload a session is currently receiving.
type pendingUpload struct {
	upload   *storage.Upload
	declared uint64
	started  time.Time
}

// Session is the protocol state of one connection. It is owned by the
// connection's goroutine and never shared.
type Session struct {
	ID                 uint64
	State              State
	FailedAuthAttempts int
	LastActivity       time.Time

	pending *pendingUpload
}

func newSession(id uint64, now time.Time) *Session {
	return &Session{
		ID:           id,
		State:        StateUnauthenticated,
		LastActivity: now,
	}
}

// Authenticated reports whether the peer has presented the shared secret.
func (s *Session) Authenticated() bool {
	return s.State == StateAuthenticated || s.State == StateUploading
}

// expired reports whether more than timeout elapsed between the previous
// activity and now. A zero timeout never expires.
func (s *Session) expired(now time.Time, timeout time.Duration) bool {
	return timeout > 0 && now.Sub(s.LastActivity) > timeout
}

func (s *Session) touch(now time.Time) {
	s.LastActivity = now
}

// beginUpload records u as the active upload.
func (s *Session) beginUpload(u *storage.Upload, declared uint64) {
	s.pending = &pendingUpload{upload: u, declared: declared, started: time.Now()}
	s.State = StateUploading
}

// endUpload clears the active upload and returns it.
func (s *Session) endUpload() *pendingUpload {
	p := s.pending
	s.pending = nil
	if s.State == StateUploading {
		s.State = StateAuthenticated
	}
	return p
}

// recordAuthFailure counts a wrong password and reports whether the
// session has now reached limit.
func (s *Session) recordAuthFailure(limit int) bool {
	s.FailedAuthAttempts++
	return s.FailedAuthAttempts >= limit
}

func (s *Session) authenticate() {
	s.FailedAuthAttempts = 0
	if s.State == StateUnauthenticated {
		s.State = StateAuthenticated
	}
}
