package adapter

import (
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// sessionEntry is the registry's view of one running session: the connection
// it owns and a channel closed when its worker returns. The registry never
// touches session state.
type sessionEntry struct {
	id      uint64
	conn    net.Conn
	remote  string
	started time.Time
	done    chan struct{}
}

func (e *sessionEntry) live() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// registry bounds and tracks live sessions.
//
// Reaping finished entries, checking capacity and inserting the new entry
// happen under one lock, so the number of live sessions never exceeds max
// regardless of how many connections arrive at once.
type registry struct {
	mu      sync.Mutex
	entries map[uint64]*sessionEntry
	max     int // 0 = unlimited
	closed  bool
	nextID  atomic.Uint64
}

func newRegistry(limit int) *registry {
	return &registry{entries: make(map[uint64]*sessionEntry), max: limit}
}

// reserve reaps finished sessions and, if capacity remains, registers conn
// under a fresh session ID. It returns false when the registry is full or
// closed.
func (r *registry) reserve(conn net.Conn) (*sessionEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reapLocked()
	if r.closed || (r.max > 0 && len(r.entries) >= r.max) {
		return nil, false
	}

	e := &sessionEntry{
		id:      r.nextID.Add(1),
		conn:    conn,
		remote:  conn.RemoteAddr().String(),
		started: time.Now(),
		done:    make(chan struct{}),
	}
	r.entries[e.id] = e
	return e, true
}

// finish marks e as no longer live. The entry stays registered until the next
// reap so the dispatcher observes the worker's exit rather than the worker
// removing itself.
func (r *registry) finish(e *sessionEntry) {
	close(e.done)
}

// close stops further reservations.
func (r *registry) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// reap removes finished entries and returns how many were removed.
func (r *registry) reap() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reapLocked()
}

func (r *registry) reapLocked() int {
	n := 0
	for id, e := range r.entries {
		if !e.live() {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// live returns the number of sessions whose worker is still running.
func (r *registry) live() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.live() {
			n++
		}
	}
	return n
}

// snapshot returns the currently registered entries.
func (r *registry) snapshot() []*sessionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*sessionEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// joinAll blocks until every registered worker has returned, then empties
// the registry. The registry should be closed first so no entry is added
// behind the snapshot.
func (r *registry) joinAll() {
	for _, e := range r.snapshot() {
		<-e.done
	}
	r.reap()
}
