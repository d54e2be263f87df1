// Package bufpool provides size-classed byte buffers for frame encoding.
//
// Outgoing frames are assembled into a single buffer (header plus payload) so
// they reach the socket in one write. Most frames are small status replies or
// 4 KiB download chunks; listings and client uploads can be larger. Reusing
// buffers keeps the per-frame allocation off the hot path of a transfer.
//
// Requests larger than the biggest class are allocated directly and never
// pooled, so an occasional huge listing does not pin memory.
//
// Usage:
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
package bufpool

import (
	"slices"
	"sync"
)

// Default size classes.
const (
	// DefaultSmallSize fits a status reply or one download chunk with its header.
	DefaultSmallSize = 8 << 10

	// DefaultMediumSize fits typical listings.
	DefaultMediumSize = 64 << 10

	// DefaultLargeSize matches the default frame payload limit.
	DefaultLargeSize = 1 << 20
)

type class struct {
	size int
	pool sync.Pool
}

// Pool hands out buffers from a fixed set of size classes.
// It is safe for concurrent use.
type Pool struct {
	classes []*class
}

// NewPool creates a pool with the given class sizes. Non-positive sizes are
// ignored; with no usable sizes the default classes are used.
func NewPool(sizes ...int) *Pool {
	sizes = slices.DeleteFunc(slices.Clone(sizes), func(s int) bool { return s <= 0 })
	if len(sizes) == 0 {
		sizes = []int{DefaultSmallSize, DefaultMediumSize, DefaultLargeSize}
	}
	slices.Sort(sizes)
	sizes = slices.Compact(sizes)

	p := &Pool{classes: make([]*class, 0, len(sizes))}
	for _, size := range sizes {
		c := &class{size: size}
		c.pool.New = func() any {
			buf := make([]byte, c.size)
			return &buf
		}
		p.classes = append(p.classes, c)
	}
	return p
}

// Get returns a slice of length size. Its capacity is that of the smallest
// class that fits, or exactly size when no class does.
func (p *Pool) Get(size int) []byte {
	for _, c := range p.classes {
		if size <= c.size {
			buf := *c.pool.Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns buf to the class matching its capacity. Buffers that were not
// obtained from a class are dropped.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	for _, c := range p.classes {
		if cap(buf) == c.size {
			full := buf[:c.size]
			c.pool.Put(&full)
			return
		}
	}
}

// MaxPooled returns the size of the largest class.
func (p *Pool) MaxPooled() int {
	return p.classes[len(p.classes)-1].size
}

var global = NewPool()

// Get returns a buffer from the package-level pool.
func Get(size int) []byte {
	return global.Get(size)
}

// Put returns a buffer to the package-level pool.
func Put(buf []byte) {
	global.Put(buf)
}
