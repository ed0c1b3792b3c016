// SPDX-License-Identifier: GPL-3.0-or-later
// Source: github.com/toddlipcon/hadoop-lzo

package lzop

import (
	"fmt"
	"sync"

	"github.com/toddlipcon/hadoop-lzo/lzo1x"
)

// BlockDecompressor is the block decompression primitive the container
// drives. It decodes one compressed payload into dst, which is sized to
// the block's declared uncompressed length, and reports how many bytes it
// wrote. Implementations must fail rather than write beyond dst or return
// output of the wrong shape, and must be deterministic after a Reset.
type BlockDecompressor interface {
	DecompressBlock(dst, src []byte) (int, error)
}

// lzo1xDecompressor is the built-in primitive. Every method byte lzop
// records is an LZO1X variant and decodes through the same decoder.
type lzo1xDecompressor struct{}

func (lzo1xDecompressor) DecompressBlock(dst, src []byte) (int, error) {
	out, err := lzo1x.DecompressInto(src, dst)
	if err != nil {
		return 0, err
	}

	return len(out), nil
}

// Context is the reusable working state one stream needs to decode blocks:
// the decompressor for the stream's method family plus the input and
// output scratch buffers. Exactly one Reader owns a Context between
// Acquire and Release; the Pool serializes only the hand-off, the Context
// itself is not safe for concurrent use.
type Context struct {
	method Method
	dec    BlockDecompressor
	in     []byte
	out    []byte
	idle   bool // in the pool's idle set; guarded by the pool's mutex
}

// input returns the compressed-payload scratch buffer resized to n bytes.
func (c *Context) input(n int) []byte {
	if cap(c.in) < n {
		c.in = make([]byte, n)
	}

	return c.in[:n]
}

// output returns the decoded-block scratch buffer resized to n bytes.
func (c *Context) output(n int) []byte {
	if cap(c.out) < n {
		c.out = make([]byte, n)
	}

	return c.out[:n]
}

// Reset clears any decoder state carried over from the previous stream so
// the context can serve an unrelated one. Idempotent. The owner must call
// Reset before Release; the Pool never resets on the owner's behalf.
func (c *Context) Reset() {
	if r, ok := c.dec.(interface{ Reset() }); ok {
		r.Reset()
	}
}

// PoolOptions configures a Pool.
type PoolOptions struct {
	// Limit caps the number of live contexts per method family. Once the
	// cap is reached Acquire blocks until a context is released. 0 means
	// unbounded: Acquire never blocks, the pool grows instead, trading
	// memory for latency.
	Limit int

	// New overrides the decompressor constructor, one instance per
	// context. Nil uses the built-in LZO1X decoder.
	New func(Method) (BlockDecompressor, error)
}

// Pool hands out decompression contexts to Readers and reclaims them. The
// idle set is keyed by method family and guarded by one mutex, safe for
// concurrent Acquire and Release from many goroutines. The zero value is
// an unbounded pool ready for use.
//
// Ownership is a linear hand-off: between Acquire and Release a context
// has exactly one owner, and after Release the former owner must never
// touch it again, not even on its own close path. Release does not reset;
// resetting checked-in state on behalf of an owner that may still be
// using it is precisely the corruption this contract exists to prevent.
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond
	opts PoolOptions

	idle map[Method][]*Context
	live map[Method]int // existing contexts per family, idle or owned

	created int
	inUse   int
}

// NewPool returns a Pool with the given options; nil means unbounded with
// the built-in decompressor.
func NewPool(opts *PoolOptions) *Pool {
	p := &Pool{}
	if opts != nil {
		p.opts = *opts
	}

	return p
}

// Acquire returns an idle context for the method family or creates a new
// one. It blocks only when PoolOptions.Limit is set and exhausted.
func (p *Pool) Acquire(m Method) (*Context, error) {
	if !m.valid() {
		return nil, fmt.Errorf("%w: unsupported method %d", ErrInvalidFormat, m)
	}

	p.mu.Lock()
	if p.idle == nil {
		p.idle = make(map[Method][]*Context)
		p.live = make(map[Method]int)
	}

	for {
		if s := p.idle[m]; len(s) > 0 {
			c := s[len(s)-1]
			p.idle[m] = s[:len(s)-1]
			c.idle = false
			p.inUse++
			p.mu.Unlock()

			return c, nil
		}

		if p.opts.Limit <= 0 || p.live[m] < p.opts.Limit {
			p.live[m]++
			p.created++
			p.inUse++
			newFn := p.opts.New
			p.mu.Unlock()

			dec, err := newDecompressor(newFn, m)
			if err != nil {
				p.mu.Lock()
				p.live[m]--
				p.created--
				p.inUse--
				if p.cond != nil {
					p.cond.Signal()
				}
				p.mu.Unlock()

				return nil, err
			}

			return &Context{method: m, dec: dec}, nil
		}

		if p.cond == nil {
			p.cond = sync.NewCond(&p.mu)
		}
		p.cond.Wait()
	}
}

// Release returns a context to the idle set. The caller gives up ownership
// with this call and must have called Reset beforehand. Releasing a
// context that is already idle is a programming error and panics, the same
// contract as unlocking an unlocked mutex.
func (p *Pool) Release(c *Context) {
	if c == nil {
		return
	}

	p.mu.Lock()
	if c.idle {
		p.mu.Unlock()
		panic("lzop: Release of context already in pool")
	}

	c.idle = true
	if p.idle == nil {
		p.idle = make(map[Method][]*Context)
		p.live = make(map[Method]int)
	}
	p.idle[c.method] = append(p.idle[c.method], c)
	p.inUse--
	if p.cond != nil {
		p.cond.Signal()
	}
	p.mu.Unlock()
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Created int // contexts ever constructed
	Idle    int // contexts currently in the idle set
	InUse   int // contexts currently owned by a stream
}

// Stats returns a consistent snapshot of the pool counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	idle := 0
	for _, s := range p.idle {
		idle += len(s)
	}

	return PoolStats{Created: p.created, Idle: idle, InUse: p.inUse}
}

// newDecompressor constructs the primitive for one context.
func newDecompressor(newFn func(Method) (BlockDecompressor, error), m Method) (BlockDecompressor, error) {
	if newFn != nil {
		return newFn(m)
	}

	return lzo1xDecompressor{}, nil
}

// newContext builds a pool-less context for Readers created without a
// shared Pool; it is discarded on Close instead of released.
func newContext(m Method) (*Context, error) {
	if !m.valid() {
		return nil, fmt.Errorf("%w: unsupported method %d", ErrInvalidFormat, m)
	}

	return &Context{method: m, dec: lzo1xDecompressor{}}, nil
}
