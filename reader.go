// SPDX-License-Identifier: GPL-3.0-or-later
// Source: github.com/toddlipcon/hadoop-lzo

package lzop

import (
	"bufio"
	"io"
)

// Reader decodes an lzop container into the original byte stream. It is a
// pull-based io.ReadCloser: blocks are read, verified and decoded strictly
// in source order, one at a time, as the consumer drains them.
//
// A Reader is not safe for concurrent use, but any number of Readers may
// run concurrently against one shared Pool.
type Reader struct {
	src  *bufio.Reader
	pool *Pool // nil means ctx is private and discarded on Close

	hdr   *Header
	ctx   *Context
	cur   []byte // undelivered decoded bytes of the current block
	index int    // zero-based block counter, for diagnostics
	err   error  // sticky; io.EOF after the clean terminator

	closed bool
}

// NewReader prepares a Reader over src drawing its decompression context
// from pool. Nothing is read until the first call to Read or Header. A nil
// pool gives the Reader a private, unshared context.
func NewReader(src io.Reader, pool *Pool) *Reader {
	return &Reader{src: bufio.NewReader(src), pool: pool}
}

// Header parses the stream header if it has not been parsed yet and
// returns it.
func (r *Reader) Header() (*Header, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}

	if err := r.open(); err != nil {
		return nil, err
	}

	return r.hdr, nil
}

// open lazily parses the header and acquires the decompression context for
// the stream's method. After open succeeds the Reader owns the context
// until Close.
func (r *Reader) open() error {
	if r.hdr != nil {
		return nil
	}

	if r.err != nil {
		return r.err
	}

	hdr, err := readHeader(r.src)
	if err != nil {
		r.err = err
		return err
	}

	var ctx *Context
	if r.pool != nil {
		ctx, err = r.pool.Acquire(hdr.Method)
	} else {
		ctx, err = newContext(hdr.Method)
	}
	if err != nil {
		r.err = err
		return err
	}

	r.hdr = hdr
	r.ctx = ctx

	return nil
}

// Read implements io.Reader. The first call parses the header. Once the
// zero-length terminator is seen every further call returns io.EOF without
// touching the source again; any other error is equally sticky, and a
// failed Reader is only good for Close.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrReaderClosed
	}

	if err := r.open(); err != nil {
		return 0, err
	}

	for len(r.cur) == 0 {
		if r.err != nil {
			return 0, r.err
		}

		b, err := readBlock(r.src, r.hdr, r.ctx, r.index)
		if err != nil {
			r.err = err
			return 0, err
		}

		r.index++
		r.cur = b
	}

	n := copy(p, r.cur)
	r.cur = r.cur[n:]

	return n, nil
}

// Close releases the decompression context exactly once. It is safe to
// call multiple times and before any Read, and it does not close the
// underlying source. The context reference and the current block slice
// (which aliases the context's buffers) are dropped here so no later code
// path can touch memory another stream may already own.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true
	r.cur = nil

	if ctx := r.ctx; ctx != nil {
		r.ctx = nil
		ctx.Reset()
		if r.pool != nil {
			r.pool.Release(ctx)
		}
	}

	return nil
}
