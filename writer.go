// SPDX-License-Identifier: GPL-3.0-or-later
// Source: github.com/toddlipcon/hadoop-lzo

package lzop

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/toddlipcon/hadoop-lzo/lzo1x"
)

// WriterOptions configures a Writer.
type WriterOptions struct {
	// BlockSize is the uncompressed block granularity; at most one block
	// is buffered at a time. Defaults to DefaultBlockSize.
	BlockSize int

	// DChecksum is recorded per block over the uncompressed data,
	// CChecksum over the compressed payload of compressed blocks.
	// ChecksumNone disables the respective checksum.
	DChecksum ChecksumKind
	CChecksum ChecksumKind

	// Name and ModTime are stored in the header when set.
	Name    string
	ModTime time.Time
}

// DefaultWriterOptions matches lzop's defaults: 256 KiB blocks and
// Adler-32 checksums on both uncompressed and compressed data.
func DefaultWriterOptions() *WriterOptions {
	return &WriterOptions{
		BlockSize: DefaultBlockSize,
		DChecksum: ChecksumAdler32,
		CChecksum: ChecksumAdler32,
	}
}

// Writer encodes a byte stream into an lzop container, the counterpart of
// Reader. Input is buffered to BlockSize, compressed with the fast LZO1X-1
// encoder, and framed per block; blocks that do not shrink are stored raw.
type Writer struct {
	dst  io.Writer
	opts WriterOptions

	buf        []byte // pending uncompressed bytes, less than one block
	headerDone bool
	closed     bool
	err        error
}

// NewWriter prepares a Writer to dst. A nil opts means
// DefaultWriterOptions. The header is written on the first Write or on
// Close, whichever comes first.
func NewWriter(dst io.Writer, opts *WriterOptions) *Writer {
	if opts == nil {
		opts = DefaultWriterOptions()
	}

	w := &Writer{dst: dst, opts: *opts}
	if w.opts.BlockSize <= 0 {
		w.opts.BlockSize = DefaultBlockSize
	}
	if w.opts.BlockSize > maxBlockSize {
		w.opts.BlockSize = maxBlockSize
	}

	return w
}

// Write implements io.Writer. Full blocks are framed and flushed as the
// buffer fills; the remainder waits for more input or Close.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrWriterClosed
	}

	if w.err != nil {
		return 0, w.err
	}

	if err := w.writeHeader(); err != nil {
		return 0, err
	}

	total := 0
	for len(p) > 0 {
		n := min(w.opts.BlockSize-len(w.buf), len(p))
		w.buf = append(w.buf, p[:n]...)
		p = p[n:]
		total += n

		if len(w.buf) == w.opts.BlockSize {
			if err := w.writeBlock(w.buf); err != nil {
				return total, err
			}

			w.buf = w.buf[:0]
		}
	}

	return total, nil
}

// Close flushes the pending block and writes the zero-length terminator.
// It does not close the destination writer. Safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}

	w.closed = true
	if w.err != nil {
		return w.err
	}

	if err := w.writeHeader(); err != nil {
		return err
	}

	if len(w.buf) > 0 {
		if err := w.writeBlock(w.buf); err != nil {
			return err
		}

		w.buf = nil
	}

	var term [4]byte
	if _, err := w.dst.Write(term[:]); err != nil {
		w.err = err
		return err
	}

	return nil
}

// writeHeader emits the magic and the checksummed header region once.
func (w *Writer) writeHeader() error {
	if w.headerDone {
		return nil
	}

	var h []byte
	h = binary.BigEndian.AppendUint16(h, lzopVersion)
	h = binary.BigEndian.AppendUint16(h, lzoLibVersion)
	h = binary.BigEndian.AppendUint16(h, minLzopVersion)
	h = append(h, byte(MethodLZO1X1), 1) // method, level

	flags := uint32(flagOSUnix)
	switch w.opts.DChecksum {
	case ChecksumAdler32:
		flags |= flagAdler32D
	case ChecksumCRC32:
		flags |= flagCRC32D
	}
	switch w.opts.CChecksum {
	case ChecksumAdler32:
		flags |= flagAdler32C
	case ChecksumCRC32:
		flags |= flagCRC32C
	}
	h = binary.BigEndian.AppendUint32(h, flags)

	h = binary.BigEndian.AppendUint32(h, 0o644) // mode

	var mtime uint32
	if !w.opts.ModTime.IsZero() {
		mtime = uint32(w.opts.ModTime.Unix())
	}
	h = binary.BigEndian.AppendUint32(h, mtime)
	h = binary.BigEndian.AppendUint32(h, 0) // gmtdiff

	name := w.opts.Name
	if len(name) > 255 {
		name = name[:255]
	}
	h = append(h, byte(len(name)))
	h = append(h, name...)

	out := make([]byte, 0, len(lzopMagic)+len(h)+4)
	out = append(out, lzopMagic[:]...)
	out = append(out, h...)
	out = binary.BigEndian.AppendUint32(out, ChecksumAdler32.Sum(h))

	if _, err := w.dst.Write(out); err != nil {
		w.err = err
		return err
	}

	w.headerDone = true

	return nil
}

// writeBlock frames one uncompressed block. Compression only pays when it
// actually shrinks the data; otherwise the block is stored raw with its
// compressed size re-encoded equal to the uncompressed size and no
// compressed checksum.
func (w *Writer) writeBlock(data []byte) error {
	cmp := lzo1x.Compress(data)

	frame := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	if len(cmp) < len(data) {
		frame = binary.BigEndian.AppendUint32(frame, uint32(len(cmp)))
		if w.opts.DChecksum.enabled() {
			frame = binary.BigEndian.AppendUint32(frame, w.opts.DChecksum.Sum(data))
		}
		if w.opts.CChecksum.enabled() {
			frame = binary.BigEndian.AppendUint32(frame, w.opts.CChecksum.Sum(cmp))
		}
		frame = append(frame, cmp...)
	} else {
		frame = binary.BigEndian.AppendUint32(frame, uint32(len(data)))
		if w.opts.DChecksum.enabled() {
			frame = binary.BigEndian.AppendUint32(frame, w.opts.DChecksum.Sum(data))
		}
		frame = append(frame, data...)
	}

	if _, err := w.dst.Write(frame); err != nil {
		w.err = err
		return err
	}

	return nil
}
