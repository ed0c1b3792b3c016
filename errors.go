// SPDX-License-Identifier: GPL-3.0-or-later
// Source: github.com/toddlipcon/hadoop-lzo

package lzop

import (
	"errors"
	"fmt"
	"io"
)

// Sentinel errors for container decoding. All of them are terminal for the
// stream that reports them; the decoder never retries or resynchronizes.
var (
	// ErrInvalidFormat is returned for structural damage: bad magic,
	// unsupported versions or flags, or impossible size relationships.
	ErrInvalidFormat = errors.New("lzop: invalid format")
	// ErrHeaderChecksum is returned when the stream header fails its own
	// checksum before any block is read.
	ErrHeaderChecksum = errors.New("lzop: header checksum mismatch")
	// ErrChecksum is the sentinel behind ChecksumError for errors.Is.
	ErrChecksum = errors.New("lzop: checksum mismatch")
	// ErrUnexpectedEOF is returned when the source ends mid-field or
	// mid-payload, as opposed to the clean zero-length terminator.
	ErrUnexpectedEOF = errors.New("lzop: unexpected end of stream")
	// ErrDecompress is returned when the block decompressor reports a fault
	// or produces output of a different length than the block declares.
	ErrDecompress = errors.New("lzop: block decompression failed")
	// ErrReaderClosed is returned by Read and Header after Close.
	ErrReaderClosed = errors.New("lzop: reader is closed")
	// ErrWriterClosed is returned by Write after Close.
	ErrWriterClosed = errors.New("lzop: writer is closed")
)

// ChecksumError reports a block whose stored checksum does not match the
// computed one. Block is zero-based; Data names which checksum failed,
// "compressed" or "uncompressed". It unwraps to ErrChecksum.
type ChecksumError struct {
	Block int
	Data  string
	Want  uint32
	Got   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("lzop: block %d: %s data checksum mismatch: want %#08x got %#08x",
		e.Block, e.Data, e.Want, e.Got)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksum }

// eofToTruncated converts io-level EOFs into ErrUnexpectedEOF. Inside the
// container any early EOF is truncation; the only clean end of a stream is
// the zero-length block.
func eofToTruncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEOF
	}

	return err
}
