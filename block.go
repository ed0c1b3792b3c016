// SPDX-License-Identifier: GPL-3.0-or-later
// Source: github.com/toddlipcon/hadoop-lzo

package lzop

import (
	"encoding/binary"
	"fmt"
	"io"
)

// readBlock reads, verifies and decodes the next block of the container.
// It returns io.EOF on the zero-length terminator without reading further.
//
// Block layout on the wire:
//
//	uncompressedSize u32 | compressedSize u32 | [dChecksum u32] |
//	[cChecksum u32, compressed blocks only] | payload[compressedSize]
//
// A block whose compressed size equals its uncompressed size is STORED:
// the payload is the original bytes, carries no compressed checksum, and
// never goes through the decompressor. The returned slice aliases the
// context's scratch buffers and is valid until the next call or until the
// context is released.
func readBlock(src io.Reader, hdr *Header, ctx *Context, index int) ([]byte, error) {
	ulen, err := readUint32(src)
	if err != nil {
		return nil, err
	}
	if ulen == 0 {
		return nil, io.EOF
	}
	if ulen > maxBlockSize {
		return nil, fmt.Errorf("%w: block %d: uncompressed size %d exceeds %d",
			ErrInvalidFormat, index, ulen, maxBlockSize)
	}

	clen, err := readUint32(src)
	if err != nil {
		return nil, err
	}
	if clen > maxBlockSize {
		return nil, fmt.Errorf("%w: block %d: compressed size %d exceeds %d",
			ErrInvalidFormat, index, clen, maxBlockSize)
	}

	var sumD uint32
	if hdr.DChecksum.enabled() {
		if sumD, err = readUint32(src); err != nil {
			return nil, err
		}
	}

	switch {
	case clen == ulen:
		// STORED block.
		payload := ctx.input(int(ulen))
		if _, err := io.ReadFull(src, payload); err != nil {
			return nil, eofToTruncated(err)
		}

		if !hdr.DChecksum.Verify(payload, sumD) {
			return nil, &ChecksumError{Block: index, Data: "uncompressed", Want: sumD, Got: hdr.DChecksum.Sum(payload)}
		}

		return payload, nil

	case clen < ulen:
		// COMPRESSED block. The compressed payload is verified before the
		// decompressor ever sees it.
		var sumC uint32
		if hdr.CChecksum.enabled() {
			if sumC, err = readUint32(src); err != nil {
				return nil, err
			}
		}

		payload := ctx.input(int(clen))
		if _, err := io.ReadFull(src, payload); err != nil {
			return nil, eofToTruncated(err)
		}

		if !hdr.CChecksum.Verify(payload, sumC) {
			return nil, &ChecksumError{Block: index, Data: "compressed", Want: sumC, Got: hdr.CChecksum.Sum(payload)}
		}

		out := ctx.output(int(ulen))
		n, err := ctx.dec.DecompressBlock(out, payload)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w: %w", index, ErrDecompress, err)
		}
		if n != int(ulen) {
			return nil, fmt.Errorf("block %d: %w: decoded %d bytes, header declares %d",
				index, ErrDecompress, n, ulen)
		}

		if !hdr.DChecksum.Verify(out, sumD) {
			return nil, &ChecksumError{Block: index, Data: "uncompressed", Want: sumD, Got: hdr.DChecksum.Sum(out)}
		}

		return out, nil

	default:
		return nil, fmt.Errorf("%w: block %d: compressed size %d exceeds uncompressed size %d",
			ErrInvalidFormat, index, clen, ulen)
	}
}

// readUint32 reads one big-endian uint32, mapping EOF to truncation.
func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, eofToTruncated(err)
	}

	return binary.BigEndian.Uint32(b[:]), nil
}
