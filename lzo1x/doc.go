// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

/*
Package lzo1x implements raw LZO1X block compression and decompression
(lzo1x_decompress_safe compatible).

This is the block primitive underneath the lzop container format: it knows
nothing about headers, checksums or framing, only how to code a single
block. The format uses match types M2–M4 with different offset and length
bounds; a block ends with the standard terminator bytes `0x11 0x00 0x00`.
The decoder is bounds-checked on both sides and fails instead of producing
output of the wrong shape.

Decoding needs the expected output length:

	out, err := lzo1x.Decompress(block, expectedLen)

To reuse caller-managed output memory:

	dst := make([]byte, expectedLen)
	out, err := lzo1x.DecompressInto(block, dst)

The encoder is the fast LZO1X-1 parser, the method lzop records by default:

	compressed := lzo1x.Compress(data)
*/
package lzo1x
