// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package lzo1x

import "errors"

// Sentinel errors for block decoding.
var (
	// ErrEmptyInput is returned when the input block is empty.
	ErrEmptyInput = errors.New("empty input")
	// ErrInputOverrun is returned when the decoder reads past the end of input.
	ErrInputOverrun = errors.New("input overrun")
	// ErrOutputOverrun is returned when the decoder would write past the output buffer.
	ErrOutputOverrun = errors.New("output overrun")
	// ErrLookBehindUnderrun is returned when a back-reference points before the start of the output.
	ErrLookBehindUnderrun = errors.New("lookbehind underrun")
	// ErrUnexpectedEOF is returned when the block ends before the terminator.
	ErrUnexpectedEOF = errors.New("unexpected end of input")
	// ErrNegativeLength is returned when Decompress is called with a negative output length.
	ErrNegativeLength = errors.New("negative output length")
)
