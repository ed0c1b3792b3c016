// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package lzo1x

// LZO1X match classes: maximum back-reference distance per class.
const (
	maxOffsetM2 = 0x0800
	maxOffsetM3 = 0x4000
	maxOffsetM4 = 0xbfff
)

// Match length bounds per class.
const (
	maxLenM2 = 8
	maxLenM4 = 9
)

// Instruction byte markers for match classes.
const (
	markerM2 = 64
	markerM3 = 32
	markerM4 = 16
)

// Hash dictionary parameters used by the fast parser.
const (
	dictBits = 14                  // number of bits in the dictionary hash
	dictMask = (1 << dictBits) - 1 // mask for the dictionary hash
	dictHigh = (dictMask >> 1) + 1 // high bit for the dictionary hash
)
