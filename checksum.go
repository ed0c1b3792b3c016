// SPDX-License-Identifier: GPL-3.0-or-later
// Source: github.com/toddlipcon/hadoop-lzo

package lzop

import (
	"hash/adler32"
	"hash/crc32"
)

// ChecksumKind selects the checksum algorithm applied to a byte range.
// Which kind applies to which data is a per-stream decision made once by
// the header flags and carried through block decoding as a value.
type ChecksumKind uint8

const (
	ChecksumNone ChecksumKind = iota
	ChecksumAdler32
	ChecksumCRC32
)

func (k ChecksumKind) String() string {
	switch k {
	case ChecksumAdler32:
		return "Adler-32"
	case ChecksumCRC32:
		return "CRC-32"
	default:
		return "none"
	}
}

func (k ChecksumKind) enabled() bool { return k != ChecksumNone }

// Sum computes the checksum of data. ChecksumNone sums to 0.
func (k ChecksumKind) Sum(data []byte) uint32 {
	switch k {
	case ChecksumAdler32:
		return adler32.Checksum(data)
	case ChecksumCRC32:
		return crc32.ChecksumIEEE(data)
	default:
		return 0
	}
}

// Verify reports whether data matches the stored checksum. ChecksumNone
// accepts anything without reading data.
func (k ChecksumKind) Verify(data []byte, want uint32) bool {
	if k == ChecksumNone {
		return true
	}

	return k.Sum(data) == want
}
