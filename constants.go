// SPDX-License-Identifier: GPL-3.0-or-later
// Source: github.com/toddlipcon/hadoop-lzo

package lzop

import "fmt"

// lzopMagic opens every lzop stream.
var lzopMagic = [9]byte{0x89, 'L', 'Z', 'O', 0x00, 0x0d, 0x0a, 0x1a, 0x0a}

const (
	// lzopVersion is the lzop release this package writes into headers.
	lzopVersion = 0x1040
	// minLzopVersion is the oldest header layout this package can parse;
	// lzop changed the header shape in 0.94.
	minLzopVersion = 0x0940
	// lzoLibVersion is the LZO library version recorded in written headers.
	lzoLibVersion = 0x2080
)

// Method identifies the compression algorithm recorded in the stream
// header. All lzop methods are LZO1X variants distinguished only by the
// encoder effort; they share one decoder.
type Method uint8

const (
	MethodLZO1X1   Method = 1 // fast LZO1X-1
	MethodLZO1X15  Method = 2 // LZO1X-1(15), larger working memory
	MethodLZO1X999 Method = 3 // LZO1X-999, optimal parse
)

func (m Method) valid() bool {
	return m >= MethodLZO1X1 && m <= MethodLZO1X999
}

func (m Method) String() string {
	switch m {
	case MethodLZO1X1:
		return "LZO1X-1"
	case MethodLZO1X15:
		return "LZO1X-1(15)"
	case MethodLZO1X999:
		return "LZO1X-999"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

// Header flag bits, from lzop's conf.h.
const (
	flagAdler32D    = 0x00000001 // Adler-32 over uncompressed block data
	flagAdler32C    = 0x00000002 // Adler-32 over compressed payloads
	flagExtraField  = 0x00000040
	flagCRC32D      = 0x00000100 // CRC-32 over uncompressed block data
	flagCRC32C      = 0x00000200 // CRC-32 over compressed payloads
	flagMultipart   = 0x00000400
	flagFilter      = 0x00000800
	flagHeaderCRC32 = 0x00001000 // header checksum is CRC-32, not Adler-32
	flagOSUnix      = 0x03000000

	flagOSMask      = 0xff000000
	flagCharsetMask = 0x00f00000
	flagReserved    = ^uint32(0) &^ (0x3fff | flagOSMask | flagCharsetMask)
)

// maxBlockSize bounds both size fields of a block. Headers declaring more
// are treated as corrupt rather than allocated.
const maxBlockSize = 64 << 20

// DefaultBlockSize is the uncompressed block granularity the Writer
// buffers at, the same 256 KiB lzop uses.
const DefaultBlockSize = 256 * 1024
