// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package lzo1x

// Compress encodes src as one LZO1X block using the fast LZO1X-1 parser and
// appends the stream terminator. An empty src yields just the terminator.
func Compress(src []byte) []byte {
	var out []byte

	tail := len(src)
	if len(src) > maxLenM2+5 {
		out, tail = fastParse(src)
	}

	if tail > 0 {
		out = emitLiterals(out, src[len(src)-tail:])
	}

	return append(out, markerM4|1, 0, 0)
}

// fastParse runs the LZO1X-1 greedy parse over in and returns the encoded
// instructions plus the size of the pending literal tail.
func fastParse(in []byte) (out []byte, tail int) {
	limit := len(in) - maxLenM2 - 5
	dict := make([]int32, 1<<dictBits)
	lit := 0 // start of the pending literal run
	pos := 4

	for {
		// Hash the next 4-byte sequence into the dictionary.
		key := int(in[pos+3])
		key = (key << 6) ^ int(in[pos+2])
		key = (key << 5) ^ int(in[pos+1])
		key = (key << 5) ^ int(in[pos])
		slot := ((0x21 * key) >> 5) & dictMask

		matched := false

		// Probe two related hash slots to improve the hit rate without any
		// extra structures.
		for attempt := 0; attempt < 2; attempt++ {
			mpos, moff := candidate(dict, in, pos, slot)
			usable := mpos >= 0 && (moff <= maxOffsetM2 || in[mpos+3] == in[pos+3])

			if usable && in[mpos] == in[pos] && in[mpos+1] == in[pos+1] && in[mpos+2] == in[pos+2] {
				dict[slot] = int32(pos + 1)

				if pos != lit {
					out = emitLiterals(out, in[lit:pos])
					lit = pos
				}

				out, pos = emitMatch(out, in, mpos, moff, pos, lit)
				lit = pos
				matched = true
				break
			}

			if attempt == 0 {
				slot = (slot & (dictMask & 0x7ff)) ^ (dictHigh | 0x1f)
			}
		}

		if matched {
			if pos >= limit {
				break
			}

			continue
		}

		// Literal step with lazy skip, standard for the LZO1X-1 parser.
		dict[slot] = int32(pos + 1)
		pos += 1 + (pos-lit)>>5
		if pos >= limit {
			break
		}
	}

	return out, len(in) - lit
}

// emitMatch extends the match found at mpos and appends the shortest opcode
// class that can represent it. Returns the output and the new input cursor.
func emitMatch(out, in []byte, mpos, moff, pos, lit int) ([]byte, int) {
	var i int
	pos += 3

	// Fast short extension over the first bytes; this is the hot path.
	for i = 3; i < 9; i++ {
		pos++

		if in[mpos+i] != in[pos-1] {
			break
		}
	}

	if i < 9 {
		pos--
		mlen := pos - lit

		switch {
		case moff <= maxOffsetM2:
			moff--
			out = append(out,
				byte(((mlen-1)<<5)|((moff&7)<<2)),
				byte(moff>>3),
			)

		case moff <= maxOffsetM3:
			moff--
			out = append(out,
				byte(markerM3|(mlen-2)),
				byte((moff&63)<<2),
				byte(moff>>6),
			)

		default:
			moff -= 0x4000
			out = append(out,
				byte(markerM4|((moff&0x4000)>>11)|(mlen-2)),
				byte((moff&63)<<2),
				byte(moff>>6),
			)
		}

		return out, pos
	}

	// Slow path for long matches beyond the short extension window.
	m := mpos + maxLenM2 + 1
	for pos < len(in) && in[m] == in[pos] {
		m++
		pos++
	}

	mlen := pos - lit
	if moff <= maxOffsetM3 {
		moff--
		if mlen <= 33 {
			out = append(out, byte(markerM3|(mlen-2)))
		} else {
			mlen -= 33
			out = append(out, markerM3)
			out = emit255(out, mlen)
		}
	} else {
		moff -= 0x4000
		if mlen <= maxLenM4 {
			out = append(out, byte(markerM4|((moff&0x4000)>>11)|(mlen-2)))
		} else {
			mlen -= maxLenM4
			out = append(out, byte(markerM4|((moff&0x4000)>>11)))
			out = emit255(out, mlen)
		}
	}

	out = append(out, byte((moff&63)<<2), byte(moff>>6))

	return out, pos
}

// candidate returns the dictionary match position and offset for slot, or
// (-1, 0) when the slot has no usable entry.
func candidate(dict []int32, in []byte, pos, slot int) (int, int) {
	mpos := int(dict[slot]) - 1
	if mpos < 0 || pos == mpos || pos-mpos > maxOffsetM4 {
		return -1, 0
	}

	moff := pos - mpos
	if moff <= maxOffsetM2 || in[mpos+3] == in[pos+3] {
		return mpos, moff
	}

	return -1, 0
}

// emitLiterals appends a literal run and its length encoding.
func emitLiterals(out, lit []byte) []byte {
	n := len(lit)
	if n == 0 {
		return out
	}

	switch {
	case len(out) == 0 && n <= 238:
		out = append(out, byte(17+n))
	case n <= 3:
		out[len(out)-2] |= byte(n)
	case n <= 18:
		out = append(out, byte(n-3))
	default:
		out = append(out, 0)
		out = emit255(out, n-18)
	}

	return append(out, lit...)
}

// emit255 appends n in the 255-per-zero-byte run-length form.
func emit255(out []byte, n int) []byte {
	for n > 255 {
		out = append(out, 0)
		n -= 255
	}

	return append(out, byte(n))
}
