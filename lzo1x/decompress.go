// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package lzo1x

const (
	// shortMatchBase is the base distance of the short-match form selected
	// when the previous instruction left a 4-literal tail (state 4).
	shortMatchBase = 0x0800

	// maxZeroRun limits zero-extension runs so malformed inputs cannot
	// overflow run-length reconstruction math.
	maxZeroRun = int(^uint(0)/255) - 2
)

// Decompress decodes one LZO1X block into a freshly allocated buffer of at
// most outLen bytes. The result may be shorter than outLen when the stream
// terminator arrives early.
func Decompress(src []byte, outLen int) ([]byte, error) {
	if outLen < 0 {
		return nil, ErrNegativeLength
	}

	return DecompressInto(src, make([]byte, outLen))
}

// DecompressInto decodes one LZO1X block into dst and returns the decoded
// prefix of dst. No output allocation beyond what the caller provides.
func DecompressInto(src, dst []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrEmptyInput
	}

	d := decoder{src: src, dst: dst}
	if err := d.run(); err != nil {
		return nil, err
	}

	return dst[:d.out], nil
}

// decoder holds the cursors of one block decode.
type decoder struct {
	src []byte
	dst []byte
	in  int
	out int
}

// run drives the LZO1X instruction state machine until the terminator.
// `state` is the length of the literal tail the previous instruction left
// behind; it selects how the low opcode forms are interpreted.
func (d *decoder) run() error {
	inst, err := d.u8()
	if err != nil {
		return err
	}

	state := 0
	reload := true

	// The first byte can encode an initial literal run directly; otherwise
	// it is already the first instruction of the main loop.
	switch {
	case inst >= 22:
		if err := d.literals(int(inst) - 17); err != nil {
			return err
		}

		state = 4

	case inst >= 18:
		state = int(inst) - 17
		if err := d.literals(state); err != nil {
			return err
		}

	default:
		reload = false
	}

	for {
		if reload {
			if d.in >= len(d.src) {
				return ErrUnexpectedEOF
			}

			inst = d.src[d.in]
			d.in++
		}
		reload = true

		var dist, length, next int

		switch {
		case inst >= markerM2:
			b, err := d.u8()
			if err != nil {
				return err
			}

			dist = (int(b) << 3) + ((int(inst) >> 2) & 0x7) + 1
			length = (int(inst) >> 5) + 1
			next = int(inst & 0x03)

		case inst >= markerM3:
			length = int(inst&0x1f) + 2
			if length == 2 {
				n, err := d.extendedLength(31)
				if err != nil {
					return err
				}

				length += n
			}

			v, err := d.le16()
			if err != nil {
				return err
			}

			dist = (int(v) >> 2) + 1
			next = int(v & 0x03)

		case inst >= markerM4:
			length = int(inst&0x7) + 2
			if length == 2 {
				n, err := d.extendedLength(7)
				if err != nil {
					return err
				}

				length += n
			}

			v, err := d.le16()
			if err != nil {
				return err
			}

			base := ((int(inst) & 0x8) << 11) + (int(v) >> 2)
			if base == 0 {
				// The terminator is M4 with distance 0 and length 3.
				if length != 3 {
					return ErrInputOverrun
				}

				return nil
			}

			dist = base + 0x4000
			next = int(v & 0x03)

		default:
			if state == 0 {
				// In state 0 this opcode form encodes a literal-run length
				// directly, with optional zero-extension for long runs.
				run := int(inst) + 3
				if run == 3 {
					n, err := d.extendedLength(15)
					if err != nil {
						return err
					}

					run += n
				}

				if err := d.literals(run); err != nil {
					return err
				}

				// A literal-run stream with nothing behind it is malformed:
				// a valid block always carries a terminator.
				if d.in >= len(d.src) {
					return ErrInputOverrun
				}

				state = 4
				continue
			}

			// In non-zero states this opcode form is a short back-reference
			// needing one trailing byte to complete the distance bits.
			tail, err := d.u8()
			if err != nil {
				return err
			}

			next = int(inst & 0x03)
			if state == 4 {
				// Short-match form used after a 4-literal tail.
				dist = shortMatchBase + 1 + (int(inst) >> 2) + (int(tail) << 2)
				length = 3
			} else {
				// General short-match form: fixed length 2, distance from 1.
				dist = (int(inst) >> 2) + (int(tail) << 2) + 1
				length = 2
			}
		}

		if err := d.copyMatch(dist, length); err != nil {
			return err
		}

		if next > 0 {
			if err := d.literals(next); err != nil {
				return err
			}
		}

		state = next
	}
}

// u8 reads one input byte.
func (d *decoder) u8() (byte, error) {
	if d.in >= len(d.src) {
		return 0, ErrInputOverrun
	}

	b := d.src[d.in]
	d.in++

	return b, nil
}

// le16 reads one little-endian uint16.
func (d *decoder) le16() (uint16, error) {
	if d.in+2 > len(d.src) {
		return 0, ErrInputOverrun
	}

	v := uint16(d.src[d.in]) | uint16(d.src[d.in+1])<<8
	d.in += 2

	return v, nil
}

// extendedLength decodes the zero-extended length form: a run of zero bytes
// each worth 255, a final byte, plus the opcode class bias.
func (d *decoder) extendedLength(bias int) (int, error) {
	start := d.in
	for d.in < len(d.src) && d.src[d.in] == 0 {
		d.in++
	}

	zeros := d.in - start
	if zeros > maxZeroRun {
		return 0, ErrInputOverrun
	}

	tail, err := d.u8()
	if err != nil {
		return 0, err
	}

	return zeros*255 + bias + int(tail), nil
}

// literals copies n input bytes straight to the output.
func (d *decoder) literals(n int) error {
	if n == 0 {
		return nil
	}

	if d.in+n > len(d.src) {
		return ErrInputOverrun
	}

	if d.out+n > len(d.dst) {
		return ErrOutputOverrun
	}

	copy(d.dst[d.out:d.out+n], d.src[d.in:d.in+n])
	d.in += n
	d.out += n

	return nil
}

// copyMatch copies length bytes from dist behind the output cursor. When the
// distance is shorter than the length the regions overlap and the copy must
// go byte by byte so repeated bytes (RLE) replicate correctly.
func (d *decoder) copyMatch(dist, length int) error {
	from := d.out - dist
	if from < 0 {
		return ErrLookBehindUnderrun
	}

	if d.out+length > len(d.dst) {
		return ErrOutputOverrun
	}

	if dist >= length {
		copy(d.dst[d.out:d.out+length], d.dst[from:from+length])
	} else {
		for i := 0; i < length; i++ {
			d.dst[d.out+i] = d.dst[from+i]
		}
	}

	d.out += length

	return nil
}
