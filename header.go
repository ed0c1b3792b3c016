// SPDX-License-Identifier: GPL-3.0-or-later
// Source: github.com/toddlipcon/hadoop-lzo

package lzop

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Header is the decoded lzop stream header.
type Header struct {
	Version       uint16 // lzop release that wrote the stream
	LibVersion    uint16 // LZO library version it was built against
	VersionNeeded uint16 // minimum lzop release able to read the stream
	Method        Method
	Level         uint8
	Flags         uint32
	Mode          uint32    // original file mode, as stored
	ModTime       time.Time // original modification time; zero if unset
	Name          string    // original file name; may be empty

	// Checksum selection derived from Flags. DChecksum applies to the
	// uncompressed data of every block, CChecksum to the compressed
	// payload of genuinely compressed blocks.
	DChecksum ChecksumKind
	CChecksum ChecksumKind
}

// headerFields reads header fields while recording the raw bytes for the
// trailing header checksum.
type headerFields struct {
	r   io.Reader
	raw []byte
}

func (h *headerFields) bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(h.r, buf); err != nil {
		return nil, eofToTruncated(err)
	}

	h.raw = append(h.raw, buf...)

	return buf, nil
}

func (h *headerFields) u8() (uint8, error) {
	b, err := h.bytes(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (h *headerFields) u16() (uint16, error) {
	b, err := h.bytes(2)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(b), nil
}

func (h *headerFields) u32() (uint32, error) {
	b, err := h.bytes(4)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint32(b), nil
}

// readHeader parses the stream header: magic, versions, method, flags,
// file metadata, name, and the header checksum over everything after the
// magic. It consumes exactly the header bytes and nothing more.
func readHeader(r io.Reader) (*Header, error) {
	var magic [9]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, eofToTruncated(err)
	}

	if magic != lzopMagic {
		return nil, fmt.Errorf("%w: bad magic % x", ErrInvalidFormat, magic)
	}

	hf := &headerFields{r: r}
	hdr := &Header{}

	var err error
	if hdr.Version, err = hf.u16(); err != nil {
		return nil, err
	}
	if hdr.Version < minLzopVersion {
		return nil, fmt.Errorf("%w: unsupported lzop version %#04x", ErrInvalidFormat, hdr.Version)
	}

	if hdr.LibVersion, err = hf.u16(); err != nil {
		return nil, err
	}

	if hdr.VersionNeeded, err = hf.u16(); err != nil {
		return nil, err
	}
	if hdr.VersionNeeded > lzopVersion {
		return nil, fmt.Errorf("%w: stream needs lzop version %#04x", ErrInvalidFormat, hdr.VersionNeeded)
	}

	method, err := hf.u8()
	if err != nil {
		return nil, err
	}
	hdr.Method = Method(method)
	if !hdr.Method.valid() {
		return nil, fmt.Errorf("%w: unsupported method %d", ErrInvalidFormat, method)
	}

	if hdr.Level, err = hf.u8(); err != nil {
		return nil, err
	}

	if hdr.Flags, err = hf.u32(); err != nil {
		return nil, err
	}
	if err := checkFlags(hdr.Flags); err != nil {
		return nil, err
	}

	if hdr.DChecksum, err = checksumKind(hdr.Flags, flagAdler32D, flagCRC32D); err != nil {
		return nil, err
	}
	if hdr.CChecksum, err = checksumKind(hdr.Flags, flagAdler32C, flagCRC32C); err != nil {
		return nil, err
	}

	if hdr.Mode, err = hf.u32(); err != nil {
		return nil, err
	}

	mtime, err := hf.u32()
	if err != nil {
		return nil, err
	}
	if mtime != 0 {
		hdr.ModTime = time.Unix(int64(mtime), 0).UTC()
	}

	// gmtdiff / mtime-high word: checksummed but otherwise ignored, the
	// same treatment lzop readers give it.
	if _, err = hf.u32(); err != nil {
		return nil, err
	}

	nameLen, err := hf.u8()
	if err != nil {
		return nil, err
	}
	if nameLen > 0 {
		name, err := hf.bytes(int(nameLen))
		if err != nil {
			return nil, err
		}

		hdr.Name = string(name)
	}

	headerKind := ChecksumAdler32
	if hdr.Flags&flagHeaderCRC32 != 0 {
		headerKind = ChecksumCRC32
	}

	want, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if got := headerKind.Sum(hf.raw); got != want {
		return nil, fmt.Errorf("%w: want %#08x got %#08x", ErrHeaderChecksum, want, got)
	}

	if hdr.Flags&flagExtraField != 0 {
		if err := skipExtraField(r, headerKind); err != nil {
			return nil, err
		}
	}

	return hdr, nil
}

// checkFlags rejects stream variants this package does not decode.
func checkFlags(flags uint32) error {
	if flags&flagMultipart != 0 {
		return fmt.Errorf("%w: multipart streams not supported", ErrInvalidFormat)
	}

	if flags&flagFilter != 0 {
		return fmt.Errorf("%w: filtered streams not supported", ErrInvalidFormat)
	}

	if flags&flagReserved != 0 {
		return fmt.Errorf("%w: reserved flag bits set (%#08x)", ErrInvalidFormat, flags)
	}

	return nil
}

// checksumKind maps one direction's pair of flag bits to a ChecksumKind.
// lzop never sets both algorithms for the same direction.
func checksumKind(flags, adlerBit, crcBit uint32) (ChecksumKind, error) {
	switch {
	case flags&adlerBit != 0 && flags&crcBit != 0:
		return ChecksumNone, fmt.Errorf("%w: conflicting checksum flags (%#08x)", ErrInvalidFormat, flags)
	case flags&crcBit != 0:
		return ChecksumCRC32, nil
	case flags&adlerBit != 0:
		return ChecksumAdler32, nil
	default:
		return ChecksumNone, nil
	}
}

// skipExtraField reads the optional extra header field, verifies its own
// checksum, and discards the contents. lzop defines the field but ignores
// it since 1.08.
func skipExtraField(r io.Reader, kind ChecksumKind) error {
	hf := &headerFields{r: r}

	size, err := hf.u32()
	if err != nil {
		return err
	}
	if size > maxBlockSize {
		return fmt.Errorf("%w: extra header field of %d bytes", ErrInvalidFormat, size)
	}

	if _, err := hf.bytes(int(size)); err != nil {
		return err
	}

	want, err := readUint32(r)
	if err != nil {
		return err
	}
	if got := kind.Sum(hf.raw); got != want {
		return fmt.Errorf("%w: extra field: want %#08x got %#08x", ErrHeaderChecksum, want, got)
	}

	return nil
}
