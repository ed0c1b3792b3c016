package lzop

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
)

// headerSpec describes a hand-built raw header for parser tests.
type headerSpec struct {
	version       uint16
	libVersion    uint16
	versionNeeded uint16
	method        byte
	level         byte
	flags         uint32
	mtime         uint32
	name          string
	extra         []byte // appended as the optional extra field when non-nil

	corruptChecksum bool
	badMagic        bool
}

func validHeaderSpec() headerSpec {
	return headerSpec{
		version:       0x1040,
		libVersion:    0x2080,
		versionNeeded: 0x0940,
		method:        byte(MethodLZO1X1),
		level:         1,
		flags:         flagAdler32D | flagAdler32C | flagOSUnix,
		mtime:         1700000000,
		name:          "data.txt",
	}
}

func buildHeader(h headerSpec) []byte {
	var f []byte
	f = binary.BigEndian.AppendUint16(f, h.version)
	f = binary.BigEndian.AppendUint16(f, h.libVersion)
	f = binary.BigEndian.AppendUint16(f, h.versionNeeded)
	f = append(f, h.method, h.level)
	f = binary.BigEndian.AppendUint32(f, h.flags)
	f = binary.BigEndian.AppendUint32(f, 0o644)
	f = binary.BigEndian.AppendUint32(f, h.mtime)
	f = binary.BigEndian.AppendUint32(f, 0)
	f = append(f, byte(len(h.name)))
	f = append(f, h.name...)

	kind := ChecksumAdler32
	if h.flags&flagHeaderCRC32 != 0 {
		kind = ChecksumCRC32
	}
	sum := kind.Sum(f)
	if h.corruptChecksum {
		sum ^= 0xdeadbeef
	}

	out := append([]byte{}, lzopMagic[:]...)
	if h.badMagic {
		out[3] ^= 0xff
	}
	out = append(out, f...)
	out = binary.BigEndian.AppendUint32(out, sum)

	if h.extra != nil {
		region := binary.BigEndian.AppendUint32(nil, uint32(len(h.extra)))
		region = append(region, h.extra...)
		out = append(out, region...)
		out = binary.BigEndian.AppendUint32(out, kind.Sum(region))
	}

	return out
}

func parseHeaderBytes(t *testing.T, raw []byte) (*Header, error) {
	t.Helper()

	r := NewReader(bytes.NewReader(raw), nil)
	defer r.Close()

	return r.Header()
}

func TestHeader_Valid(t *testing.T) {
	hdr, err := parseHeaderBytes(t, buildHeader(validHeaderSpec()))
	if err != nil {
		t.Fatalf("Header failed: %v", err)
	}

	if hdr.Method != MethodLZO1X1 {
		t.Errorf("Method = %v, want %v", hdr.Method, MethodLZO1X1)
	}
	if hdr.Name != "data.txt" {
		t.Errorf("Name = %q, want %q", hdr.Name, "data.txt")
	}
	if hdr.ModTime.Unix() != 1700000000 {
		t.Errorf("ModTime = %v, want unix 1700000000", hdr.ModTime)
	}
	if hdr.DChecksum != ChecksumAdler32 || hdr.CChecksum != ChecksumAdler32 {
		t.Errorf("checksum kinds = %v/%v, want Adler-32/Adler-32", hdr.DChecksum, hdr.CChecksum)
	}
}

func TestHeader_ChecksumKindSelection(t *testing.T) {
	cases := []struct {
		name  string
		flags uint32
		d, c  ChecksumKind
	}{
		{name: "crc32-both", flags: flagCRC32D | flagCRC32C | flagOSUnix, d: ChecksumCRC32, c: ChecksumCRC32},
		{name: "mixed", flags: flagCRC32D | flagAdler32C | flagOSUnix, d: ChecksumCRC32, c: ChecksumAdler32},
		{name: "none", flags: flagOSUnix, d: ChecksumNone, c: ChecksumNone},
		{name: "d-only", flags: flagAdler32D | flagOSUnix, d: ChecksumAdler32, c: ChecksumNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := validHeaderSpec()
			spec.flags = tc.flags

			hdr, err := parseHeaderBytes(t, buildHeader(spec))
			if err != nil {
				t.Fatalf("Header failed: %v", err)
			}
			if hdr.DChecksum != tc.d || hdr.CChecksum != tc.c {
				t.Fatalf("checksum kinds = %v/%v, want %v/%v", hdr.DChecksum, hdr.CChecksum, tc.d, tc.c)
			}
		})
	}
}

func TestHeader_CRC32HeaderChecksum(t *testing.T) {
	spec := validHeaderSpec()
	spec.flags |= flagHeaderCRC32

	if _, err := parseHeaderBytes(t, buildHeader(spec)); err != nil {
		t.Fatalf("Header with CRC-32 header checksum failed: %v", err)
	}
}

func TestHeader_ExtraFieldSkipped(t *testing.T) {
	spec := validHeaderSpec()
	spec.flags |= flagExtraField
	spec.extra = []byte("ignored extra payload")

	if _, err := parseHeaderBytes(t, buildHeader(spec)); err != nil {
		t.Fatalf("Header with extra field failed: %v", err)
	}
}

func TestHeader_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*headerSpec)
		want   error
	}{
		{name: "bad-magic", mutate: func(h *headerSpec) { h.badMagic = true }, want: ErrInvalidFormat},
		{name: "checksum-mismatch", mutate: func(h *headerSpec) { h.corruptChecksum = true }, want: ErrHeaderChecksum},
		{name: "version-too-old", mutate: func(h *headerSpec) { h.version = 0x0930 }, want: ErrInvalidFormat},
		{name: "needs-newer-lzop", mutate: func(h *headerSpec) { h.versionNeeded = 0x2000 }, want: ErrInvalidFormat},
		{name: "method-zero", mutate: func(h *headerSpec) { h.method = 0 }, want: ErrInvalidFormat},
		{name: "method-unknown", mutate: func(h *headerSpec) { h.method = 4 }, want: ErrInvalidFormat},
		{name: "multipart", mutate: func(h *headerSpec) { h.flags |= flagMultipart }, want: ErrInvalidFormat},
		{name: "filter", mutate: func(h *headerSpec) { h.flags |= flagFilter }, want: ErrInvalidFormat},
		{name: "reserved-bits", mutate: func(h *headerSpec) { h.flags |= 0x00010000 }, want: ErrInvalidFormat},
		{name: "conflicting-d-checksums", mutate: func(h *headerSpec) { h.flags |= flagAdler32D | flagCRC32D }, want: ErrInvalidFormat},
		{name: "conflicting-c-checksums", mutate: func(h *headerSpec) { h.flags |= flagAdler32C | flagCRC32C }, want: ErrInvalidFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := validHeaderSpec()
			tc.mutate(&spec)

			_, err := parseHeaderBytes(t, buildHeader(spec))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestHeader_Truncated(t *testing.T) {
	raw := buildHeader(validHeaderSpec())

	for _, cut := range []int{0, 4, 9, 11, 16, 20, len(raw) - 2} {
		t.Run(fmt.Sprintf("cut-%d", cut), func(t *testing.T) {
			_, err := parseHeaderBytes(t, raw[:cut])
			if !errors.Is(err, ErrUnexpectedEOF) {
				t.Fatalf("cut=%d: err = %v, want ErrUnexpectedEOF", cut, err)
			}
		})
	}
}

func TestHeader_ErrorIsSticky(t *testing.T) {
	spec := validHeaderSpec()
	spec.corruptChecksum = true

	r := NewReader(bytes.NewReader(buildHeader(spec)), nil)
	defer r.Close()

	if _, err := r.Header(); !errors.Is(err, ErrHeaderChecksum) {
		t.Fatalf("first Header: err = %v, want ErrHeaderChecksum", err)
	}
	if _, err := r.Read(make([]byte, 16)); !errors.Is(err, ErrHeaderChecksum) {
		t.Fatalf("Read after failed header: err = %v, want ErrHeaderChecksum", err)
	}
}
