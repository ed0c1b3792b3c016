// SPDX-License-Identifier: GPL-3.0-or-later
// Source: github.com/toddlipcon/hadoop-lzo

/*
Package lzop reads and writes the lzop container format: a stream header
followed by independently compressed LZO1X blocks, each framed with its
sizes and checksums, terminated by a zero-length block.

Reading:

	pool := lzop.NewPool(nil)
	r := lzop.NewReader(f, pool)
	defer r.Close()
	data, err := io.ReadAll(r)

Many goroutines may decode concurrently, each with its own Reader, all
drawing decompression contexts from one shared Pool. A context belongs to
exactly one Reader between acquire and release; Close hands it back and
the Reader never touches it again. Passing a nil pool gives the Reader a
private context instead.

Writing:

	w := lzop.NewWriter(f, nil)
	_, err := w.Write(data)
	err = w.Close()

Blocks that do not shrink under compression are stored raw, the same
fallback lzop itself uses. The raw LZO1X block codec lives in the lzo1x
subpackage.
*/
package lzop
