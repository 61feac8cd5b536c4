// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package inflate is a fuzz harness that cross-checks the inflate package
// against compress/flate and against its own checkpoints.
package inflate

import (
	"bytes"
	stdflate "compress/flate"
	"io"

	kpflate "github.com/klauspost/compress/flate"

	rfinflate "github.com/resumeflate/resumeflate/inflate"
)

func Fuzz(data []byte) int {
	out, ok := testDecoders(data)
	if ok {
		testResume(data, out)
	}
	for i := 1; i <= 9; i += 4 {
		testEncoder(data, i)
	}
	if ok {
		return 1 // Favor valid inputs
	}
	return 0
}

// testDecoders tests that the input can be handled by both decoders.
// This test does not panic if both decoders run into an error, since it
// means that they both agree that the input is bad.
func testDecoders(data []byte) ([]byte, bool) {
	rr, err := rfinflate.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		panic(err)
	}
	sr := stdflate.NewReader(bytes.NewReader(data))
	defer sr.Close()

	rb, rerr := io.ReadAll(rr)
	sb, serr := io.ReadAll(sr)

	switch {
	case rerr == nil && serr == nil:
		if !bytes.Equal(rb, sb) {
			panic("mismatching bytes")
		}
		if err := rr.Close(); err != nil {
			panic(err)
		}
		return rb, true
	case rerr != nil && serr == nil:
		panic(rerr)
	case rerr == nil && serr != nil:
		panic(serr)
	default:
		return nil, false
	}
}

// testResume decodes a valid stream one byte at a time, replacing the
// decoder with one restored from a checkpoint after every call.
func testResume(data, want []byte) {
	var out []byte
	buf := make([]byte, 1<<10)
	f := rfinflate.NewInflater(nil)
	for pos := 0; ; {
		res, err := f.Inflate(data[pos:min(pos+1, len(data))], buf)
		if err != nil {
			panic(err)
		}
		pos += res.BytesConsumed
		out = append(out, buf[:res.BytesWritten]...)
		if res.Status == rfinflate.StatusDone {
			break
		}
		if res.Status == rfinflate.StatusNeedInput && pos == len(data) {
			panic("unexpected end of stream")
		}

		blob, cp, ok := f.Checkpoint()
		if !ok {
			continue
		}
		if cp.OutputOffset != int64(len(out)) || cp.InputOffset > int64(pos) {
			panic("invalid checkpoint positions")
		}

		// A single modified byte must be detected.
		blob[len(out)%len(blob)] ^= 0x80
		if _, ok := rfinflate.NewInflater(nil).RestoreCheckpoint(blob); ok {
			panic("corrupted checkpoint accepted")
		}
		blob[len(out)%len(blob)] ^= 0x80

		g := rfinflate.NewInflater(nil)
		if got, ok := g.RestoreCheckpoint(blob); !ok || got != cp {
			panic("checkpoint rejected")
		}
		// Resuming from the same position again would not make progress,
		// so only switch decoders once the input position is reached.
		if cp.InputOffset == int64(pos) {
			f = g
		}
	}
	if !bytes.Equal(out, want) {
		panic("mismatching bytes after resume")
	}
}

// testEncoder compresses the input data and then checks that it can be
// decompressed with the Reader.
func testEncoder(data []byte, level int) {
	bb := new(bytes.Buffer)
	kw, err := kpflate.NewWriter(bb, level)
	if err != nil {
		panic(err)
	}
	if n, err := kw.Write(data); n != len(data) || err != nil {
		panic(err)
	}
	if err := kw.Close(); err != nil {
		panic(err)
	}

	rr, err := rfinflate.NewReader(bb, nil)
	if err != nil {
		panic(err)
	}
	b, err := io.ReadAll(rr)
	if err != nil {
		panic(err)
	}
	if !bytes.Equal(b, data) {
		panic("mismatching bytes")
	}
}
