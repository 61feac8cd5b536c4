// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bench

import (
	stdflate "compress/flate"
	"io"

	kpflate "github.com/klauspost/compress/flate"

	"github.com/resumeflate/resumeflate/inflate"
)

// checkpointInterval is the number of output bytes between checkpoints
// taken by the "rfc" decoder.
const checkpointInterval = 1 << 16

func init() {
	RegisterEncoder("std",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := stdflate.NewWriter(w, lvl)
			if err != nil {
				panic(err)
			}
			return zw
		})
	RegisterDecoder("std",
		func(r io.Reader) io.ReadCloser {
			return stdflate.NewReader(r)
		})

	RegisterEncoder("kp",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := kpflate.NewWriter(w, lvl)
			if err != nil {
				panic(err)
			}
			return zw
		})
	RegisterDecoder("kp",
		func(r io.Reader) io.ReadCloser {
			return kpflate.NewReader(r)
		})

	RegisterDecoder("rf",
		func(r io.Reader) io.ReadCloser {
			zr, err := inflate.NewReader(r, nil)
			if err != nil {
				panic(err)
			}
			return zr
		})
	RegisterDecoder("rfc",
		func(r io.Reader) io.ReadCloser {
			zr, err := inflate.NewReader(r, nil)
			if err != nil {
				panic(err)
			}
			return &checkpointReader{Reader: zr, next: checkpointInterval}
		})
}

// checkpointReader takes a checkpoint whenever another checkpointInterval
// bytes were read, measuring the cost of checkpointing a live stream.
type checkpointReader struct {
	*inflate.Reader
	next  int64
	count int // Number of checkpoints taken
	size  int // Total size of all checkpoints
}

func (cr *checkpointReader) Read(buf []byte) (int, error) {
	n, err := cr.Reader.Read(buf)
	if cr.OutputOffset >= cr.next {
		if blob, _, ok := cr.Checkpoint(); ok {
			cr.count++
			cr.size += len(blob)
		}
		cr.next = cr.OutputOffset + checkpointInterval
	}
	return n, err
}
