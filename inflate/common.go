// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package inflate implements a streaming decoder for the DEFLATE compressed
// data format, described in RFC 1951, and for its DEFLATE64 variant.
//
// The Inflater is driven by the caller with explicit input and output
// buffers and never performs I/O on its own. At any point between calls its
// complete decoding state can be serialized with Checkpoint and later
// reconstructed with RestoreCheckpoint, possibly in another process, so that
// a long decompression can resume without re-decoding processed data.
package inflate

import (
	"github.com/sirupsen/logrus"

	"github.com/resumeflate/resumeflate/internal/errors"
)

const (
	windowSize  = 1 << 17 // Capacity of the output window
	windowMask  = windowSize - 1
	maxHistSize = 65538 // Most history a checkpoint needs to carry

	endBlockSym = 256

	maxMatchLen   = 258
	maxMatchLen64 = 65538
	maxDist       = 32768
	maxDist64     = 65536
)

const pkgName = "inflate"

// Errors returned by Inflate and Reader.Read. All of them are fatal to the
// stream being decoded and are returned again by every later call until the
// decoder is reset or successfully restored from a checkpoint.
var (
	ErrCorruptHeader      error = errors.Error{Pkg: pkgName, Code: errors.Corrupted, Msg: "corrupt block header"}
	ErrReservedBlockType  error = errors.Error{Pkg: pkgName, Code: errors.Corrupted, Msg: "reserved block type"}
	ErrInvalidHuffmanTree error = errors.Error{Pkg: pkgName, Code: errors.Corrupted, Msg: "invalid huffman tree"}
	ErrInvalidSymbol      error = errors.Error{Pkg: pkgName, Code: errors.Corrupted, Msg: "invalid symbol"}
	ErrInvalidDistance    error = errors.Error{Pkg: pkgName, Code: errors.Corrupted, Msg: "invalid distance"}
	ErrSizeLimitExceeded  error = errors.Error{Pkg: pkgName, Code: errors.Exceeded, Msg: "output size limit exceeded"}

	// ErrClosed is returned by Reader.Read after the Reader was closed.
	ErrClosed error = errors.Error{Pkg: pkgName, Code: errors.Closed}

	// ErrInvalidCheckpoint is returned by Reader.Restore for any checkpoint
	// that cannot be restored. The reason is only logged.
	ErrInvalidCheckpoint error = errors.Error{Pkg: pkgName, Code: errors.Invalid, Msg: "invalid checkpoint"}
)

// Status reports why Inflate returned.
type Status int

const (
	// StatusNeedInput means all of the input was consumed and more is needed.
	StatusNeedInput Status = iota
	// StatusOutputFull means the output buffer was filled.
	StatusOutputFull
	// StatusDone means the end of the stream was reached and every
	// decompressed byte has been returned.
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusNeedInput:
		return "need input"
	case StatusOutputFull:
		return "output full"
	case StatusDone:
		return "done"
	default:
		return "unknown status"
	}
}

// Result is returned by Inflate.
type Result struct {
	BytesConsumed int // Bytes of the input chunk consumed
	BytesWritten  int // Bytes written to the output buffer
	Status        Status
}

// CheckpointPositions locates a checkpoint within the external streams.
type CheckpointPositions struct {
	// InputOffset is the number of compressed bytes, counted from the start
	// of the stream, that precede the next byte the decoder needs.
	InputOffset int64

	// OutputOffset is the number of decompressed bytes that were already
	// returned to the caller before the checkpoint.
	OutputOffset int64
}

// Config configures an Inflater. The zero value decodes classic DEFLATE with
// no output limit.
type Config struct {
	// Deflate64 selects the DEFLATE64 format, which allows matches of up to
	// 65538 bytes at distances of up to 65536 bytes.
	Deflate64 bool

	// MaxOutputSize is the largest total number of bytes the stream may
	// decompress to. Zero or negative means unlimited.
	MaxOutputSize int64

	// Logger receives debug level diagnostics. If nil, the logrus standard
	// logger is used.
	Logger logrus.FieldLogger

	_ struct{} // Blank field to prevent unkeyed struct literals
}

type rangeCode struct {
	base uint32 // Starting base offset of the range
	bits uint32 // Bit-width of a subsequent integer to add to base offset
}

// errorf returns an inflate error used to describe checkpoint rejections.
func errorf(code int, f string, a ...interface{}) error {
	return errors.Errorf(pkgName, code, f, a...)
}
