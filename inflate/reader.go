// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package inflate

import (
	"io"

	pkgerrors "github.com/pkg/errors"

	"github.com/resumeflate/resumeflate/internal/errors"
)

const defaultBufferSize = 32 << 10

// ReaderConfig configures a Reader.
type ReaderConfig struct {
	Config // Options of the underlying Inflater

	// BufferSize is the size of the buffer used to read compressed data.
	// Zero selects a default of 32 KiB.
	BufferSize int

	_ struct{} // Blank field to prevent unkeyed struct literals
}

// Reader decompresses a DEFLATE or DEFLATE64 stream read from an io.Reader.
type Reader struct {
	InputOffset  int64 // Total number of compressed bytes consumed
	OutputOffset int64 // Total number of bytes emitted from Read

	rd    io.Reader // Input source
	f     *Inflater // Decoder state
	buf   []byte    // Compressed data buffer
	in    []byte    // Compressed data not yet consumed
	rdErr error     // Error from rd, reported once in is empty
	err   error     // Persistent error
}

// NewReader returns a Reader decompressing data read from r.
// A nil conf selects the defaults.
func NewReader(r io.Reader, conf *ReaderConfig) (*Reader, error) {
	var c ReaderConfig
	if conf != nil {
		c = *conf
	}
	if c.BufferSize < 0 {
		return nil, errors.Errorf(pkgName, errors.Invalid, "negative buffer size %d", c.BufferSize)
	}
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	zr := &Reader{
		f:   NewInflater(&c.Config),
		buf: make([]byte, c.BufferSize),
	}
	zr.Reset(r)
	return zr, nil
}

// Read reads up to len(buf) decompressed bytes.
// It returns io.ErrUnexpectedEOF if the compressed stream is truncated.
func (zr *Reader) Read(buf []byte) (int, error) {
	if zr.err != nil {
		return 0, zr.err
	}
	if len(buf) == 0 {
		return 0, nil
	}
	for {
		if len(zr.in) == 0 && zr.rdErr == nil {
			n, err := zr.rd.Read(zr.buf)
			zr.in, zr.rdErr = zr.buf[:n], err
		}

		res, err := zr.f.Inflate(zr.in, buf)
		zr.in = zr.in[res.BytesConsumed:]
		zr.InputOffset += int64(res.BytesConsumed)
		zr.OutputOffset += int64(res.BytesWritten)
		switch {
		case err != nil:
			zr.err = err
		case res.Status == StatusDone:
			zr.err = io.EOF
		case res.Status == StatusNeedInput && zr.rdErr != nil && len(zr.in) == 0:
			zr.err = zr.rdErr
			if zr.err == io.EOF {
				zr.err = io.ErrUnexpectedEOF
			}
		}
		if res.BytesWritten > 0 {
			return res.BytesWritten, nil
		}
		if zr.err != nil {
			return 0, zr.err
		}
	}
}

// Close ends the Reader. After a clean end of stream, Close returns nil and
// later reads fail with ErrClosed. Otherwise the persistent error is returned.
func (zr *Reader) Close() error {
	if zr.err == io.EOF || zr.err == ErrClosed {
		zr.in = nil // Make sure future reads fail
		zr.err = ErrClosed
		return nil
	}
	return zr.err // Return the persistent error
}

// Reset discards the Reader state and makes it read a new stream from r.
// A zero Reader with default options is ready to use after Reset.
func (zr *Reader) Reset(r io.Reader) error {
	*zr = Reader{rd: r, f: zr.f, buf: zr.buf}
	if zr.f == nil {
		zr.f = NewInflater(nil)
	}
	if zr.buf == nil {
		zr.buf = make([]byte, defaultBufferSize)
	}
	zr.f.Reset()
	return nil
}

// Checkpoint serializes the decoder state at the most recent safe point.
// See Inflater.Checkpoint.
func (zr *Reader) Checkpoint() ([]byte, CheckpointPositions, bool) {
	return zr.f.Checkpoint()
}

// Restore restores a checkpoint and continues reading from rs, which must
// be positioned relative to the start of the compressed stream. Reading
// resumes at the returned OutputOffset of the decompressed stream.
//
// If the checkpoint is rejected, ErrInvalidCheckpoint is returned and the
// Reader is left unmodified.
func (zr *Reader) Restore(rs io.ReadSeeker, data []byte) (CheckpointPositions, error) {
	f, buf := zr.f, zr.buf
	if f == nil {
		f = NewInflater(nil)
	}
	pos, ok := f.RestoreCheckpoint(data)
	if !ok {
		return CheckpointPositions{}, ErrInvalidCheckpoint
	}
	if buf == nil {
		buf = make([]byte, defaultBufferSize)
	}
	*zr = Reader{
		InputOffset:  pos.InputOffset,
		OutputOffset: pos.OutputOffset,
		rd:           rs,
		f:            f,
		buf:          buf,
	}
	if _, err := rs.Seek(pos.InputOffset, io.SeekStart); err != nil {
		zr.err = pkgerrors.Wrapf(err, "inflate: seek to input offset %d", pos.InputOffset)
		return pos, zr.err
	}
	return pos, nil
}
