// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package inflate

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"

	"github.com/resumeflate/resumeflate/internal/errors"
	"github.com/resumeflate/resumeflate/internal/fletcher"
)

// Checkpoint layout, all integers in little-endian:
//
//	Offset  Size  Field
//	0       2     Format version
//	2       8     Input position in bits
//	10      1     Unconsumed bits of the current input byte
//	11      1     bfinal<<7 | flags | block type
//	12      2     Stored bytes remaining in the block
//	14      288   Literal/length code lengths, zero unless dynamic
//	302     32    Distance code lengths, zero unless dynamic
//	334     8     Output bytes written
//	342     4     Output bytes not yet drained
//	346     var   Window data
//	end-4   4     Fletcher-32 of all preceding bytes
const (
	checkpointVersion = 0x1001
	headerSize        = 346
	checksumSize      = fletcher.Size

	// flagDeflate marks checkpoints produced by a classic DEFLATE decoder.
	// DEFLATE64 checkpoints leave the bit clear.
	flagDeflate   = 0x40
	flagLast      = 0x80
	blockTypeMask = 0x3f
)

// safePoint is the decoder position at the most recent point where decoding
// can be resumed without losing or repeating output.
type safePoint struct {
	inputBits int64
	bitBuf    byte
	last      bool
	blkType   int
	blkLen    int
}

// latch records the current position as a safe point. It must only be
// called right after a window write or at the end of a block.
func (f *Inflater) latch(blkType int) {
	if !checkpointEnabled {
		return
	}
	f.safe = safePoint{
		inputBits: f.rd.InputBits(),
		bitBuf:    f.rd.BufferedByte(),
		last:      f.last,
		blkType:   blkType,
		blkLen:    f.blkLen,
	}
}

// Checkpoint serializes the decoder state at the most recent safe point.
//
// It reports false if nothing has been decoded yet, if the decoder failed,
// or if the stream is finished and all of its output was returned.
// To resume, restore the checkpoint and supply input starting at
// InputOffset; output up to OutputOffset was already returned.
func (f *Inflater) Checkpoint() ([]byte, CheckpointPositions, bool) {
	if !checkpointEnabled || f.safe.inputBits == 0 || f.err != nil || f.Finished() {
		return nil, CheckpointPositions{}, false
	}

	winA, winB := f.win.CheckpointData()
	buf := make([]byte, headerSize, headerSize+len(winA)+len(winB)+checksumSize)
	binary.LittleEndian.PutUint16(buf[0:], checkpointVersion)
	binary.LittleEndian.PutUint64(buf[2:], uint64(f.safe.inputBits))
	buf[10] = f.safe.bitBuf
	buf[11] = byte(f.safe.blkType)
	if f.safe.last {
		buf[11] |= flagLast
	}
	if !f.conf.Deflate64 {
		buf[11] |= flagDeflate
	}
	binary.LittleEndian.PutUint16(buf[12:], uint16(f.safe.blkLen))
	if f.safe.blkType == dynamicBlock {
		copy(buf[14:302], f.litLens[:])
		copy(buf[302:334], f.distLens[:])
	}
	binary.LittleEndian.PutUint64(buf[334:], uint64(f.win.written))
	binary.LittleEndian.PutUint32(buf[342:], uint32(f.win.unread))
	buf = append(buf, winA...)
	buf = append(buf, winB...)
	buf = binary.LittleEndian.AppendUint32(buf, fletcher.Checksum(buf))

	pos := checkpointPositions(f.safe.inputBits, f.win.written, f.win.unread)
	f.log.WithFields(logrus.Fields{
		"size":         len(buf),
		"inputOffset":  pos.InputOffset,
		"outputOffset": pos.OutputOffset,
		"type":         blockNames[f.safe.blkType],
	}).Debug("checkpoint created")
	return buf, pos, true
}

func checkpointPositions(inputBits, written int64, unread int) CheckpointPositions {
	return CheckpointPositions{
		InputOffset:  (inputBits + 7) / 8,
		OutputOffset: written - int64(unread),
	}
}

// checkpointState is a parsed and validated checkpoint.
type checkpointState struct {
	safe     safePoint
	litLens  [numLitLens]uint8
	distLens [numDistLens]uint8
	lit      huffmanTable
	dist     huffmanTable
	written  int64
	unread   int
	window   []byte
}

// RestoreCheckpoint replaces the decoder state with a checkpoint previously
// produced by Checkpoint, and returns the positions where the caller must
// resume the input and output streams.
//
// The checkpoint is fully validated before any state is modified. If it is
// rejected, the decoder is left untouched and false is returned; the reason
// is only logged at debug level.
func (f *Inflater) RestoreCheckpoint(data []byte) (CheckpointPositions, bool) {
	if !checkpointEnabled {
		return CheckpointPositions{}, false
	}
	cs, err := f.parseCheckpoint(data)
	if err != nil {
		f.log.WithError(err).WithField("size", len(data)).Debug("checkpoint rejected")
		return CheckpointPositions{}, false
	}

	f.rd.Restore(cs.safe.inputBits, cs.safe.bitBuf)
	f.win.Restore(cs.window, cs.unread, cs.written)
	f.safe = cs.safe
	f.last, f.blkType, f.blkLen = cs.safe.last, cs.safe.blkType, cs.safe.blkLen
	f.sym, f.cpyLen = 0, 0
	f.done, f.err = false, nil
	f.hdr.Reset()
	f.litLens, f.distLens = cs.litLens, cs.distLens
	f.step, f.stepState = (*Inflater).readBlock, stateSym
	switch f.blkType {
	case storedBlock:
		switch {
		case f.blkLen > 0:
			f.step = (*Inflater).readStoredData
		case f.last:
			f.done = true
		default:
			f.step = (*Inflater).readBlockHeader
		}
	case fixedBlock:
		f.lit, f.dist = &fixedLitTable, &fixedDistTable
	case dynamicBlock:
		f.dynLit, f.dynDist = cs.lit, cs.dist
		f.lit, f.dist = &f.dynLit, &f.dynDist
	}

	pos := checkpointPositions(cs.safe.inputBits, cs.written, cs.unread)
	f.log.WithFields(logrus.Fields{
		"inputOffset":  pos.InputOffset,
		"outputOffset": pos.OutputOffset,
		"type":         blockNames[f.blkType],
	}).Debug("checkpoint restored")
	return pos, true
}

// parseCheckpoint validates data without modifying f.
func (f *Inflater) parseCheckpoint(data []byte) (*checkpointState, error) {
	if len(data) < headerSize+checksumSize {
		return nil, errorf(errors.Invalid, "checkpoint too short: %d bytes", len(data))
	}
	body, sum := data[:len(data)-checksumSize], data[len(data)-checksumSize:]
	if fletcher.Checksum(body) != binary.LittleEndian.Uint32(sum) {
		return nil, errorf(errors.Corrupted, "checksum mismatch")
	}
	if v := binary.LittleEndian.Uint16(body[0:]); v != checkpointVersion {
		return nil, errorf(errors.Invalid, "unsupported version 0x%04x", v)
	}

	cs := new(checkpointState)
	cs.safe.inputBits = int64(binary.LittleEndian.Uint64(body[2:]))
	if cs.safe.inputBits <= 0 {
		return nil, errorf(errors.Corrupted, "invalid input position %d", cs.safe.inputBits)
	}
	numBits := uint(8-cs.safe.inputBits&7) & 7
	cs.safe.bitBuf = body[10] & (1<<numBits - 1)
	cs.safe.last = body[11]&flagLast != 0
	cs.safe.blkType = int(body[11] & blockTypeMask)
	cs.safe.blkLen = int(binary.LittleEndian.Uint16(body[12:]))
	copy(cs.litLens[:], body[14:302])
	copy(cs.distLens[:], body[302:334])
	cs.written = int64(binary.LittleEndian.Uint64(body[334:]))
	unread := binary.LittleEndian.Uint32(body[342:])
	cs.window = body[headerSize:]

	if unread > windowSize || cs.written < 0 || int64(unread) > cs.written {
		return nil, errorf(errors.Corrupted, "invalid output counters: written %d, unread %d", cs.written, unread)
	}
	cs.unread = int(unread)
	if want := max(int(min(int64(maxHistSize), cs.written)), cs.unread); len(cs.window) != want {
		return nil, errorf(errors.Corrupted, "window holds %d bytes, want %d", len(cs.window), want)
	}
	if f.conf.MaxOutputSize > 0 && cs.written > f.conf.MaxOutputSize {
		return nil, errorf(errors.Exceeded, "output size %d exceeds limit %d", cs.written, f.conf.MaxOutputSize)
	}
	if isDeflate := body[11]&flagDeflate != 0; isDeflate == f.conf.Deflate64 {
		return nil, errorf(errors.Invalid, "checkpoint of a different format (deflate64 %v)", !isDeflate)
	}

	switch cs.safe.blkType {
	case storedBlock:
		if cs.safe.blkLen > 0 && numBits != 0 {
			return nil, errorf(errors.Corrupted, "stored data is not byte-aligned")
		}
	case fixedBlock, dynamicBlock:
		if cs.safe.blkLen != 0 {
			return nil, errorf(errors.Corrupted, "stored length in a %s block", blockNames[cs.safe.blkType])
		}
	default:
		return nil, errorf(errors.Corrupted, "unknown block type %d", cs.safe.blkType)
	}
	if cs.safe.blkType != dynamicBlock {
		return cs, nil
	}

	for _, n := range cs.litLens[maxNumLitSyms:] {
		if n != 0 {
			return nil, errorf(errors.Corrupted, "code length for invalid literal symbol")
		}
	}
	for _, n := range cs.distLens[f.numDistSyms:] {
		if n != 0 {
			return nil, errorf(errors.Corrupted, "code length for invalid distance symbol")
		}
	}
	if err := initDynamicTables(&cs.lit, &cs.dist, &cs.litLens, &cs.distLens); err != nil {
		return nil, errorf(errors.Corrupted, "invalid code lengths: %v", err)
	}
	return cs, nil
}
