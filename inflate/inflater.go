// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package inflate

import (
	"github.com/sirupsen/logrus"

	"github.com/resumeflate/resumeflate/internal/errors"
)

// Block types as encoded in the block header (RFC section 3.2.3).
const (
	storedBlock  = 0
	fixedBlock   = 1
	dynamicBlock = 2
)

var blockNames = [...]string{"stored", "fixed", "dynamic"}

// Sub-states of readBlock.
const (
	stateSym = iota // Zero value must be stateSym
	stateLenExtra
	stateDistSym
	stateDistExtra
)

// An Inflater decompresses a DEFLATE or DEFLATE64 stream supplied in chunks.
//
// An Inflater is not safe for concurrent use.
type Inflater struct {
	conf Config
	log  logrus.FieldLogger

	rd  bitCursor    // Input source
	win outputWindow // Output and history

	last    bool  // Last block bit detected
	blkType int   // Type of the current block
	blkLen  int   // Stored bytes left to copy in the current block
	sym     uint  // Pending length or distance symbol
	cpyLen  int   // Length of the pending backward copy
	done    bool  // End of the final block was reached
	err     error // Persistent error

	step      func(*Inflater) bool // Single step of decompression work (can panic)
	stepState int                  // The sub-step state for certain steps

	// Mode dependent parameters.
	maxLen      int            // Longest match that may be written
	numDistSyms uint           // Number of valid distance symbols
	lenCodes    *[29]rangeCode // Length symbols 257..285

	lit      *huffmanTable      // Active literal/length table
	dist     *huffmanTable      // Active distance table
	hdr      dynamicHeader      // Partially read dynamic block header
	dynLit   huffmanTable       // Literal/length table of a dynamic block
	dynDist  huffmanTable       // Distance table of a dynamic block
	litLens  [numLitLens]uint8  // Code lengths of dynLit
	distLens [numDistLens]uint8 // Code lengths of dynDist

	safe safePoint // State at the most recent safe point
}

// NewInflater returns a new Inflater. A nil conf selects the defaults.
func NewInflater(conf *Config) *Inflater {
	f := new(Inflater)
	if conf != nil {
		f.conf = *conf
	}
	if f.conf.MaxOutputSize < 0 {
		f.conf.MaxOutputSize = 0
	}
	f.log = f.conf.Logger
	if f.log == nil {
		f.log = logrus.StandardLogger()
	}
	f.log = f.log.WithField("pkg", pkgName)

	f.maxLen, f.numDistSyms, f.lenCodes = maxMatchLen, maxNumDistSyms, &lenLUT
	if f.conf.Deflate64 {
		f.maxLen, f.numDistSyms, f.lenCodes = maxMatchLen64, maxNumDistSyms64, &lenLUT64
	}
	f.Reset()
	return f
}

// Reset discards all decoding state so that f can decode a new stream with
// the same configuration.
func (f *Inflater) Reset() {
	f.rd.Init()
	f.win.Init(f.maxDist())
	f.last, f.blkType, f.blkLen, f.done, f.err = false, storedBlock, 0, false, nil
	f.sym, f.cpyLen = 0, 0
	f.step, f.stepState = (*Inflater).readBlockHeader, stateSym
	f.lit, f.dist = nil, nil
	f.hdr.Reset()
	f.litLens, f.distLens = [numLitLens]uint8{}, [numDistLens]uint8{}
	f.safe = safePoint{}
}

func (f *Inflater) maxDist() int {
	if f.conf.Deflate64 {
		return maxDist64
	}
	return maxDist
}

// Finished reports whether the whole stream was decoded and returned.
func (f *Inflater) Finished() bool {
	return f.done && f.win.unread == 0
}

// Inflate decompresses bytes from in into out.
//
// It returns when out is full, when all of in was consumed, or when the end
// of the stream was reached and all output returned. Bytes of in that were
// not consumed must be passed again on the next call.
//
// After a fatal error, the output decoded before the error is returned first.
// Every later call returns the same error.
func (f *Inflater) Inflate(in, out []byte) (Result, error) {
	var res Result
	var stalled bool
	f.rd.SetInput(in)
	defer f.rd.SetInput(nil)
	for {
		res.BytesWritten += f.win.Drain(out[res.BytesWritten:])
		switch {
		case f.win.unread > 0:
			res.Status = StatusOutputFull
		case f.err != nil:
			res.BytesConsumed = f.rd.pos
			return res, f.err
		case f.done:
			res.Status = StatusDone
		case stalled:
			res.Status = StatusNeedInput
		default:
			stalled = !f.decode()
			continue
		}
		res.BytesConsumed = f.rd.pos
		return res, nil
	}
}

// decode runs decoding steps until the window lacks room for another match,
// the stream ends, or the input runs out. It reports false in the last case.
func (f *Inflater) decode() (more bool) {
	func() {
		defer errors.Recover(&f.err)
		for !f.done && f.win.Free() >= f.maxLen {
			if !f.step(f) {
				return
			}
		}
		more = true
	}()
	if f.err != nil {
		f.log.WithError(f.err).WithFields(logrus.Fields{
			"inputBits":  f.rd.InputBits(),
			"outputSize": f.win.written,
		}).Debug("decoding failed")
	}
	return more
}

// checkSize fails if writing n more bytes would pass the output limit.
func (f *Inflater) checkSize(n int) {
	if f.conf.MaxOutputSize > 0 && f.win.written+int64(n) > f.conf.MaxOutputSize {
		panic(ErrSizeLimitExceeded)
	}
}

// readBlockHeader reads the block header according to RFC section 3.2.3.
func (f *Inflater) readBlockHeader() bool {
	hdr, ok := f.rd.TryReadBits(3)
	if !ok {
		return false
	}
	f.last = hdr&1 == 1
	f.blkType = int(hdr >> 1)
	if f.blkType > dynamicBlock {
		// Reserved block (RFC section 3.2.3).
		panic(ErrReservedBlockType)
	}
	f.log.WithFields(logrus.Fields{
		"last":       f.last,
		"type":       blockNames[f.blkType],
		"inputBits":  f.rd.InputBits(),
		"outputSize": f.win.written,
	}).Debug("block header")

	switch f.blkType {
	case storedBlock:
		// Raw block (RFC section 3.2.4).
		f.rd.ReadPads()
		f.step = (*Inflater).readStoredHeader
	case fixedBlock:
		// Fixed prefix block (RFC section 3.2.6).
		f.lit, f.dist = &fixedLitTable, &fixedDistTable
		f.step, f.stepState = (*Inflater).readBlock, stateSym
	case dynamicBlock:
		// Dynamic prefix block (RFC section 3.2.7).
		f.hdr.Reset()
		f.step = (*Inflater).readDynamicHeader
	}
	return true
}

// readStoredHeader reads the length of a raw block (RFC section 3.2.4).
func (f *Inflater) readStoredHeader() bool {
	v, ok := f.rd.TryReadBits(32)
	if !ok {
		return false
	}
	n, nn := uint16(v), uint16(v>>16)
	if n^nn != 0xffff {
		panic(ErrCorruptHeader)
	}
	f.blkLen = int(n)
	if f.blkLen == 0 {
		f.endBlock()
		return true
	}
	f.step = (*Inflater).readStoredData
	return true
}

// readStoredData copies raw data according to RFC section 3.2.4.
func (f *Inflater) readStoredData() bool {
	buf := f.win.WriteSlice()
	buf = buf[:min(len(buf), f.blkLen, f.rd.Available())]
	if len(buf) == 0 {
		return false
	}
	f.checkSize(len(buf))
	cnt := f.rd.CopyAligned(buf)
	f.win.WriteMark(cnt)
	f.blkLen -= cnt
	if f.blkLen == 0 {
		f.endBlock()
		return true
	}
	f.latch(storedBlock)
	return true
}

// readDynamicHeader reads the prefix tables of a dynamic block.
func (f *Inflater) readDynamicHeader() bool {
	if !f.hdr.Read(&f.rd, f.numDistSyms) {
		return false
	}
	f.litLens = [numLitLens]uint8{}
	f.distLens = [numDistLens]uint8{}
	copy(f.litLens[:], f.hdr.lens[:f.hdr.numLit])
	copy(f.distLens[:], f.hdr.lens[f.hdr.numLit:f.hdr.numLit+f.hdr.numDist])
	if err := initDynamicTables(&f.dynLit, &f.dynDist, &f.litLens, &f.distLens); err != nil {
		panic(err)
	}
	f.lit, f.dist = &f.dynLit, &f.dynDist
	f.step, f.stepState = (*Inflater).readBlock, stateSym
	return true
}

// readBlock reads block commands according to RFC section 3.2.5.
func (f *Inflater) readBlock() bool {
	switch f.stepState {
	case stateSym:
		goto readLiteral
	case stateLenExtra:
		goto readLenExtra
	case stateDistSym:
		goto readDistSym
	case stateDistExtra:
		goto readDistExtra
	}

readLiteral:
	// Read a literal and/or the length symbol of a match.
	{
		f.stepState = stateSym
		if f.win.Free() < f.maxLen {
			return true // Let the caller drain the window
		}
		sym, ok := f.rd.TryReadSymbol(f.lit)
		if !ok {
			return false
		}
		switch {
		case sym < endBlockSym:
			f.checkSize(1)
			f.win.WriteLiteral(byte(sym))
			f.latch(f.blkType)
			goto readLiteral
		case sym == endBlockSym:
			f.endBlock()
			return true
		case sym < maxNumLitSyms:
			f.sym = sym
			goto readLenExtra
		default:
			panic(ErrInvalidSymbol)
		}
	}

readLenExtra:
	// Decode the copy length.
	{
		f.stepState = stateLenExtra
		rc := f.lenCodes[f.sym-257]
		extra, ok := f.rd.TryReadBits(uint(rc.bits))
		if !ok {
			return false
		}
		f.cpyLen = int(rc.base) + int(extra)
	}

readDistSym:
	// Read the distance symbol.
	{
		f.stepState = stateDistSym
		sym, ok := f.rd.TryReadSymbol(f.dist)
		if !ok {
			return false
		}
		if sym >= f.numDistSyms {
			panic(ErrInvalidSymbol)
		}
		f.sym = sym
	}

readDistExtra:
	// Decode the copy distance and perform the copy.
	{
		f.stepState = stateDistExtra
		rc := distLUT[f.sym]
		extra, ok := f.rd.TryReadBits(uint(rc.bits))
		if !ok {
			return false
		}
		f.checkSize(f.cpyLen)
		f.win.WriteCopy(int(rc.base)+int(extra), f.cpyLen)
		f.latch(f.blkType)
		goto readLiteral
	}
}

// endBlock finishes the current block. The boundary is a safe point.
func (f *Inflater) endBlock() {
	f.blkLen = 0
	f.latch(storedBlock)
	if f.last {
		f.done = true
		f.log.WithFields(logrus.Fields{
			"inputBits":  f.rd.InputBits(),
			"outputSize": f.win.written,
		}).Debug("end of stream")
		return
	}
	f.step, f.stepState = (*Inflater).readBlockHeader, stateSym
}
