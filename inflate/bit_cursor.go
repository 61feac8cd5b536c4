// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package inflate

// The bitCursor never loads a byte into its bit buffer unless the read in
// progress cannot complete without it. Consequently, after every completed
// read fewer than 8 bits remain buffered, and the exact input position is
// always the number of bytes loaded minus the buffered bits.
//
// A read that runs out of input reports failure but keeps the bytes it did
// load, so that a caller feeding one byte at a time still makes progress.

type bitCursor struct {
	in      []byte // Input chunk of the current Inflate call
	pos     int    // Number of bytes of in that were loaded
	loaded  int64  // Number of bytes loaded since the start of the stream
	bufBits uint64 // Buffer to hold some bits
	numBits uint   // Number of valid bits in bufBits
}

// Init resets the cursor to the start of a stream.
func (bc *bitCursor) Init() {
	*bc = bitCursor{}
}

// SetInput provides the next chunk of input.
func (bc *bitCursor) SetInput(in []byte) {
	bc.in, bc.pos = in, 0
}

// InputBits reports the number of bits consumed since the start of the stream.
func (bc *bitCursor) InputBits() int64 {
	return bc.loaded*8 - int64(bc.numBits)
}

// BufferedByte returns the buffered bits, which all belong to the last
// loaded byte once a read has completed.
func (bc *bitCursor) BufferedByte() byte {
	return byte(bc.bufBits) & (1<<bc.numBits - 1)
}

// Restore positions the cursor at the given bit offset, where val holds the
// unconsumed high bits of the byte the offset points into.
func (bc *bitCursor) Restore(inputBits int64, val byte) {
	nb := uint(8-inputBits&7) & 7
	*bc = bitCursor{
		loaded:  (inputBits + 7) / 8,
		bufBits: uint64(val) & (1<<nb - 1),
		numBits: nb,
	}
}

// loadByte moves one byte of input into the bit buffer.
func (bc *bitCursor) loadByte() bool {
	if bc.pos >= len(bc.in) {
		return false
	}
	bc.bufBits |= uint64(bc.in[bc.pos]) << bc.numBits
	bc.numBits += 8
	bc.pos++
	bc.loaded++
	return true
}

// feedBits ensures that at least nb bits exist in the bit buffer.
func (bc *bitCursor) feedBits(nb uint) bool {
	for bc.numBits < nb {
		if !bc.loadByte() {
			return false
		}
	}
	return true
}

// TryReadBits reads nb bits in LSB order, where nb <= 32.
// It reports false if the input ran out first.
func (bc *bitCursor) TryReadBits(nb uint) (uint, bool) {
	if !bc.feedBits(nb) {
		return 0, false
	}
	val := uint(bc.bufBits & uint64(1<<nb-1))
	bc.bufBits >>= nb
	bc.numBits -= nb
	return val, true
}

// ReadPads discards the bits remaining in the current byte.
func (bc *bitCursor) ReadPads() uint {
	nb := bc.numBits % 8
	val := uint(bc.bufBits & uint64(1<<nb-1))
	bc.bufBits >>= nb
	bc.numBits -= nb
	return val
}

// Available reports the number of whole bytes that CopyAligned can provide.
func (bc *bitCursor) Available() int {
	return int(bc.numBits/8) + len(bc.in) - bc.pos
}

// CopyAligned copies raw bytes into buf and returns the count copied.
// The cursor must be byte-aligned.
func (bc *bitCursor) CopyAligned(buf []byte) (cnt int) {
	for ; cnt < len(buf) && bc.numBits >= 8; cnt++ {
		buf[cnt] = byte(bc.bufBits)
		bc.bufBits >>= 8
		bc.numBits -= 8
	}
	n := copy(buf[cnt:], bc.in[bc.pos:])
	bc.pos += n
	bc.loaded += int64(n)
	return cnt + n
}

// TryReadSymbol decodes the next symbol using the provided table.
// It reports false if the input ran out first.
//
// Bytes are loaded one at a time, and only while the buffered bits are too
// short to hold the code being decoded, so no bits past the symbol are read.
func (bc *bitCursor) TryReadSymbol(ht *huffmanTable) (uint, bool) {
	if ht.numSyms == 0 {
		panic(ErrInvalidSymbol) // Decode with empty tree
	}
	if !bc.feedBits(uint(ht.minBits)) {
		return 0, false
	}
	for {
		chunk := ht.chunks[uint32(bc.bufBits)&ht.chunkMask]
		nb := uint(chunk & countMask)
		if nb > uint(ht.chunkBits) {
			linkIdx := chunk >> countBits
			chunk = ht.links[linkIdx][uint32(bc.bufBits>>ht.chunkBits)&ht.linkMask]
			nb = uint(chunk & countMask)
		}
		if nb <= bc.numBits {
			bc.bufBits >>= nb
			bc.numBits -= nb
			return uint(chunk >> countBits), true
		}
		if !bc.loadByte() {
			return 0, false
		}
	}
}
