// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package inflate

// Steps of reading a dynamic block header.
const (
	hdrCounts = iota // Zero value must be hdrCounts
	hdrCLens
	hdrLens
)

// dynamicHeader reads the prefix code lengths of a dynamic block according
// to RFC section 3.2.7. Reading may stop at any point for lack of input and
// continue on the next call.
type dynamicHeader struct {
	state   int
	numLit  int  // HLIT + 257
	numDist int  // HDIST + 1
	numCLen int  // HCLEN + 4
	idx     int  // Index of the next code length to read
	rep     uint // Repeater symbol waiting for its extra bits; 0 if none

	clens     [maxNumCLenSyms]uint8
	lens      [maxNumLitSyms + maxNumDistSyms64]uint8 // Literal then distance lengths
	clenTable huffmanTable
}

// Reset prepares h for the next header, keeping its table allocations.
func (h *dynamicHeader) Reset() {
	*h = dynamicHeader{clenTable: h.clenTable}
}

// Read continues reading the header and reports whether it is complete.
func (h *dynamicHeader) Read(rd *bitCursor, numDistSyms uint) bool {
	switch h.state {
	case hdrCounts:
		v, ok := rd.TryReadBits(14)
		if !ok {
			return false
		}
		h.numLit = int(v&0x1f) + 257
		h.numDist = int(v>>5&0x1f) + 1
		h.numCLen = int(v>>10) + 4
		if h.numLit > maxNumLitSyms || h.numDist > int(numDistSyms) {
			panic(ErrCorruptHeader)
		}
		h.state = hdrCLens
		fallthrough
	case hdrCLens:
		for ; h.idx < h.numCLen; h.idx++ {
			v, ok := rd.TryReadBits(3)
			if !ok {
				return false
			}
			h.clens[clenOrder[h.idx]] = uint8(v)
		}
		if err := h.clenTable.Init(h.clens[:]); err != nil {
			panic(err)
		}
		h.idx, h.state = 0, hdrLens
		fallthrough
	case hdrLens:
		for total := h.numLit + h.numDist; h.idx < total; {
			if h.rep == 0 {
				sym, ok := rd.TryReadSymbol(&h.clenTable)
				if !ok {
					return false
				}
				if sym < 16 {
					// Literal bit-length symbol used.
					h.lens[h.idx] = uint8(sym)
					h.idx++
					continue
				}
				if sym >= maxNumCLenSyms {
					panic(ErrInvalidSymbol)
				}
				h.rep = sym
			}

			// Repeater symbol used.
			var nb, base uint
			var clen uint8
			switch h.rep {
			case 16:
				if h.idx == 0 {
					panic(ErrInvalidHuffmanTree) // Nothing to repeat
				}
				nb, base, clen = 2, 3, h.lens[h.idx-1]
			case 17:
				nb, base = 3, 3
			case 18:
				nb, base = 7, 11
			}
			extra, ok := rd.TryReadBits(nb)
			if !ok {
				return false
			}
			cnt := int(base + extra)
			if h.idx+cnt > total {
				panic(ErrInvalidHuffmanTree)
			}
			for end := h.idx + cnt; h.idx < end; h.idx++ {
				h.lens[h.idx] = clen
			}
			h.rep = 0
		}
	}
	return true
}

// initDynamicTables builds the tables of a dynamic block from its code
// lengths.
func initDynamicTables(lit, dist *huffmanTable, litLens *[numLitLens]uint8, distLens *[numDistLens]uint8) error {
	if litLens[endBlockSym] == 0 {
		return ErrInvalidHuffmanTree // The block could never end
	}
	if err := lit.Init(litLens[:]); err != nil {
		return err
	}
	return dist.Init(distLens[:])
}
