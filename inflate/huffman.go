// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package inflate

import "github.com/resumeflate/resumeflate/internal"

const (
	maxCodeBits = 16 // Longest code length a table may be built from

	countBits  = 5 // Wide enough to hold maxCodeBits
	countMask  = (1 << countBits) - 1
	chunkLimit = 9 // This can be tuned for better performance
)

// huffmanTable decodes canonical prefix codes using a two-level lookup.
//
// Each entry of chunks and links holds sym<<countBits | len. Codes longer
// than chunkBits resolve to a chunks entry whose length is chunkBits+1 and
// whose symbol is the index into links.
type huffmanTable struct {
	chunks    []uint16   // First-level lookup map
	links     [][]uint16 // Second-level lookup map
	chunkMask uint32     // Mask the width of the chunks table
	linkMask  uint32     // Mask the width of the link table
	numSyms   int        // Number of symbols with a code; zero if empty
	chunkBits uint8      // Bit-width of the chunks table
	minBits   uint8      // The minimum number of bits to safely make progress
}

// Init builds the table from a list of code lengths indexed by symbol,
// where a zero length means the symbol is unused.
//
// The lengths must form a complete prefix code, with two exceptions: all
// lengths may be zero, which yields a table that fails on every lookup, and
// a single symbol may have a code of length one, in which case the unused
// code decodes as the out-of-alphabet symbol len(lens).
//
// On failure the table is left unmodified.
func (ht *huffmanTable) Init(lens []uint8) error {
	var bitCnts [maxCodeBits + 1]uint
	var minBits, maxBits uint8 = maxCodeBits + 1, 0
	var numSyms int
	for _, n := range lens {
		if n > maxCodeBits {
			return ErrInvalidHuffmanTree
		}
		if n == 0 {
			continue
		}
		minBits = min(minBits, n)
		maxBits = max(maxBits, n)
		bitCnts[n]++
		numSyms++
	}
	if numSyms == 0 {
		*ht = huffmanTable{chunks: ht.chunks[:0], links: ht.links[:0]}
		return nil
	}

	// Compute the first code for each bit length.
	var nextCodes [maxCodeBits + 1]uint
	var code uint
	for i := uint8(1); i <= maxBits; i++ {
		code <<= 1
		nextCodes[i] = code
		code += bitCnts[i]
	}
	degenerate := numSyms == 1 && maxBits == 1
	if code != 1<<maxBits && !degenerate {
		return ErrInvalidHuffmanTree // Tree is under or over subscribed
	}

	ht.numSyms = numSyms
	ht.minBits = minBits
	ht.chunkBits = min(maxBits, chunkLimit)
	numChunks := 1 << ht.chunkBits
	ht.chunks = extendUint16s(ht.chunks, numChunks)
	ht.chunkMask = uint32(numChunks - 1)

	ht.links = ht.links[:0]
	ht.linkMask = 0
	if ht.chunkBits < maxBits {
		numLinks := 1 << (maxBits - ht.chunkBits)
		ht.linkMask = uint32(numLinks - 1)

		baseCode := nextCodes[ht.chunkBits+1] >> 1
		ht.links = extendSliceUint16s(ht.links, numChunks-int(baseCode))
		for linkIdx := range ht.links {
			code := internal.ReverseUint32N(uint32(baseCode)+uint32(linkIdx), uint(ht.chunkBits))
			ht.links[linkIdx] = extendUint16s(ht.links[linkIdx], numLinks)
			ht.chunks[code] = uint16(linkIdx<<countBits) | uint16(ht.chunkBits+1)
		}
	}

	fill := func(sym int, n uint8, val uint32) {
		entry := uint16(sym)<<countBits | uint16(n)
		if n <= ht.chunkBits {
			for i := int(val); i < len(ht.chunks); i += 1 << n {
				ht.chunks[i] = entry
			}
			return
		}
		links := ht.links[ht.chunks[val&ht.chunkMask]>>countBits]
		for i := int(val >> ht.chunkBits); i < len(links); i += 1 << (n - ht.chunkBits) {
			links[i] = entry
		}
	}
	for sym, n := range lens {
		if n == 0 {
			continue
		}
		fill(sym, n, internal.ReverseUint32N(uint32(nextCodes[n]), uint(n)))
		nextCodes[n]++
	}
	if degenerate {
		fill(len(lens), 1, 1)
	}
	return nil
}

// extendUint16s returns a slice with length n, reusing s if possible.
func extendUint16s(s []uint16, n int) []uint16 {
	if cap(s) >= n {
		return s[:n]
	}
	return append(s[:cap(s)], make([]uint16, n-cap(s))...)
}

// extendSliceUint16s returns a slice with length n, reusing s if possible.
func extendSliceUint16s(s [][]uint16, n int) [][]uint16 {
	if cap(s) >= n {
		return s[:n]
	}
	return append(s[:cap(s)], make([][]uint16, n-cap(s))...)
}
