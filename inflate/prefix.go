// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package inflate

const (
	maxNumCLenSyms   = 19
	maxNumLitSyms    = 286
	maxNumDistSyms   = 30
	maxNumDistSyms64 = 32

	numLitLens  = 288 // Size of the literal/length code length table
	numDistLens = 32  // Size of the distance code length table
)

var (
	lenLUT         [maxNumLitSyms - 257]rangeCode // RFC section 3.2.5
	lenLUT64       [maxNumLitSyms - 257]rangeCode // Symbol 285 differs in DEFLATE64
	distLUT        [maxNumDistSyms64]rangeCode    // RFC section 3.2.5
	fixedLitTable  huffmanTable                   // RFC section 3.2.6
	fixedDistTable huffmanTable                   // RFC section 3.2.6
)

var (
	// RFC section 3.2.7.
	// Order in which the code lengths of the code length alphabet are sent.
	clenOrder = [maxNumCLenSyms]uint8{
		16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
	}
)

func init() {
	// These come from the RFC section 3.2.5.
	for i, base := 0, 3; i < len(lenLUT)-1; i++ {
		nb := uint(i/4 - 1)
		if i < 4 {
			nb = 0
		}
		lenLUT[i] = rangeCode{base: uint32(base), bits: uint32(nb)}
		base += 1 << nb
	}
	lenLUT64 = lenLUT
	lenLUT[len(lenLUT)-1] = rangeCode{base: 258, bits: 0}
	lenLUT64[len(lenLUT64)-1] = rangeCode{base: 3, bits: 16}

	// These come from the RFC section 3.2.5. DEFLATE64 uses codes 30 and 31.
	for i, base := 0, 1; i < len(distLUT); i++ {
		nb := uint(i/2 - 1)
		if i < 2 {
			nb = 0
		}
		distLUT[i] = rangeCode{base: uint32(base), bits: uint32(nb)}
		base += 1 << nb
	}

	// These come from the RFC section 3.2.6.
	var litLens [numLitLens]uint8
	for i := range litLens {
		switch {
		case i < 144:
			litLens[i] = 8
		case i < 256:
			litLens[i] = 9
		case i < 280:
			litLens[i] = 7
		default:
			litLens[i] = 8
		}
	}
	var distLens [numDistLens]uint8
	for i := range distLens {
		distLens[i] = 5
	}
	if fixedLitTable.Init(litLens[:]) != nil || fixedDistTable.Init(distLens[:]) != nil {
		panic("inflate: invalid fixed tables")
	}
}
