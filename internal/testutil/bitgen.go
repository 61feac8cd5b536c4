// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"bytes"
	"encoding/hex"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/resumeflate/resumeflate/internal"
)

var (
	reBin = regexp.MustCompile("^[01]{1,64}$")
	reDec = regexp.MustCompile("^D[0-9]+:[0-9]+$")
	reHex = regexp.MustCompile("^H[0-9]+:[0-9a-fA-F]{1,16}$")
	reRaw = regexp.MustCompile("^X:[0-9a-fA-F]+$")
	reQnt = regexp.MustCompile("[*][0-9]+$")
)

// DecodeBitGen decodes a BitGen formatted string into a bit-stream.
//
// BitGen lets a test author script a compressed stream bit by bit. Tokens are
// separated by white space and '#' starts a comment running to the end of
// the line.
//
// The first token selects the bit-packing order of the output: "<<<" packs
// bits starting at the least-significant bit of each byte (DEFLATE), ">>>"
// starting at the most-significant bit.
//
// A standalone "<" or ">" selects how later tokens are parsed. In "<" mode
// (the default) the right-most bit of a token is emitted first; in ">" mode
// the left-most bit is. The same characters may prefix a single token to
// override the mode for that token only.
//
// Value tokens:
//	[01]{1,64}             literal bit-string, e.g. 1101
//	D<n>:<decimal>         n-bit decimal value, e.g. D5:29
//	H<n>:<hex>             n-bit hexadecimal value, e.g. H16:fffb
//	X:<hex>                raw bytes; the stream must be byte-aligned
//
// Any token may end with a "*<count>" quantifier which repeats it.
// The stream is zero padded to a whole number of bytes.
//
// Example:
//	<<<                        # DEFLATE bit-packing
//	< 0 00 0*5                 # Non-last, stored block, padding
//	< H16:0004 H16:fffb        # Stored size: 4
//	X:deadcafe                 # Stored data
//	< 1 01                     # Last, fixed block
//	> 0000000                  # End-of-block
func DecodeBitGen(str string) ([]byte, error) {
	var toks []string
	for _, line := range strings.Split(str, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		toks = append(toks, strings.Fields(line)...)
	}
	if len(toks) == 0 {
		return nil, errors.New("testutil: missing bit-packing mode")
	}

	var bigPack bool
	switch toks[0] {
	case "<<<":
		bigPack = false
	case ">>>":
		bigPack = true
	default:
		return nil, errors.New("testutil: unknown bit-packing mode: " + toks[0])
	}

	var bb bitBuffer
	var bigParse bool // Global bit-parsing mode
	for _, t := range toks[1:] {
		parse := bigParse
		if t[0] == '<' || t[0] == '>' {
			parse = t[0] == '>'
			if t = t[1:]; t == "" {
				bigParse = parse
				continue
			}
		}

		rep := 1
		if reQnt.MatchString(t) {
			i := strings.LastIndexByte(t, '*')
			n, err := strconv.Atoi(t[i+1:])
			if err != nil {
				return nil, errors.New("testutil: invalid quantifier: " + t)
			}
			t, rep = t[:i], n
		}

		switch {
		case reBin.MatchString(t):
			var v uint64
			for _, c := range t {
				v = v<<1 | uint64(c-'0')
			}
			bb.writeRepeated(v, uint(len(t)), parse, rep)
		case reDec.MatchString(t), reHex.MatchString(t):
			i := strings.IndexByte(t, ':')
			base := 10
			if t[0] == 'H' {
				base = 16
			}
			n, err1 := strconv.Atoi(t[1:i])
			v, err2 := strconv.ParseUint(t[i+1:], base, 64)
			if err1 != nil || err2 != nil || n > 64 {
				return nil, errors.New("testutil: invalid numeric token: " + t)
			}
			if n < 64 && v>>uint(n) != 0 {
				return nil, errors.New("testutil: value overflows bit-length: " + t)
			}
			bb.writeRepeated(v, uint(n), parse, rep)
		case reRaw.MatchString(t):
			b, err := hex.DecodeString(t[2:])
			if err != nil {
				return nil, errors.New("testutil: invalid raw bytes: " + t)
			}
			if err := bb.writeBytes(bytes.Repeat(b, rep)); err != nil {
				return nil, err
			}
		default:
			return nil, errors.New("testutil: invalid token: " + t)
		}
	}

	buf := bb.b
	if bigPack {
		for i, c := range buf {
			buf[i] = internal.ReverseLUT[c]
		}
	}
	return buf, nil
}

// bitBuffer packs bits starting at the least-significant bit of each byte.
type bitBuffer struct {
	b []byte
	m byte // Mask of the next bit to set in the last byte; 0 if aligned
}

func (bb *bitBuffer) writeRepeated(v uint64, n uint, bigParse bool, rep int) {
	if bigParse {
		v = internal.ReverseUint64N(v, n)
	}
	for i := 0; i < rep; i++ {
		bb.writeBits(v, n)
	}
}

func (bb *bitBuffer) writeBits(v uint64, n uint) {
	for i := uint(0); i < n; i++ {
		if bb.m == 0 {
			bb.b = append(bb.b, 0)
			bb.m = 0x01
		}
		if v&(1<<i) != 0 {
			bb.b[len(bb.b)-1] |= bb.m
		}
		bb.m <<= 1
	}
}

func (bb *bitBuffer) writeBytes(b []byte) error {
	if bb.m != 0 {
		return errors.New("testutil: unaligned raw bytes")
	}
	bb.b = append(bb.b, b...)
	return nil
}
