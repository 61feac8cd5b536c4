// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package fletcher implements the byte-wise Fletcher-32 variant used to
// protect serialized inflater checkpoints.
//
// Both running sums are plain wrapping 32-bit additions rather than the
// modulo 65535 sums of the textbook algorithm; the checksum is formed as
// (b<<16) | (a&0xffff).
package fletcher

// Size of a Fletcher-32 checksum in bytes.
const Size = 4

// Checksum returns the checksum of data.
func Checksum(data []byte) uint32 {
	var a, b uint32
	for _, c := range data {
		a += uint32(c)
		b += a
	}
	return b<<16 | a&0xffff
}
