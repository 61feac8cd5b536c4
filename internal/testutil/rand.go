// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
)

// Rand is a deterministic pseudo-random generator whose output does not
// change across Go releases, unlike math/rand.
type Rand struct {
	cipher.Block
	blk [aes.BlockSize]byte
}

func NewRand(seed int) *Rand {
	var key [aes.BlockSize]byte
	binary.LittleEndian.PutUint64(key[:], uint64(seed))
	r, _ := aes.NewCipher(key[:])
	return &Rand{Block: r}
}

func (r *Rand) Int() int {
	r.Encrypt(r.blk[:], r.blk[:])
	return int(binary.LittleEndian.Uint64(r.blk[:]) >> 2)
}

func (r *Rand) Intn(n int) int {
	return r.Int() % n
}

func (r *Rand) Bytes(n int) []byte {
	b := make([]byte, n)
	for bb := b; len(bb) > 0; {
		r.Encrypt(r.blk[:], r.blk[:])
		bb = bb[copy(bb, r.blk[:]):]
	}
	return b
}

// Text returns n bytes of compressible data: words drawn from a small
// vocabulary, so that encoders emit a mix of literals and matches of
// varying distances.
func (r *Rand) Text(n int) []byte {
	words := []string{
		"the ", "quick ", "brown ", "fox ", "jumps ", "over ", "lazy ", "dog ",
		"checkpoint ", "resume ", "inflate ", "window ", "huffman ", "block ",
		"stream ", "\n", "0123456789", "DEFLATE64 ",
	}
	b := make([]byte, 0, n+16)
	for len(b) < n {
		b = append(b, words[r.Intn(len(words))]...)
	}
	return b[:n]
}
