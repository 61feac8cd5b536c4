// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package inflate

// The outputWindow is a circular buffer holding both the history needed for
// backward copies and the output not yet drained by the caller.
//
// Invariants:
//	0 <= unread <= len(hist)
//	unread <= written
//	The last min(len(hist), written) bytes before end are valid.
//
// Drained bytes leave the unread count but remain in the buffer as history
// until they are overwritten.
type outputWindow struct {
	hist    []byte // Circular buffer of windowSize bytes
	end     int    // Position where the next byte is written
	unread  int    // Bytes written but not yet drained
	written int64  // Total bytes written since the start of the stream
	maxDist int    // Largest distance WriteCopy accepts
}

// Init resets the window, reusing the buffer if possible.
func (ow *outputWindow) Init(maxDist int) {
	*ow = outputWindow{hist: ow.hist, maxDist: maxDist}
	if ow.hist == nil {
		ow.hist = make([]byte, windowSize)
	}
}

// Free reports the number of bytes that can be written before unread output
// would be overwritten.
func (ow *outputWindow) Free() int {
	return len(ow.hist) - ow.unread
}

// WriteLiteral writes a single literal byte to the window.
func (ow *outputWindow) WriteLiteral(c byte) {
	ow.hist[ow.end] = c
	ow.end = (ow.end + 1) & windowMask
	ow.unread++
	ow.written++
}

// WriteCopy copies length bytes starting at dist bytes before the current
// position. Overlapping copies repeat the most recent bytes, as the RFC
// requires. The caller must ensure that Free() >= length.
func (ow *outputWindow) WriteCopy(dist, length int) {
	if dist <= 0 || dist > ow.maxDist || int64(dist) > ow.written {
		panic(ErrInvalidDistance)
	}
	src := (ow.end - dist) & windowMask
	for i := 0; i < length; i++ {
		ow.hist[ow.end] = ow.hist[src]
		ow.end = (ow.end + 1) & windowMask
		src = (src + 1) & windowMask
	}
	ow.unread += length
	ow.written += int64(length)
}

// WriteSlice returns a slice of the buffer that can be filled directly.
// The caller must call WriteMark with the number of bytes filled.
func (ow *outputWindow) WriteSlice() []byte {
	n := min(len(ow.hist)-ow.end, ow.Free())
	return ow.hist[ow.end : ow.end+n]
}

// WriteMark advances the window by n bytes written through WriteSlice.
func (ow *outputWindow) WriteMark(n int) {
	ow.end = (ow.end + n) & windowMask
	ow.unread += n
	ow.written += int64(n)
}

// Drain copies unread bytes into buf and returns the number copied.
func (ow *outputWindow) Drain(buf []byte) int {
	n := min(len(buf), ow.unread)
	start := (ow.end - ow.unread) & windowMask
	cnt := copy(buf[:n], ow.hist[start:])
	cnt += copy(buf[cnt:n], ow.hist)
	ow.unread -= cnt
	return cnt
}

// CheckpointData returns the bytes a checkpoint must carry: the reachable
// history and all unread output. The result may wrap around the end of the
// buffer, in which case it is split into two slices.
func (ow *outputWindow) CheckpointData() (a, b []byte) {
	n := max(int(min(int64(maxHistSize), ow.written)), ow.unread)
	start := (ow.end - n) & windowMask
	if n == 0 {
		return nil, nil
	}
	if start+n <= len(ow.hist) {
		return ow.hist[start : start+n], nil
	}
	return ow.hist[start:], ow.hist[:ow.end]
}

// Restore replaces the window contents with data, the last bytes of a
// stream of the given length of which unread were not yet drained.
func (ow *outputWindow) Restore(data []byte, unread int, written int64) {
	ow.Init(ow.maxDist)
	copy(ow.hist, data)
	ow.end = len(data) & windowMask
	ow.unread = unread
	ow.written = written
}
