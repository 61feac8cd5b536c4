// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package errors implements the error values shared by the codecs.
//
// The decode loops in this repository report fatal stream errors by panicking
// with an Error value, which avoids an "err != nil" check after every bit read
// in the innermost loops. Every public entry point must recover those panics
// with Recover so that they never cross the API boundary.
package errors

import (
	"fmt"
	"runtime"
)

// Error codes. The zero value is reserved so that an uninitialized Error is
// never mistaken for a real one.
const (
	Unknown = iota
	Internal
	Invalid
	Corrupted
	Exceeded
	Closed
)

var codeMap = map[int]string{
	Unknown:   "unknown error",
	Internal:  "internal error",
	Invalid:   "invalid argument",
	Corrupted: "corrupted input",
	Exceeded:  "limit exceeded",
	Closed:    "closed",
}

// Error is a comparable error value, so sentinel errors built from it can be
// matched with ==.
type Error struct {
	Code int    // The error type
	Pkg  string // Name of the package where the error originated
	Msg  string // Descriptive message about the error (optional)
}

func (e Error) Error() string {
	var ss []string
	for _, s := range []string{e.Pkg, codeMap[e.Code], e.Msg} {
		if s != "" {
			ss = append(ss, s)
		}
	}
	switch len(ss) {
	case 0:
		return codeMap[Unknown]
	case 1:
		return ss[0]
	case 2:
		return ss[0] + ": " + ss[1]
	default:
		return ss[0] + ": " + ss[1] + ": " + ss[2]
	}
}

// Errorf constructs an Error for package pkg.
func Errorf(pkg string, code int, f string, a ...interface{}) Error {
	return Error{Code: code, Pkg: pkg, Msg: fmt.Sprintf(f, a...)}
}

// Recover stores a panicked error value into *err.
// Runtime errors and non-error panics are not swallowed.
func Recover(err *error) {
	switch ex := recover().(type) {
	case nil:
		// Do nothing.
	case runtime.Error:
		panic(ex)
	case error:
		*err = ex
	default:
		panic(ex)
	}
}
