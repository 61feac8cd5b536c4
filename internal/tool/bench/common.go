// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package bench compares the performance of DEFLATE implementations with
// respect to encode speed, decode speed, and ratio. Implementations are
// referred to as codecs.
package bench

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	strconv "github.com/dsnet/golib/unitconv"
	"github.com/pkg/errors"

	"github.com/resumeflate/resumeflate/internal/testutil"
)

const (
	TestEncodeRate = iota
	TestDecodeRate
	TestCompressRatio
)

type Encoder func(io.Writer, int) io.WriteCloser
type Decoder func(io.Reader) io.ReadCloser

var (
	Encoders = make(map[string]Encoder)
	Decoders = make(map[string]Decoder)
)

func RegisterEncoder(name string, enc Encoder) { Encoders[name] = enc }
func RegisterDecoder(name string, dec Decoder) { Decoders[name] = dec }

// Inputs generates the benchmark data by name.
var Inputs = map[string]func(n int) []byte{
	"text":   func(n int) []byte { return testutil.NewRand(0).Text(n) },
	"random": func(n int) []byte { return testutil.NewRand(0).Bytes(n) },
	"zeros":  func(n int) []byte { return make([]byte, n) },
	"repeats": func(n int) []byte {
		return testutil.ResizeData(testutil.NewRand(1).Text(4096), n)
	},
}

// Names returns the sorted keys of a registry.
func Names[M ~map[string]V, V any](m M) []string {
	var s []string
	for k := range m {
		s = append(s, k)
	}
	sort.Strings(s)
	return s
}

// Compress encodes input with enc at the given level.
func Compress(enc Encoder, input []byte, lvl int) ([]byte, error) {
	buf := new(bytes.Buffer)
	wr := enc(buf, lvl)
	if _, err := io.Copy(wr, bytes.NewReader(input)); err != nil {
		return nil, errors.Wrap(err, "compress")
	}
	if err := wr.Close(); err != nil {
		return nil, errors.Wrap(err, "close encoder")
	}
	return buf.Bytes(), nil
}

// Decompress decodes input with dec and returns the number of bytes and
// their digest.
func Decompress(dec Decoder, input []byte) (int64, uint64, error) {
	h := xxhash.New()
	rd := dec(bufio.NewReader(bytes.NewReader(input)))
	cnt, err := io.Copy(h, rd)
	if err != nil {
		rd.Close()
		return cnt, 0, errors.Wrap(err, "decompress")
	}
	if err := rd.Close(); err != nil {
		return cnt, 0, errors.Wrap(err, "close decoder")
	}
	return cnt, h.Sum64(), nil
}

// Verify checks that dec reproduces input from the output of enc.
func Verify(enc Encoder, dec Decoder, input []byte, lvl int) error {
	comp, err := Compress(enc, input, lvl)
	if err != nil {
		return err
	}
	cnt, sum, err := Decompress(dec, comp)
	if err != nil {
		return err
	}
	if cnt != int64(len(input)) {
		return errors.Errorf("mismatching count: got %d, want %d", cnt, len(input))
	}
	if want := xxhash.Sum64(input); sum != want {
		return errors.Errorf("mismatching digest: got 0x%016x, want 0x%016x", sum, want)
	}
	return nil
}

// BenchmarkEncoder benchmarks a single encoder on the given input data using
// the selected compression level and reports the result.
func BenchmarkEncoder(input []byte, enc Encoder, lvl int) testing.BenchmarkResult {
	return testing.Benchmark(func(b *testing.B) {
		b.StopTimer()
		if enc == nil {
			b.Fatalf("unexpected error: nil Encoder")
		}
		runtime.GC()
		b.StartTimer()
		for i := 0; i < b.N; i++ {
			wr := enc(io.Discard, lvl)
			_, err := io.Copy(wr, bytes.NewReader(input))
			if err := wr.Close(); err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			if err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			b.SetBytes(int64(len(input)))
		}
	})
}

// BenchmarkDecoder benchmarks a single decoder on the given pre-compressed
// input data and reports the result. Every iteration must reproduce the
// digest want.
func BenchmarkDecoder(input []byte, dec Decoder, want uint64) testing.BenchmarkResult {
	return testing.Benchmark(func(b *testing.B) {
		b.StopTimer()
		if dec == nil {
			b.Fatalf("unexpected error: nil Decoder")
		}
		runtime.GC()
		b.StartTimer()
		for i := 0; i < b.N; i++ {
			cnt, sum, err := Decompress(dec, input)
			if err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			if sum != want {
				b.Fatalf("mismatching digest: got 0x%016x, want 0x%016x", sum, want)
			}
			b.SetBytes(cnt)
		}
	})
}

type Result struct {
	R float64 // Rate (MB/s) or ratio (rawSize/compSize)
	D float64 // Delta ratio relative to primary benchmark
}

func rate(result testing.BenchmarkResult) Result {
	if result.N == 0 {
		return Result{}
	}
	us := (float64(result.T.Nanoseconds()) / 1e3) / float64(result.N)
	return Result{R: float64(result.Bytes) / us}
}

// BenchmarkEncoderSuite runs multiple benchmarks across all encoder
// implementations, inputs, levels, and sizes.
//
// The values returned have the following structure:
//
//	results: [len(inputs)*len(levels)*len(sizes)][len(encs)]Result
//	names:   [len(inputs)*len(levels)*len(sizes)]string
func BenchmarkEncoderSuite(encs, inputs []string, levels, sizes []int, tick func()) (results [][]Result, names []string) {
	return benchmarkSuite(encs, inputs, levels, sizes, tick,
		func(input []byte, enc string, lvl int) Result {
			return rate(BenchmarkEncoder(input, Encoders[enc], lvl))
		})
}

// BenchmarkDecoderSuite runs multiple benchmarks across all decoder
// implementations, inputs, levels, and sizes. The input is compressed once
// by the reference encoder so that every decoder sees the same stream.
func BenchmarkDecoderSuite(decs, inputs []string, levels, sizes []int, ref Encoder, tick func()) (results [][]Result, names []string) {
	return benchmarkSuite(decs, inputs, levels, sizes, tick,
		func(input []byte, dec string, lvl int) Result {
			output, err := Compress(ref, input, lvl)
			if err != nil {
				return Result{}
			}
			return rate(BenchmarkDecoder(output, Decoders[dec], xxhash.Sum64(input)))
		})
}

// BenchmarkRatioSuite runs multiple benchmarks across all encoder
// implementations, inputs, levels, and sizes.
func BenchmarkRatioSuite(encs, inputs []string, levels, sizes []int, tick func()) (results [][]Result, names []string) {
	return benchmarkSuite(encs, inputs, levels, sizes, tick,
		func(input []byte, enc string, lvl int) Result {
			output, err := Compress(Encoders[enc], input, lvl)
			if err != nil || len(output) == 0 {
				return Result{}
			}
			return Result{R: float64(len(input)) / float64(len(output))}
		})
}

type benchFunc func(input []byte, codec string, level int) Result

func benchmarkSuite(codecs, inputs []string, levels, sizes []int, tick func(), run benchFunc) ([][]Result, []string) {
	// Allocate buffers for the result.
	d0 := len(inputs) * len(levels) * len(sizes)
	d1 := len(codecs)
	results := make([][]Result, d0)
	for i := range results {
		results[i] = make([]Result, d1)
	}
	names := make([]string, d0)

	// Run the benchmark for every codec, input, level, and size.
	var i int
	for _, in := range inputs {
		for _, l := range levels {
			for _, n := range sizes {
				gen, ok := Inputs[in]
				var b []byte
				if ok {
					b = gen(n)
				}
				names[i] = getName(in, l, n)
				for j, c := range codecs {
					if tick != nil {
						tick()
					}
					if ok {
						results[i][j] = run(b, c, l)
					}
					if results[i][0].R != 0 {
						results[i][j].D = results[i][j].R / results[i][0].R
					}
				}
				i++
			}
		}
	}
	return results, names
}

func getName(in string, l, n int) string {
	var sn string
	switch n {
	case 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9, 1e10, 1e11, 1e12:
		s := fmt.Sprintf("%e", float64(n))
		re := regexp.MustCompile(`\.0*e\+0*`)
		sn = re.ReplaceAllString(s, "e")
	default:
		s := strconv.FormatPrefix(float64(n), strconv.Base1024, 2)
		sn = strings.Replace(s, ".00", "", -1)
	}
	return fmt.Sprintf("%s:%d:%s", in, l, sn)
}
