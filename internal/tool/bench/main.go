// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build ignore

// Benchmark tool to compare performance between multiple DEFLATE
// implementations. Individual implementations are referred to as codecs.
//
// Example usage:
//
//	$ go run main.go \
//		-tests   decRate,ratio \
//		-codecs  std,kp,rf,rfc \
//		-inputs  text,repeats  \
//		-levels  1,6,9         \
//		-sizes   1e4,1e5,1e6
package main

import (
	"flag"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	strconv "github.com/dsnet/golib/unitconv"
	"github.com/sirupsen/logrus"

	"github.com/resumeflate/resumeflate/internal/tool/bench"
)

const (
	defaultLevels = "1,6,9"
	defaultSizes  = "1e4,1e5,1e6"
)

// The decompression speed benchmark works by decompressing some pre-compressed
// data. In order for the benchmarks to be consistent, the same encoder should
// be used to generate the pre-compressed data for all the trials.
//
// encRefs defines the priority order for which encoders to choose first as the
// reference compressor.
var encRefs = []string{"std", "kp"}

var (
	testToEnum = map[string]int{
		"encRate": bench.TestEncodeRate,
		"decRate": bench.TestDecodeRate,
		"ratio":   bench.TestCompressRatio,
	}
	enumToTest = map[int]string{
		bench.TestEncodeRate:    "encRate",
		bench.TestDecodeRate:    "decRate",
		bench.TestCompressRatio: "ratio",
	}
)

func defaultTests() string {
	var d []int
	for k := range enumToTest {
		d = append(d, k)
	}
	sort.Ints(d)
	var s []string
	for _, v := range d {
		s = append(s, enumToTest[v])
	}
	return strings.Join(s, ",")
}

func defaultCodecs() string {
	m := make(map[string]bool)
	for _, k := range bench.Names(bench.Encoders) {
		m[k] = true
	}
	for _, k := range bench.Names(bench.Decoders) {
		m[k] = true
	}
	delete(m, "std")
	s := bench.Names(m)
	return strings.Join(append([]string{"std"}, s...), ",") // Ensure "std" always appears first
}

func main() {
	f1 := flag.String("tests", defaultTests(), "List of different benchmark tests")
	f2 := flag.String("codecs", defaultCodecs(), "List of codecs to benchmark")
	f3 := flag.String("inputs", strings.Join(bench.Names(bench.Inputs), ","), "List of generated inputs to benchmark")
	f4 := flag.String("levels", defaultLevels, "List of compression levels to benchmark")
	f5 := flag.String("sizes", defaultSizes, "List of input sizes to benchmark")
	verbose := flag.Bool("v", false, "Log decoder diagnostics")
	flag.Parse()
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Parse the flag arguments.
	var sep = regexp.MustCompile("[,:]")
	var tests, levels, sizes []int
	codecs := sep.Split(*f2, -1)
	inputs := sep.Split(*f3, -1)
	for _, s := range sep.Split(*f1, -1) {
		t, ok := testToEnum[s]
		if !ok {
			logrus.Fatalf("invalid test: %q", s)
		}
		tests = append(tests, t)
	}
	for _, s := range inputs {
		if _, ok := bench.Inputs[s]; !ok {
			logrus.Fatalf("invalid input: %q", s)
		}
	}
	for _, s := range sep.Split(*f4, -1) {
		lvl, err := strconv.ParsePrefix(s, strconv.AutoParse)
		if err != nil {
			logrus.Fatalf("invalid level: %q", s)
		}
		levels = append(levels, int(lvl))
	}
	for _, s := range sep.Split(*f5, -1) {
		nf, err := strconv.ParsePrefix(s, strconv.AutoParse)
		if err != nil {
			logrus.Fatalf("invalid size: %q", s)
		}
		sizes = append(sizes, int(nf))
	}

	ts := time.Now()
	verifyCodecs(codecs)
	runBenchmarks(inputs, codecs, tests, levels, sizes)
	fmt.Printf("RUNTIME: %v\n", time.Since(ts))
}

// verifyCodecs checks every selected decoder against the reference encoder
// before any time is spent benchmarking.
func verifyCodecs(codecs []string) {
	ref := getReferenceEncoder()
	input := bench.Inputs["text"](1e5)
	for _, c := range codecs {
		dec, ok := bench.Decoders[c]
		if !ok {
			continue
		}
		if err := bench.Verify(ref, dec, input, 6); err != nil {
			logrus.WithError(err).WithField("codec", c).Fatal("decoder verification failed")
		}
	}
}

func runBenchmarks(inputs, codecs []string, tests, levels, sizes []int) {
	// Get lists of encoders and decoders that exist.
	var encs, decs []string
	for _, c := range codecs {
		if _, ok := bench.Encoders[c]; ok {
			encs = append(encs, c)
		}
		if _, ok := bench.Decoders[c]; ok {
			decs = append(decs, c)
		}
	}

	for _, t := range tests {
		var results [][]bench.Result
		var names, codecs []string
		var title, suffix string

		// Check that we can actually do this bench.
		fmt.Printf("BENCHMARK: %s\n", enumToTest[t])
		if len(encs) == 0 {
			fmt.Print("\tSKIP: There are no encoders available.\n\n")
			continue
		}
		if len(decs) == 0 && t == bench.TestDecodeRate {
			fmt.Print("\tSKIP: There are no decoders available.\n\n")
			continue
		}

		// Progress ticker.
		var cnt int
		tick := func() {
			total := len(codecs) * len(inputs) * len(levels) * len(sizes)
			pct := 100.0 * float64(cnt) / float64(total)
			fmt.Printf("\t[%6.2f%%] %d of %d\r", pct, cnt, total)
			cnt++
		}

		// Perform the bench. This may take some time.
		switch t {
		case bench.TestEncodeRate:
			codecs, title, suffix = encs, "MB/s", ""
			results, names = bench.BenchmarkEncoderSuite(encs, inputs, levels, sizes, tick)
		case bench.TestDecodeRate:
			codecs, title, suffix = decs, "MB/s", ""
			results, names = bench.BenchmarkDecoderSuite(decs, inputs, levels, sizes, getReferenceEncoder(), tick)
		case bench.TestCompressRatio:
			codecs, title, suffix = encs, "ratio", "x"
			results, names = bench.BenchmarkRatioSuite(encs, inputs, levels, sizes, tick)
		}

		printResults(results, names, codecs, title, suffix)
		fmt.Println()
	}
}

func getReferenceEncoder() bench.Encoder {
	for _, c := range encRefs {
		if enc, ok := bench.Encoders[c]; ok {
			return enc // Choose by priority
		}
	}
	logrus.Fatal("no reference encoder available")
	return nil
}

func printResults(results [][]bench.Result, names, codecs []string, title, suffix string) {
	// Allocate result table.
	cells := make([][]string, 1+len(names))
	for i := range cells {
		cells[i] = make([]string, 1+2*len(codecs))
	}

	// Label the first row.
	cells[0][0] = "benchmark"
	for i, c := range codecs {
		cells[0][1+2*i] = c + " " + title
		cells[0][2+2*i] = "delta"
	}

	// Insert all rows.
	for j, row := range results {
		cells[1+j][0] = names[j]
		for i, r := range row {
			if r.R != 0 && !math.IsNaN(r.R) && !math.IsInf(r.R, 0) {
				cells[1+j][1+2*i] = fmt.Sprintf("%.2f", r.R) + suffix
			}
			if r.D != 0 && !math.IsNaN(r.D) && !math.IsInf(r.D, 0) {
				cells[1+j][2+2*i] = fmt.Sprintf("%.2f", r.D) + "x"
			}
		}
	}

	// Compute the maximum lengths.
	maxLens := make([]int, 1+2*len(codecs))
	for _, row := range cells {
		for i, s := range row {
			maxLens[i] = max(maxLens[i], len(s))
		}
	}

	// Print padded versions of all cells.
	for _, row := range cells {
		fmt.Print("\t")
		for i, s := range row {
			switch {
			case i == 0: // Column 0
				row[i] = s + strings.Repeat(" ", maxLens[i]-len(s))
			case i%2 == 1: // Column 1, 3, 5, 7, ...
				row[i] = strings.Repeat(" ", 6+maxLens[i]-len(s)) + s
			case i%2 == 0: // Column 2, 4, 6, 8, ...
				row[i] = strings.Repeat(" ", 2+maxLens[i]-len(s)) + s
			}
			fmt.Print(row[i])
		}
		fmt.Println()
	}
}
