// MIT License
//
// Copyright (c) 2020 Plamen Petrov
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package metrics

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"
)

// RunStats accumulates the counters a single reconstruction run produces:
// how many leaves of each kind the walker yielded, how many interior pages
// it could not find, how many gaps overflowed the cap, and the size of
// every region it closed.
type RunStats struct {
	NormalLeaves uint64
	LargeLeaves  uint64
	HugeLeaves   uint64

	MissingPDPT uint64
	MissingPD   uint64
	MissingPT   uint64

	GapOverflows uint64

	regionSizes []float64
}

// NewRunStats creates an empty RunStats.
func NewRunStats() *RunStats { return &RunStats{} }

// RecordRegion records the pixel length of one closed region, feeding the
// mean/stddev printed by PrintSummary.
func (s *RunStats) RecordRegion(pixels uint64) {
	s.regionSizes = append(s.regionSizes, float64(pixels))
}

// TotalLeaves sums every kind of leaf the walker yielded.
func (s *RunStats) TotalLeaves() uint64 {
	return s.NormalLeaves + s.LargeLeaves + s.HugeLeaves
}

// RegionCount is how many regions the tape builder closed.
func (s *RunStats) RegionCount() int { return len(s.regionSizes) }

// PrintSummary writes a breakdown of leaf counts, missing-page counts, and
// the mean/stddev of region sizes to w.
func (s *RunStats) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "Leaves\tNormal=%d\tLarge=%d\tHuge=%d\tTotal=%d\n",
		s.NormalLeaves, s.LargeLeaves, s.HugeLeaves, s.TotalLeaves())
	fmt.Fprintf(w, "Missing\tPDPT=%d\tPD=%d\tPT=%d\n", s.MissingPDPT, s.MissingPD, s.MissingPT)
	fmt.Fprintf(w, "Gaps\tOverflowed=%d\n", s.GapOverflows)

	if len(s.regionSizes) == 0 {
		fmt.Fprintf(w, "Regions\tcount=0\n")
		return
	}

	mean, std := stat.MeanStdDev(s.regionSizes, nil)
	fmt.Fprintf(w, "Regions\tcount=%d\tmeanPixels=%12.1f\tstdDevPixels=%12.1f\n",
		len(s.regionSizes), mean, std)
}
