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
	"time"
)

const (
	// TapeBuild is the time spent draining the page-table walker, folding
	// leaves, and expanding them into pixels.
	TapeBuild = "TapeBuild"
	// Emit is the time spent serializing the record to disk.
	Emit = "Emit"
	// Full is used when there is no breakdown.
	Full = "Full"
)

// Metric is a named set of phase durations for a single run.
type Metric struct {
	MetricMap map[string]float64
}

// NewMetric creates an empty Metric.
func NewMetric() *Metric {
	m := new(Metric)
	m.MetricMap = make(map[string]float64)

	return m
}

// Total sums every phase's duration.
func (m *Metric) Total() float64 {
	var sum float64
	for _, v := range m.MetricMap {
		sum += v
	}

	return sum
}

// PrintAll prints a per-phase breakdown followed by the total.
func (m *Metric) PrintAll() {
	for k, v := range m.MetricMap {
		fmt.Printf("%s:\t%.1f\n", k, v)
	}
	fmt.Printf("Total\t%.1f\n", m.Total())
}

// ToUS converts a Duration to microseconds, the unit phase timings are
// recorded in.
func ToUS(dur time.Duration) float64 {
	return float64(dur.Microseconds())
}
