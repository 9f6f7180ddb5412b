// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectmath

import (
	"fmt"
	"math"
	"testing"
)

func aeq(x, y float64) bool {
	if x < 0 && y < 0 {
		x, y = -x, -y
	}
	// Check that x and y are equal to 8 digits.
	const factor = 1 - 1e-7
	return x*factor <= y && y*factor <= x
}

func checkSummary(t *testing.T, got, want Summary, warnings ...string) {
	t.Helper()
	for _, w := range warnings {
		want.Warnings = append(want.Warnings, fmt.Errorf("%s", w))
	}
	if !aeq(got.Center, want.Center) || !aeq(got.Lo, want.Lo) || !aeq(got.Hi, want.Hi) || got.Confidence != want.Confidence || !errorsEq(got.Warnings, want.Warnings) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func errorsEq(a, b []error) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Error() != b[i].Error() {
			return false
		}
	}
	return true
}

func TestNewSample(t *testing.T) {
	in := []float64{30, 10, math.NaN(), 20}
	s := NewSample(in)
	if s.Len() != 3 || s.Values[0] != 10 || s.Values[2] != 30 {
		t.Errorf("got values %v, want [10 20 30]", s.Values)
	}
	if !errorsEq(s.Warnings, []error{fmt.Errorf("dropped 1 NaN values")}) {
		t.Errorf("got warnings %v", s.Warnings)
	}
	if in[0] != 30 {
		t.Errorf("NewSample modified its input")
	}
}

func TestSampleStats(t *testing.T) {
	s := NewSample([]float64{10, 20, 30, 50})
	if got := s.Mean(); got != 27.5 {
		t.Errorf("Mean = %v, want 27.5", got)
	}
	if got, want := s.StdDev(), math.Sqrt(875.0/3); !aeq(got, want) {
		t.Errorf("StdDev = %v, want %v", got, want)
	}
	if got := s.Median(); !aeq(got, 25) {
		t.Errorf("Median = %v, want 25", got)
	}
	if lo, hi := s.Bounds(); lo != 10 || hi != 50 {
		t.Errorf("Bounds = %v, %v, want 10, 50", lo, hi)
	}

	one := NewSample([]float64{4})
	if !math.IsNaN(one.StdDev()) {
		t.Errorf("StdDev of one value = %v, want NaN", one.StdDev())
	}
	if lo, hi := NewSample(nil).Bounds(); !math.IsNaN(lo) || !math.IsNaN(hi) {
		t.Errorf("Bounds of empty sample = %v, %v", lo, hi)
	}
}

func TestStdBounds(t *testing.T) {
	inf := math.Inf(1)
	checkSummary(t, StdBounds(NewSample([]float64{10, 20})),
		Summary{Center: 15, Lo: 15 - math.Sqrt(50), Hi: 15 + math.Sqrt(50)})
	checkSummary(t, StdBounds(NewSample([]float64{40, 40})),
		Summary{Center: 40, Lo: 40, Hi: 40})
	checkSummary(t, StdBounds(NewSample([]float64{7})),
		Summary{Center: 7, Lo: -inf, Hi: inf},
		"need >= 2 samples for a standard deviation")
	got := StdBounds(NewSample(nil))
	if !math.IsNaN(got.Center) || !errorsEq(got.Warnings, []error{errEmpty}) {
		t.Errorf("got %#v for empty sample", got)
	}
}

func TestMeanCI(t *testing.T) {
	// This is a thin wrapper around stats.Sample.MeanCI, so just
	// do a smoke test.
	s := NewSample([]float64{-8, 2, 3, 4, 5, 6})
	checkSummary(t, MeanCI(s, 0.95),
		Summary{Center: 2, Lo: -3.351092806089359, Hi: 7.351092806089359, Confidence: 0.95})

	inf := math.Inf(1)
	checkSummary(t, MeanCI(NewSample([]float64{1}), 0.95),
		Summary{Center: 1, Lo: -inf, Hi: inf, Confidence: 0.95},
		"need >= 2 samples for confidence interval at level 0.95")
}

func TestSummaryFormat(t *testing.T) {
	check := func(center, lo, hi float64, want string) {
		t.Helper()
		s := Summary{Center: center, Lo: lo, Hi: hi}
		got := s.PctRangeString()
		if got != want {
			t.Errorf("for %v CI [%v, %v], got %s, want %s", center, lo, hi, got, want)
		}
	}
	inf := math.Inf(1)

	check(1, 0.5, 1.1, "50%")
	check(1, 0.9, 1.5, "50%")
	check(1, 1, 1, "0%")

	check(-1, -0.5, -1.1, "50%")
	check(-1, -1, -1, "0%")

	check(1, -inf, 1, "∞")
	check(1, 1, inf, "∞")

	check(1, -1, 1, "?")
	check(0, -1, 1, "?")
	check(0, 0, 0, "0%")

	if got := (Summary{Center: 15, Lo: 12, Hi: 18}).String(); got != "15 ±20%" {
		t.Errorf("String = %q, want %q", got, "15 ±20%")
	}
}
