// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inspectmath provides tools for computing statistics over
// samples of inspection durations.
//
// It summarizes a sample as a center and a spread, the way duration
// statistics of inspection results are usually reported: the mean
// bracketed by one standard deviation, or the mean and its confidence
// interval. It also compares samples from different configurations and
// chooses histogram bins.
//
// All analysis results contain a list of warnings, captured as an
// []error value. These aren't errors that prevent analysis, but
// should be presented to the user along with analysis results.
package inspectmath

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/mathx"
	"github.com/aclements/go-moremath/stats"
)

// A Sample is a set of measurements of one duration, such as the job
// durations of a group of inspections.
type Sample struct {
	// Values are the measured values, in ascending order. NaNs are
	// removed.
	Values []float64

	// Warnings is a list of warnings about this sample that
	// should be reported to the user.
	Warnings []error
}

// NewSample constructs a Sample from a set of measurements. It does
// not modify values.
func NewSample(values []float64) *Sample {
	s := &Sample{Values: make([]float64, 0, len(values))}
	nans := 0
	for _, v := range values {
		if math.IsNaN(v) {
			nans++
			continue
		}
		s.Values = append(s.Values, v)
	}
	if nans > 0 {
		s.Warnings = append(s.Warnings, fmt.Errorf("dropped %d NaN values", nans))
	}
	// Sort values for fast order statistics.
	sort.Float64s(s.Values)
	return s
}

func (s *Sample) sample() stats.Sample {
	return stats.Sample{Xs: s.Values, Sorted: true}
}

// Len returns the number of values in s.
func (s *Sample) Len() int {
	return len(s.Values)
}

// Mean returns the arithmetic mean of s, or NaN if s is empty.
func (s *Sample) Mean() float64 {
	return s.sample().Mean()
}

// StdDev returns the sample standard deviation of s, or NaN if s has
// fewer than two values.
func (s *Sample) StdDev() float64 {
	if len(s.Values) < 2 {
		return math.NaN()
	}
	return s.sample().StdDev()
}

// Median returns the median of s, or NaN if s is empty.
func (s *Sample) Median() float64 {
	return s.sample().Quantile(0.5)
}

// IQR returns the interquartile range of s.
func (s *Sample) IQR() float64 {
	return s.sample().IQR()
}

// Bounds returns the smallest and largest values of s.
func (s *Sample) Bounds() (lo, hi float64) {
	if len(s.Values) == 0 {
		return math.NaN(), math.NaN()
	}
	return s.Values[0], s.Values[len(s.Values)-1]
}

// A Summary summarizes a Sample.
type Summary struct {
	// Center is the mean of the sample.
	Center float64

	// Lo and Hi give the bounds of the interval around Center.
	Lo, Hi float64

	// Confidence is the confidence level of the interval given by
	// Lo, Hi, or 0 if the interval is not a confidence interval.
	Confidence float64

	// Warnings is a list of warnings about this summary.
	Warnings []error
}

// StdBounds summarizes s as its mean bracketed by one sample standard
// deviation on either side. If s has fewer than two values, the
// bounds are infinite.
func StdBounds(s *Sample) Summary {
	if len(s.Values) == 0 {
		return Summary{Center: math.NaN(), Lo: math.Inf(-1), Hi: math.Inf(1), Warnings: []error{errEmpty}}
	}
	mean := s.Mean()
	if len(s.Values) < 2 {
		return Summary{Center: mean, Lo: math.Inf(-1), Hi: math.Inf(1), Warnings: []error{
			fmt.Errorf("need >= 2 samples for a standard deviation"),
		}}
	}
	sd := s.StdDev()
	return Summary{Center: mean, Lo: mean - sd, Hi: mean + sd}
}

// MeanCI summarizes s as its mean and the confidence interval of the
// mean at the given confidence level, assuming s is normally
// distributed. Confidence is given in the range [0,1], e.g., 0.95 for
// 95% confidence.
func MeanCI(s *Sample, confidence float64) Summary {
	if len(s.Values) == 0 {
		return Summary{Center: math.NaN(), Lo: math.Inf(-1), Hi: math.Inf(1), Warnings: []error{errEmpty}}
	}
	if len(s.Values) < 2 {
		return Summary{Center: s.Mean(), Lo: math.Inf(-1), Hi: math.Inf(1), Confidence: confidence, Warnings: []error{
			fmt.Errorf("need >= 2 samples for confidence interval at level %v", confidence),
		}}
	}
	mean, lo, hi := s.sample().MeanCI(confidence)
	return Summary{Center: mean, Lo: lo, Hi: hi, Confidence: confidence}
}

var errEmpty = fmt.Errorf("no samples")

// PctRangeString returns a string representation of the range of this
// Summary's interval as a percentage of its center.
func (s Summary) PctRangeString() string {
	if math.IsInf(s.Lo, 0) || math.IsInf(s.Hi, 0) {
		return "∞"
	}

	// If the signs of the bounds differ from the center, we can't
	// render it as a percent.
	var csign = mathx.Sign(s.Center)
	if csign != mathx.Sign(s.Lo) || csign != mathx.Sign(s.Hi) {
		return "?"
	}

	if s.Center == 0 {
		return "0%"
	}

	v := math.Max(s.Hi/s.Center-1, 1-s.Lo/s.Center)
	return fmt.Sprintf("%.0f%%", 100*v)
}

// String formats s as "center ±pct".
func (s Summary) String() string {
	return fmt.Sprintf("%.4g ±%s", s.Center, s.PctRangeString())
}
