// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectmath

import "math"

// AutoBins returns the number of equal-width histogram bins for s.
//
// It is the larger of the bin counts given by the Freedman-Diaconis
// rule, which suits large samples, and Sturges' rule, which suits
// small ones. A sample with fewer than two distinct values gets one
// bin.
func AutoBins(s *Sample) int {
	n := float64(len(s.Values))
	lo, hi := s.Bounds()
	rng := hi - lo
	if len(s.Values) < 2 || !(rng > 0) {
		return 1
	}
	bins := math.Log2(n) + 1
	if iqr := s.IQR(); iqr > 0 {
		width := 2 * iqr / math.Cbrt(n)
		if fd := rng / width; fd > bins {
			bins = fd
		}
	}
	return int(math.Ceil(bins))
}

// MaxAutoBins returns the largest AutoBins of samples, so that
// several histograms drawn together share a bin count.
func MaxAutoBins(samples ...*Sample) int {
	bins := 1
	for _, s := range samples {
		if b := AutoBins(s); b > bins {
			bins = b
		}
	}
	return bins
}
