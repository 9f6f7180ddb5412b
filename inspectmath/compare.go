// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectmath

import (
	"errors"
	"fmt"

	"github.com/aclements/go-moremath/mathx"
	"github.com/aclements/go-moremath/stats"
)

// DefaultAlpha is the usual alpha level for Compare.
const DefaultAlpha = 0.05

// A Comparison is the result of comparing two samples to test if they
// come from the same distribution.
type Comparison struct {
	// P is the p-value of the null hypothesis that two samples
	// come from the same distribution. If P is less than Alpha,
	// we reject the null hypothesis.
	P float64

	// N1 and N2 are the sizes of the two samples.
	N1, N2 int

	Alpha float64

	// Warnings is a list of warnings about this comparison
	// result.
	Warnings []error
}

// Compare tests whether s1 and s2 come from the same distribution
// using the Mann-Whitney U-test, which makes no assumption about the
// shape of the distributions. This is the question of whether a
// duration is stable across two configurations.
func Compare(s1, s2 *Sample, alpha float64) Comparison {
	c := Comparison{N1: len(s1.Values), N2: len(s2.Values), Alpha: alpha}
	if c.N1 == 0 || c.N2 == 0 {
		c.P = 1
		c.Warnings = append(c.Warnings, errEmpty)
		return c
	}
	if minP := minUTestP(c.N1, c.N2); minP > alpha {
		c.Warnings = append(c.Warnings, fmt.Errorf("need more samples to detect a difference at alpha level %v", alpha))
	}
	u, err := stats.MannWhitneyUTest(s1.Values, s2.Values, stats.LocationDiffers)
	if err != nil {
		// Report as if there's no significant difference,
		// along with the reason.
		c.P = 1
		if errors.Is(err, stats.ErrSamplesEqual) {
			err = errors.New("all samples are equal")
		}
		c.Warnings = append(c.Warnings, err)
		return c
	}
	c.P = u.P
	return c
}

// minUTestP returns the smallest p-value a two-sided U-test can
// produce for samples of sizes n1 and n2, which is reached when the
// samples do not overlap.
func minUTestP(n1, n2 int) float64 {
	return 2 / mathx.Choose(n1+n2, n1)
}

// Significant reports whether the comparison rejects the null
// hypothesis.
func (c Comparison) Significant() bool {
	return c.P < c.Alpha
}

// String summarizes the comparison. The general form of this string
// is "p=0.PPP n=N1+N2" but can be shortened.
func (c Comparison) String() string {
	s := fmt.Sprintf("p=%0.3f ", c.P)
	if c.N1 == c.N2 {
		return s + fmt.Sprintf("n=%d", c.N1)
	}
	return s + fmt.Sprintf("n=%d+%d", c.N1, c.N2)
}

// FormatDelta formats the difference in the centers of two samples.
// If the Comparison accepts the null hypothesis that the samples come
// from the same distribution, FormatDelta returns "~" to indicate
// there's no meaningful difference. Otherwise, it returns the percent
// difference between the centers.
func (c Comparison) FormatDelta(old, new float64) string {
	if !c.Significant() {
		return "~"
	}
	if old == new {
		return "0.00%"
	}
	if old == 0 {
		return "?"
	}
	pct := ((new / old) - 1.0) * 100.0
	return fmt.Sprintf("%+.2f%%", pct)
}
