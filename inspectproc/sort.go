// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SortIndex returns a copy of the grouped Frame f with its rows
// stably sorted by the given index levels, in order. Level i refers to
// f.Index.Levels[i] and level len(f.Index.Levels) to the row level.
// If no levels are given, rows are sorted by every level except the
// row level, which keeps rows within a group in their original order.
//
// Values are compared in their natural order: numbers numerically,
// strings that look like numbers (including SI and IEC suffixed
// numbers such as "4Gi") numerically, other strings lexically, and
// times chronologically. Values of different types sort in the order
// bool, number, duration, time, string; nulls sort last.
//
// If f is not grouped, SortIndex returns an unchanged copy of f.
func SortIndex(f *Frame, levels ...int) (*Frame, error) {
	if f.Index == nil {
		return f.shallow(), nil
	}
	nLevels := len(f.Index.Levels)
	if len(levels) == 0 {
		for i := 0; i < nLevels; i++ {
			levels = append(levels, i)
		}
	}
	for _, l := range levels {
		if l < 0 || l > nLevels {
			return nil, fmt.Errorf("index level %d out of range [0, %d]", l, nLevels)
		}
	}

	rows := make([]int, f.n)
	for i := range rows {
		rows[i] = i
	}
	x := f.Index
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for _, l := range levels {
			var c int
			if l == nLevels {
				c = compareInts(x.Rows[a], x.Rows[b])
			} else {
				c = compareValues(x.Levels[l].Values[a], x.Levels[l].Values[b])
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return f.takeRows(rows), nil
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// kindRank orders values of different types.
func kindRank(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case float64:
		return 1
	case time.Duration:
		return 2
	case time.Time:
		return 3
	case string:
		return 4
	case nil:
		return 6
	}
	return 5
}

// compareValues compares two cell values in natural order.
func compareValues(a, b any) int {
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		return compareInts(ra, rb)
	}
	switch a := a.(type) {
	case nil:
		return 0
	case bool:
		b := b.(bool)
		switch {
		case a == b:
			return 0
		case !a:
			return -1
		}
		return 1
	case float64:
		return compareFloats(a, b.(float64))
	case time.Duration:
		return compareInts(int(a), int(b.(time.Duration)))
	case time.Time:
		return a.Compare(b.(time.Time))
	case string:
		return compareStrings(a, b.(string))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// compareFloats orders floats numerically with NaNs last.
func compareFloats(a, b float64) int {
	switch {
	case a < b || (!math.IsNaN(a) && math.IsNaN(b)):
		return -1
	case a > b || (math.IsNaN(a) && !math.IsNaN(b)):
		return 1
	}
	return 0
}

// compareStrings orders strings numerically if both look like
// numbers and lexically otherwise. Numeric strings sort before
// non-numeric strings.
func compareStrings(a, b string) int {
	if a == b {
		return 0
	}
	aa, erra := parseNum(a)
	bb, errb := parseNum(b)
	switch {
	case erra == nil && errb == nil:
		if c := compareFloats(aa, bb); c != 0 {
			return c
		}
		// Numerically equal but different strings, such as
		// "1k" and "1000". Fall back to a lexical order so the
		// order is total.
	case erra == nil:
		return -1
	case errb == nil:
		return 1
	}
	return strings.Compare(a, b)
}

const numPrefixes = `KMGTPEZY`

var numRe = regexp.MustCompile(`^([0-9.]+)\s*([k` + numPrefixes + `]i?)?[bB]?$`)

// parseNum is a fuzzy number parser. It supports common patterns,
// such as SI and IEC prefixes ("4Gi", "2.5k").
func parseNum(x string) (float64, error) {
	// Try parsing as a regular float.
	v, err := strconv.ParseFloat(x, 64)
	if err == nil {
		return v, nil
	}

	// Try a suffixed number.
	subs := numRe.FindStringSubmatch(x)
	if subs != nil {
		v, err := strconv.ParseFloat(subs[1], 64)
		if err == nil {
			exp := 0
			if len(subs[2]) > 0 {
				pre := subs[2][0]
				if pre == 'k' {
					pre = 'K'
				}
				exp = 1 + strings.IndexByte(numPrefixes, pre)
			}
			iec := strings.HasSuffix(subs[2], "i")
			if iec {
				return v * math.Pow(1024, float64(exp)), nil
			}
			return v * math.Pow(1000, float64(exp)), nil
		}
	}

	return 0, strconv.ErrSyntax
}
