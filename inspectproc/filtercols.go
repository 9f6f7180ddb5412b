// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrFilterArgs is returned by FilterColumns when both a substring and
// a pattern are given.
var ErrFilterArgs = errors.New("at most one of like and pattern may be given")

// FilterColumns returns a copy of f with only the body columns whose
// names contain like or match the regular expression pattern. At most
// one of like and pattern may be non-empty; if both are empty,
// FilterColumns returns an unchanged copy of f.
//
// Duration columns are always kept: if none of the selected columns is
// a duration column, every duration column of f is appended to the
// result.
func FilterColumns(f *Frame, like, pattern string) (*Frame, error) {
	if like == "" && pattern == "" {
		return f.shallow(), nil
	}
	if like != "" && pattern != "" {
		return nil, ErrFilterArgs
	}
	match := func(name string) bool { return strings.Contains(name, like) }
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad column pattern %q: %w", pattern, err)
		}
		match = re.MatchString
	}

	out := f.shallow()
	out.Columns = out.Columns[:0]
	haveDuration := false
	for _, c := range f.Columns {
		if match(c.Name) {
			out.Columns = append(out.Columns, c)
			haveDuration = haveDuration || IsDurationColumn(c.Name)
		}
	}
	if !haveDuration {
		for _, c := range f.Columns {
			if IsDurationColumn(c.Name) {
				out.Columns = append(out.Columns, c)
			}
		}
	}
	return out, nil
}
