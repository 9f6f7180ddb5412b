// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// GroupOptions configures Group.
type GroupOptions struct {
	// Logger receives a warning for each grouping column that is
	// dropped. If nil, nothing is logged.
	Logger *zap.Logger
}

// A NoMatchingColumnError is returned by Group when a grouping pattern
// matches no column.
type NoMatchingColumnError struct {
	Pattern string
}

func (e *NoMatchingColumnError) Error() string {
	return fmt.Sprintf("grouping pattern %q matches no column", e.Pattern)
}

// An EmptyGroupColumnsError is returned by Group when no grouping
// column remains after exclusion and validation.
type EmptyGroupColumnsError struct {
	Patterns []string
	// Rejected lists the matched columns that could not be used
	// as grouping columns.
	Rejected []string
}

func (e *EmptyGroupColumnsError) Error() string {
	if len(e.Rejected) == 0 {
		return fmt.Sprintf("no grouping columns left for %s", strings.Join(e.Patterns, ", "))
	}
	return fmt.Sprintf("no grouping columns left for %s; rejected %s", strings.Join(e.Patterns, ", "), strings.Join(e.Rejected, ", "))
}

// An UngroupableColumnWarning reports a column that was dropped from
// the grouping columns because its cells cannot be grouping values.
type UngroupableColumnWarning struct {
	Column string
	Row    int // First row with an ungroupable value
}

func (w *UngroupableColumnWarning) Error() string {
	return fmt.Sprintf("column %s cannot be grouped on (row %d is a sequence or object); dropping it", w.Column, w.Row)
}

// Group returns a copy of f with a hierarchical row index.
//
// Each pattern in by is a regular expression searched for in the
// column names of f. Columns matched by any exclude pattern are
// dropped, duplicates are removed keeping the first occurrence, and
// columns with sequence or object cells are dropped with an
// *UngroupableColumnWarning in the result's Warnings.
//
// The remaining columns are moved from the body of the Frame into the
// index, followed by the synthetic row level 0, ..., n-1. Rows keep
// their original order; use SortIndex to order them by group.
//
// If f is already grouped, it is ungrouped first.
//
// Group returns a *NoMatchingColumnError if a pattern in by matches no
// column and an *EmptyGroupColumnsError if no column remains.
func Group(f *Frame, by, exclude []string, opts GroupOptions) (*Frame, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if f.Index != nil {
		f = Ungroup(f)
	}

	compile := func(pats []string) ([]*regexp.Regexp, error) {
		res := make([]*regexp.Regexp, len(pats))
		for i, pat := range pats {
			re, err := regexp.Compile(pat)
			if err != nil {
				return nil, fmt.Errorf("bad column pattern %q: %w", pat, err)
			}
			res[i] = re
		}
		return res, nil
	}
	byRes, err := compile(by)
	if err != nil {
		return nil, err
	}
	exRes, err := compile(exclude)
	if err != nil {
		return nil, err
	}
	excluded := func(name string) bool {
		for _, re := range exRes {
			if re.MatchString(name) {
				return true
			}
		}
		return false
	}

	var sel []int
	seen := make(map[int]bool)
	for i, re := range byRes {
		matched := false
		for ci, c := range f.Columns {
			if !re.MatchString(c.Name) {
				continue
			}
			matched = true
			if excluded(c.Name) || seen[ci] {
				continue
			}
			seen[ci] = true
			sel = append(sel, ci)
		}
		if !matched {
			return nil, &NoMatchingColumnError{by[i]}
		}
	}

	var warnings []error
	var rejected []string
	var keep []int
	for _, ci := range sel {
		c := f.Columns[ci]
		if row := firstUnhashable(c.Values); row >= 0 {
			w := &UngroupableColumnWarning{c.Name, row}
			warnings = append(warnings, w)
			rejected = append(rejected, c.Name)
			log.Warn("dropping grouping column", zap.String("column", c.Name), zap.Int("row", row))
			continue
		}
		keep = append(keep, ci)
	}
	if len(keep) == 0 {
		return nil, &EmptyGroupColumnsError{by, rejected}
	}

	x := &Index{Rows: make([]int, f.n)}
	for i := range x.Rows {
		x.Rows[i] = i
	}
	isLevel := make(map[int]bool)
	for _, ci := range keep {
		x.Levels = append(x.Levels, f.Columns[ci])
		x.positions = append(x.positions, ci)
		isLevel[ci] = true
	}
	out := &Frame{
		Index:    x,
		Warnings: append(append([]error(nil), f.Warnings...), warnings...),
		n:        f.n,
	}
	for ci, c := range f.Columns {
		if !isLevel[ci] {
			out.Columns = append(out.Columns, c)
		}
	}
	return out, nil
}

func firstUnhashable(vals []any) int {
	for i, v := range vals {
		if !isHashable(v) {
			return i
		}
	}
	return -1
}

// Ungroup returns a copy of f without its hierarchical index. The
// grouping columns are moved back into the body at their original
// positions and rows are ordered by the row level. For any Frame f
// and grouping, Ungroup(Group(f)) equals f.
//
// If f is not grouped, Ungroup returns an unchanged copy of f.
func Ungroup(f *Frame) *Frame {
	if f.Index == nil {
		return f.shallow()
	}
	x := f.Index

	// Reinsert the levels in order of their original positions.
	levels := make([]int, len(x.Levels))
	for i := range levels {
		levels[i] = i
	}
	sort.Slice(levels, func(i, j int) bool {
		return x.positions[levels[i]] < x.positions[levels[j]]
	})
	cols := append([]*Column(nil), f.Columns...)
	for _, l := range levels {
		pos := x.positions[l]
		if pos > len(cols) {
			pos = len(cols)
		}
		cols = append(cols, nil)
		copy(cols[pos+1:], cols[pos:])
		cols[pos] = x.Levels[l]
	}

	rows := make([]int, f.n)
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return x.Rows[rows[i]] < x.Rows[rows[j]]
	})

	flat := &Frame{Columns: cols, Warnings: f.Warnings, n: f.n}
	return flat.takeRows(rows)
}
