// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import "go.uber.org/zap"

// QueryOptions configures Query. Every stage is optional.
type QueryOptions struct {
	// Predicate selects rows. See Select.
	Predicate string

	// GroupBy and Exclude are the grouping patterns. See Group.
	GroupBy []string
	Exclude []string

	// Like and Regexp select columns. See FilterColumns.
	Like   string
	Regexp string

	// SortIndex lists the index levels to sort a grouped result by.
	// If nil, the result is sorted by every level except the row
	// level. If it points to an empty slice, the result is not
	// sorted.
	SortIndex *[]int

	Logger *zap.Logger
}

// Query runs the query pipeline over f: it selects rows, groups them,
// filters columns, and sorts by the index, in that order.
func Query(f *Frame, opts QueryOptions) (*Frame, error) {
	out, err := Select(f, opts.Predicate)
	if err != nil {
		return nil, err
	}
	if len(opts.GroupBy) > 0 {
		out, err = Group(out, opts.GroupBy, opts.Exclude, GroupOptions{Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
	}
	out, err = FilterColumns(out, opts.Like, opts.Regexp)
	if err != nil {
		return nil, err
	}
	if opts.SortIndex != nil && len(*opts.SortIndex) == 0 {
		return out, nil
	}
	var levels []int
	if opts.SortIndex != nil {
		levels = *opts.SortIndex
	}
	return SortIndex(out, levels...)
}
