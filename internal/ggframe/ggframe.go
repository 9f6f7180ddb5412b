// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ggframe converts inspectproc Frames to go-gg tables for
// printing and per-group aggregation.
package ggframe

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
	"github.com/thoth-station/inspectperf/inspectproc"
)

// Table returns the named columns of f as a go-gg table. If names is
// empty, every body column is included. The index levels of a
// grouped Frame come first, followed by the row level.
//
// Columns whose cells are all numbers or durations become []float64
// columns (durations in seconds, absent cells NaN). All other columns
// become []string columns of display values.
func Table(f *inspectproc.Frame, names ...string) (*table.Table, error) {
	return build(f, names, true)
}

func build(f *inspectproc.Frame, names []string, withRow bool) (*table.Table, error) {
	var cols []*inspectproc.Column
	if len(names) == 0 {
		cols = f.Columns
	} else {
		for _, name := range names {
			c, err := f.Column(name)
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
		}
	}

	b := new(table.Builder)
	if f.Index != nil {
		for _, l := range f.Index.Levels {
			b.Add(l.Name, labels(l.Values))
		}
		if withRow {
			b.Add(inspectproc.RowLevel, f.Index.Rows)
		}
	}
	for _, c := range cols {
		if b.Has(c.Name) {
			return nil, fmt.Errorf("duplicate column %s", c.Name)
		}
		if xs, ok := floats(c.Values); ok {
			b.Add(c.Name, xs)
		} else {
			b.Add(c.Name, labels(c.Values))
		}
	}
	return b.Done(), nil
}

// Grouping returns Table(f, names...) grouped by the index levels of
// f, excluding the row level.
func Grouping(f *inspectproc.Frame, names ...string) (table.Grouping, error) {
	t, err := Table(f, names...)
	if err != nil {
		return nil, err
	}
	return table.GroupBy(t, levels(f)...), nil
}

func levels(f *inspectproc.Frame) []string {
	if f.Index == nil {
		return nil
	}
	var names []string
	for _, l := range f.Index.Levels {
		names = append(names, l.Name)
	}
	return names
}

func floats(vals []any) ([]float64, bool) {
	xs := make([]float64, len(vals))
	for i, v := range vals {
		switch v := v.(type) {
		case nil:
			xs[i] = math.NaN()
		case float64:
			xs[i] = v
		case time.Duration:
			xs[i] = v.Seconds()
		default:
			return nil, false
		}
	}
	return xs, true
}

func labels(vals []any) []string {
	ss := make([]string, len(vals))
	for i, v := range vals {
		ss[i] = inspectproc.FormatValue(v)
	}
	return ss
}

// Summary aggregates the numeric column name of f over each group of
// its index levels. The result has one row per group, holding the
// level values followed by the columns "count", "mean <name>",
// "min <name>" and "max <name>". Absent cells are not counted.
func Summary(f *inspectproc.Frame, name string) (table.Grouping, error) {
	t, err := build(f, []string{name}, false)
	if err != nil {
		return nil, err
	}
	if _, ok := t.Column(name).([]float64); !ok {
		return nil, fmt.Errorf("column %s is not numeric", name)
	}
	var g table.Grouping = t
	g = table.Filter(g, func(x float64) bool { return !math.IsNaN(x) }, name)
	if len(g.Tables()) == 0 || table.Flatten(g).Len() == 0 {
		return nil, fmt.Errorf("column %s has no values", name)
	}
	return ggstat.Agg(levels(f)...)(
		ggstat.AggCount("count"),
		ggstat.AggMean(name),
		ggstat.AggMin(name),
		ggstat.AggMax(name),
	).F(g), nil
}

// Fprint writes g to w as an aligned text table, printing floats
// with %.4g.
func Fprint(w io.Writer, g table.Grouping) error {
	flat := table.Flatten(g)
	formats := make([]string, len(g.Columns()))
	for i, col := range g.Columns() {
		formats[i] = "%v"
		if _, ok := flat.Column(col).([]float64); ok {
			formats[i] = "%.4g"
		}
	}
	return table.Fprint(w, g, formats...)
}
