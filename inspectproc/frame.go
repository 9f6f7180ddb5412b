// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"fmt"

	"github.com/thoth-station/inspectperf/inspectfmt"
)

// A Column is a single named column of a Frame.
type Column struct {
	// Path is the structured identity of this column. Derived
	// columns have a single-segment Path.
	Path inspectfmt.Path

	// Name is Path joined by inspectfmt.Separator. It is the name
	// used to refer to this column in expressions and output.
	Name string

	// Values holds one cell per row of the Frame. Absent cells are
	// nil.
	Values []any
}

// NewColumn returns a Column for path with the given cells.
func NewColumn(path inspectfmt.Path, values []any) *Column {
	return &Column{Path: path, Name: path.String(), Values: values}
}

// newDerived returns a Column for a derived value with the given name.
func newDerived(name string, values []any) *Column {
	return &Column{Path: inspectfmt.Path{name}, Name: name, Values: values}
}

// A Frame is a table of inspection results: an ordered sequence of
// columns of equal length, one row per input document.
//
// Frame operations do not modify their input Frame unless documented
// otherwise; they return a new Frame that may share unmodified Column
// storage with the input. Hence, callers must not modify the Values
// of a Frame's Columns.
type Frame struct {
	// Columns are the body columns of this Frame, in order.
	Columns []*Column

	// Index is the hierarchical row index of a grouped Frame, or
	// nil if this Frame is not grouped.
	Index *Index

	// Warnings are non-fatal problems encountered while building
	// this Frame, such as columns that could not be profiled or
	// grouped.
	Warnings []error

	n int

	// aliases is the alias index over the columns of this Frame.
	// It is built on first use and reset whenever Columns or Index
	// change.
	aliases *aliasIndex
}

// NewFrame returns a Frame with n rows and the given columns. Each
// column must have exactly n values.
func NewFrame(n int, cols ...*Column) (*Frame, error) {
	for _, c := range cols {
		if len(c.Values) != n {
			return nil, fmt.Errorf("column %s has %d values, want %d", c.Name, len(c.Values), n)
		}
	}
	return &Frame{Columns: cols, n: n}, nil
}

// Len returns the number of rows in f.
func (f *Frame) Len() int {
	return f.n
}

// Names returns the names of the body columns of f in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the body columns of f whose name is name. There may
// be more than one if distinct paths join to the same name.
func (f *Frame) Lookup(name string) []*Column {
	var out []*Column
	for _, c := range f.Columns {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Column returns the column named name, which may be a body column
// or an index level. It returns an *UnknownColumnError if there is no
// such column and an *AmbiguousOperandError if the name refers to
// more than one column.
func (f *Frame) Column(name string) (*Column, error) {
	var out []*Column
	for _, c := range f.allColumns() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	switch len(out) {
	case 0:
		return nil, &UnknownColumnError{name}
	case 1:
		return out[0], nil
	}
	return nil, &AmbiguousOperandError{name, columnNames(out)}
}

// Grouped reports whether f has a hierarchical row index.
func (f *Frame) Grouped() bool {
	return f.Index != nil
}

// Keys returns the GroupKey of each row of a grouped Frame, or nil if
// f is not grouped.
func (f *Frame) Keys() []GroupKey {
	if f.Index == nil {
		return nil
	}
	keys := make([]GroupKey, f.n)
	for i := range keys {
		keys[i] = f.Index.Key(i)
	}
	return keys
}

// allColumns returns the body columns of f followed by its index
// levels.
func (f *Frame) allColumns() []*Column {
	if f.Index == nil {
		return f.Columns
	}
	all := make([]*Column, 0, len(f.Columns)+len(f.Index.Levels))
	all = append(all, f.Columns...)
	return append(all, f.Index.Levels...)
}

// shallow returns a copy of f that shares its Columns but not the
// slices that hold them.
func (f *Frame) shallow() *Frame {
	f2 := &Frame{
		Columns:  append([]*Column(nil), f.Columns...),
		Index:    f.Index,
		Warnings: append([]error(nil), f.Warnings...),
		n:        f.n,
	}
	return f2
}

// setColumn replaces the last column named c.Name with c, or appends
// c if there is no such column. f must not share its Columns slice
// with another Frame.
func (f *Frame) setColumn(c *Column) {
	f.aliases = nil
	for i := len(f.Columns) - 1; i >= 0; i-- {
		if f.Columns[i].Name == c.Name {
			f.Columns[i] = c
			return
		}
	}
	f.Columns = append(f.Columns, c)
}

// takeRows returns a new Frame consisting of the given rows of f, in
// the given order.
func (f *Frame) takeRows(rows []int) *Frame {
	take := func(c *Column) *Column {
		vals := make([]any, len(rows))
		for i, r := range rows {
			vals[i] = c.Values[r]
		}
		return &Column{Path: c.Path, Name: c.Name, Values: vals}
	}
	f2 := &Frame{
		Columns:  make([]*Column, len(f.Columns)),
		Warnings: append([]error(nil), f.Warnings...),
		n:        len(rows),
	}
	for i, c := range f.Columns {
		f2.Columns[i] = take(c)
	}
	if x := f.Index; x != nil {
		x2 := &Index{
			Levels:    make([]*Column, len(x.Levels)),
			Rows:      make([]int, len(rows)),
			positions: x.positions,
		}
		for i, c := range x.Levels {
			x2.Levels[i] = take(c)
		}
		for i, r := range rows {
			x2.Rows[i] = x.Rows[r]
		}
		f2.Index = x2
	}
	return f2
}

// An Index is the hierarchical row index of a grouped Frame.
//
// Its levels are the grouping columns, in grouping order, followed by
// a synthetic final level holding each row's position in the Frame
// before it was grouped. The composite key of every row is therefore
// unique, and the ungrouped Frame can be recovered exactly.
type Index struct {
	// Levels are the grouping columns. They are row-aligned with
	// the body columns of the Frame.
	Levels []*Column

	// Rows is the final index level.
	Rows []int

	// positions[i] is the position Levels[i] had among the Frame's
	// columns before grouping.
	positions []int
}

// Key returns the GroupKey of row i.
func (x *Index) Key(i int) GroupKey {
	vals := make([]any, len(x.Levels))
	for j, c := range x.Levels {
		vals[j] = c.Values[i]
	}
	return GroupKey{vals, x.Rows[i]}
}

// Names returns the names of the index levels, ending with the
// synthetic row level.
func (x *Index) Names() []string {
	names := make([]string, 0, len(x.Levels)+1)
	for _, c := range x.Levels {
		names = append(names, c.Name)
	}
	return append(names, RowLevel)
}

// RowLevel is the name of the synthetic final index level.
const RowLevel = "row"

// An UnknownColumnError is returned when an expression refers to a
// column that does not exist.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Name)
}

func columnNames(cols []*Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
