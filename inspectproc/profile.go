// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// ColumnType is the semantic type of a column, as determined by
// profiling its cells.
type ColumnType int

const (
	// TypeEmpty columns have only nil cells.
	TypeEmpty ColumnType = iota
	// TypeConst columns have exactly one distinct non-nil value.
	TypeConst
	TypeBool
	TypeNumeric
	// TypeString columns are categorical. Columns that mix scalar
	// types are also categorical.
	TypeString
	TypeTime
	TypeDuration
	// TypeUnsupported columns contain sequences or objects, whose
	// distinct values cannot be counted reliably.
	TypeUnsupported
)

var columnTypeNames = []string{"empty", "const", "bool", "numeric", "string", "time", "duration", "unsupported"}

func (t ColumnType) String() string {
	if int(t) < len(columnTypeNames) {
		return columnTypeNames[t]
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// A ColumnStat summarizes one column for pruning.
type ColumnStat struct {
	Column string
	// Group is the top-level key the column belongs to.
	Group string

	// Distinct is the number of distinct non-nil values. It is -1
	// for unsupported columns.
	Distinct int
	// Count is the number of non-nil values.
	Count int

	Type ColumnType

	// Protected reports whether the column name matches the
	// protect pattern, which exempts it from pruning.
	Protected bool
	// Rejected reports whether the column is a pruning candidate.
	Rejected bool
}

// ProfileColumn computes the statistics of c.
func ProfileColumn(c *Column) ColumnStat {
	st := ColumnStat{Column: c.Name, Group: c.Path.Top()}
	seen := make(map[any]struct{})
	kinds := 0
	var kind ColumnType
	for _, v := range c.Values {
		var key any
		var k ColumnType
		switch v := v.(type) {
		case nil:
			continue
		case bool:
			key, k = v, TypeBool
		case float64:
			key, k = v, TypeNumeric
		case string:
			key, k = v, TypeString
		case time.Time:
			// Times with different locations can be equal.
			key, k = v.UnixNano(), TypeTime
		case time.Duration:
			key, k = v, TypeDuration
		default:
			st.Type, st.Distinct, st.Count = TypeUnsupported, -1, 0
			return st
		}
		st.Count++
		if kinds == 0 || k != kind {
			kinds++
			kind = k
		}
		seen[distinctKey{k, key}] = struct{}{}
	}
	st.Distinct = len(seen)
	switch {
	case st.Count == 0:
		st.Type = TypeEmpty
	case st.Distinct <= 1:
		st.Type = TypeConst
	case kinds > 1:
		st.Type = TypeString
	default:
		st.Type = kind
	}
	return st
}

// distinctKey distinguishes values of different kinds that share a Go
// representation, such as a time's Unix nanoseconds and a number.
type distinctKey struct {
	kind ColumnType
	val  any
}

// DefaultProtect matches the columns exempt from pruning by default.
// A constant version is meaningful for reproducibility.
var DefaultProtect = regexp.MustCompile(`version`)

// PruneOptions configures Prune.
type PruneOptions struct {
	// Protect matches the names of columns that are never pruned.
	// If nil, DefaultProtect is used.
	Protect *regexp.Regexp

	// Drop causes pruning candidates to be removed from the Frame.
	// Otherwise, the Frame is not modified.
	Drop bool

	// Skip lists top-level groups that are not profiled. Their
	// columns are always kept.
	Skip []string

	// Logger receives warnings and, if Verbose is set, a message for
	// each rejected column. If nil, nothing is logged.
	Logger  *zap.Logger
	Verbose bool
}

// A PruneReport is the result of Prune.
type PruneReport struct {
	// Stats has one entry for each profiled column.
	Stats []ColumnStat

	// Rejected lists the names of the pruning candidates.
	Rejected []string

	// Warnings are non-fatal problems, such as
	// *UnsupportedColumnTypeWarning.
	Warnings []error
}

// An UnsupportedColumnTypeWarning reports a column whose type could
// not be profiled. Such columns are never pruned.
type UnsupportedColumnTypeWarning struct {
	Column string
	Group  string
}

func (w *UnsupportedColumnTypeWarning) Error() string {
	return fmt.Sprintf("column %s of group %s has an unsupported type; keeping it", w.Column, w.Group)
}

// Prune profiles the columns of f and finds low-information columns:
// columns with at most one distinct non-nil value, that are not
// unsupported, and that do not match the protect pattern.
//
// Columns are profiled one top-level group at a time, in order of
// first appearance. If opts.Drop is set, the candidates are removed
// from f in place, preserving the order of the remaining columns.
// Pruning is idempotent.
func Prune(f *Frame, opts PruneOptions) (*PruneReport, error) {
	if f.n == 0 {
		return nil, fmt.Errorf("pruning: %w", ErrEmptyInput)
	}
	protect := opts.Protect
	if protect == nil {
		protect = DefaultProtect
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	skip := make(map[string]bool)
	for _, s := range opts.Skip {
		skip[s] = true
	}

	// Partition columns into top-level groups.
	var groups []string
	members := make(map[string][]int)
	for i, c := range f.Columns {
		g := c.Path.Top()
		if _, ok := members[g]; !ok {
			groups = append(groups, g)
		}
		members[g] = append(members[g], i)
	}

	report := new(PruneReport)
	drop := make([]bool, len(f.Columns))
	for _, g := range groups {
		if skip[g] {
			continue
		}
		for _, i := range members[g] {
			c := f.Columns[i]
			st := ProfileColumn(c)
			st.Protected = protect.MatchString(c.Name)
			if st.Type == TypeUnsupported {
				w := &UnsupportedColumnTypeWarning{c.Name, g}
				report.Warnings = append(report.Warnings, w)
				log.Warn("unsupported column type", zap.String("column", c.Name), zap.String("group", g))
			} else if st.Distinct <= 1 && !st.Protected {
				st.Rejected = true
				drop[i] = true
				report.Rejected = append(report.Rejected, c.Name)
				if opts.Verbose {
					log.Info("rejecting column",
						zap.String("column", c.Name),
						zap.String("type", st.Type.String()),
						zap.Int("distinct", st.Distinct))
				}
			}
			report.Stats = append(report.Stats, st)
		}
	}

	if opts.Drop && len(report.Rejected) > 0 {
		keep := f.Columns[:0:0]
		for i, c := range f.Columns {
			if !drop[i] {
				keep = append(keep, c)
			}
		}
		f.Columns = keep
		f.aliases = nil
	}
	return report, nil
}
