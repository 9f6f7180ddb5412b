// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DurationMarker is the substring that identifies duration columns.
const DurationMarker = "duration"

// IsDurationColumn reports whether name is the name of a duration
// column.
func IsDurationColumn(name string) bool {
	return strings.Contains(name, DurationMarker)
}

// DurationName returns the short name DurationFrame uses for a
// duration column, such as "job_duration" for
// "status__job__duration".
func DurationName(name string) string {
	name = strings.ReplaceAll(name, "status__", "")
	return strings.ReplaceAll(name, "__", "_")
}

// DurationFrame returns a Frame of duration statistics computed from
// the duration columns of f.
//
// The result has the duration columns of f, renamed by DurationName
// and converted to seconds. For each column X whose name ends in
// "duration", it adds
//
//	X_mean        = X.mean()
//	X_upper_bound = X + X.std()
//	X_lower_bound = X - X.std()
//
// If f is grouped, the result has the same index and the statistics
// are computed per group. All numbers are rounded to 4 decimal places.
//
// DurationFrame returns ErrEmptyInput if f has no rows and an error if
// it has no duration columns.
func DurationFrame(f *Frame) (*Frame, error) {
	if f.n == 0 {
		return nil, fmt.Errorf("duration statistics: %w", ErrEmptyInput)
	}
	out := f.shallow()
	out.Columns = out.Columns[:0]
	for _, c := range f.Columns {
		if !IsDurationColumn(c.Name) {
			continue
		}
		vals := make([]any, len(c.Values))
		for i, v := range c.Values {
			s, err := toSeconds(v)
			if err != nil {
				return nil, fmt.Errorf("column %s, row %d: %w", c.Name, i, err)
			}
			vals[i] = s
		}
		out.Columns = append(out.Columns, newDerived(DurationName(c.Name), vals))
	}
	if len(out.Columns) == 0 {
		return nil, fmt.Errorf("no %s columns in %s", DurationMarker, strings.Join(f.Names(), ", "))
	}

	var exprs []string
	for _, c := range out.Columns {
		if !strings.HasSuffix(c.Name, DurationMarker) {
			continue
		}
		x := "`" + c.Name + "`"
		exprs = append(exprs,
			fmt.Sprintf("`%s_mean` = %s.mean()", c.Name, x),
			fmt.Sprintf("`%s_upper_bound` = %s + %s.std()", c.Name, x, x),
			fmt.Sprintf("`%s_lower_bound` = %s - %s.std()", c.Name, x, x),
		)
	}
	out, err := Derive(out, exprs...)
	if err != nil {
		return nil, err
	}
	for i, c := range out.Columns {
		vals := make([]any, len(c.Values))
		for j, v := range c.Values {
			if x, ok := v.(float64); ok {
				v = round(x, 4)
			}
			vals[j] = v
		}
		out.Columns[i] = &Column{Path: c.Path, Name: c.Name, Values: vals}
	}
	return out, nil
}

// toSeconds converts a duration cell to float seconds.
func toSeconds(v any) (any, error) {
	switch v := v.(type) {
	case nil, float64:
		return v, nil
	case time.Duration:
		return v.Seconds(), nil
	case string:
		d, err := ParseDuration(v)
		if err != nil {
			return nil, err
		}
		return d.(time.Duration).Seconds(), nil
	}
	return nil, fmt.Errorf("cannot convert %s to seconds", typeName(v))
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
