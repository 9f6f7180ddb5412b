// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aclements/go-moremath/stats"

	"github.com/thoth-station/inspectperf/inspectproc/internal/parse"
)

// Derive computes new columns from expressions of the form
//
//	name = term [op term]
//
// where op is one of + - * /, and a term is a column name, a numeric
// or string literal, or a column aggregate "col.agg()" with agg one of
// mean, std, min, max, median, sum, or count. For example,
//
//	status__job__duration = status__job__finished_at - status__job__started_at
//	job_duration_upper_bound = job_duration + job_duration.std()
//
// Expressions are applied in order, so later expressions may refer to
// columns created by earlier ones. A column that already exists is
// replaced in place; otherwise the new column is appended.
//
// Arithmetic is defined on numbers, times, and durations: the
// difference of two times is a duration, a time plus or minus a
// duration is a time, durations add to durations, and the quotient of
// two durations is a number. A nil operand or a division by zero
// yields a nil cell.
//
// If f is grouped, aggregates are computed separately for each group
// of rows with equal grouping values. Otherwise they are computed
// over the whole column. The standard deviation is the sample
// standard deviation and is nil for fewer than two values.
//
// Derive returns a new Frame that shares unchanged columns with f.
func Derive(f *Frame, exprs ...string) (*Frame, error) {
	out := f.shallow()
	for _, expr := range exprs {
		a, err := parse.ParseAssign(expr)
		if err != nil {
			return nil, err
		}
		vals, err := out.evalAssign(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", expr, err)
		}
		out.setColumn(newDerived(a.Name, vals))
	}
	return out, nil
}

func (f *Frame) evalAssign(a *parse.Assign) ([]any, error) {
	left, err := f.evalTerm(a.Left)
	if err != nil {
		return nil, err
	}
	if a.Op == 0 {
		return left, nil
	}
	right, err := f.evalTerm(a.Right)
	if err != nil {
		return nil, err
	}
	out := make([]any, f.n)
	for i := range out {
		out[i], err = arith(a.Op, left[i], right[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}

// evalTerm returns the per-row values of term t.
func (f *Frame) evalTerm(t *parse.Term) ([]any, error) {
	var c any
	switch t.Kind {
	case parse.TermIdent:
		col, err := f.Column(t.Name)
		if err != nil {
			return nil, err
		}
		if t.Agg == "" {
			return col.Values, nil
		}
		return f.aggregate(col, t.Agg)
	case parse.TermNumber:
		c = t.Num
	case parse.TermString:
		c = t.Str
	case parse.TermBool:
		c = t.Bool
	case parse.TermNull:
		c = nil
	}
	out := make([]any, f.n)
	for i := range out {
		out[i] = c
	}
	return out, nil
}

// aggregate computes agg over col for each group of f and returns the
// group's result for each row.
func (f *Frame) aggregate(col *Column, agg string) ([]any, error) {
	ids, n := f.groups()
	samples := make([][]float64, n)
	counts := make([]int, n)
	isDur := false
	isNum := false
	for i, v := range col.Values {
		var x float64
		switch v := v.(type) {
		case nil:
			continue
		case float64:
			x, isNum = v, true
		case time.Duration:
			x, isDur = float64(v), true
		default:
			if agg != "count" {
				return nil, fmt.Errorf("cannot compute %s of %s: row %d has %s value", agg, col.Name, i, typeName(v))
			}
		}
		counts[ids[i]]++
		samples[ids[i]] = append(samples[ids[i]], x)
	}
	if isDur && isNum && agg != "count" {
		return nil, fmt.Errorf("cannot compute %s of %s: it mixes numbers and durations", agg, col.Name)
	}

	results := make([]any, n)
	for g, xs := range samples {
		var r any
		if agg == "count" {
			r = float64(counts[g])
		} else if x, ok := aggregateSample(agg, xs); ok {
			r = x
			if isDur {
				r = time.Duration(math.Round(x))
			}
		}
		results[g] = r
	}

	out := make([]any, f.n)
	for i := range out {
		out[i] = results[ids[i]]
	}
	return out, nil
}

// aggregateSample computes agg over xs. It returns false if the result
// is undefined.
func aggregateSample(agg string, xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, agg == "sum"
	}
	s := stats.Sample{Xs: xs}
	switch agg {
	case "mean":
		return s.Mean(), true
	case "std":
		if len(xs) < 2 {
			return 0, false
		}
		return s.StdDev(), true
	case "min":
		lo, _ := s.Bounds()
		return lo, true
	case "max":
		_, hi := s.Bounds()
		return hi, true
	case "median":
		sorted := append([]float64(nil), xs...)
		sort.Float64s(sorted)
		return stats.Sample{Xs: sorted, Sorted: true}.Quantile(0.5), true
	case "sum":
		return s.Sum(), true
	}
	return 0, false
}

// arith applies the arithmetic operator op to a and b.
func arith(op byte, a, b any) (any, error) {
	if a == nil || b == nil {
		return nil, nil
	}
	switch a := a.(type) {
	case float64:
		switch b := b.(type) {
		case float64:
			switch op {
			case '+':
				return a + b, nil
			case '-':
				return a - b, nil
			case '*':
				return a * b, nil
			case '/':
				if b == 0 {
					return nil, nil
				}
				return a / b, nil
			}
		case time.Duration:
			if op == '*' {
				return time.Duration(a * float64(b)), nil
			}
		}
	case time.Time:
		switch b := b.(type) {
		case time.Time:
			if op == '-' {
				return a.Sub(b), nil
			}
		case time.Duration:
			switch op {
			case '+':
				return a.Add(b), nil
			case '-':
				return a.Add(-b), nil
			}
		}
	case time.Duration:
		switch b := b.(type) {
		case time.Duration:
			switch op {
			case '+':
				return a + b, nil
			case '-':
				return a - b, nil
			case '/':
				if b == 0 {
					return nil, nil
				}
				return float64(a) / float64(b), nil
			}
		case float64:
			switch op {
			case '*':
				return time.Duration(float64(a) * b), nil
			case '/':
				if b == 0 {
					return nil, nil
				}
				return time.Duration(float64(a) / b), nil
			}
		}
	}
	return nil, fmt.Errorf("cannot compute %s %c %s", typeName(a), op, typeName(b))
}

// typeName returns the name of the type of a cell value for messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case float64:
		return "number"
	case string:
		return "string"
	case time.Time:
		return "time"
	case time.Duration:
		return "duration"
	case []any:
		return "sequence"
	}
	return "object"
}
