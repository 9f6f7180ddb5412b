// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"fmt"
	"strings"
	"time"

	"github.com/thoth-station/inspectperf/inspectproc/internal/parse"
)

// A PredicateEvaluationError is returned when a predicate cannot be
// evaluated, because it is malformed, refers to an unknown column, or
// compares values of incompatible types.
type PredicateEvaluationError struct {
	Predicate string
	Err       error
}

func (e *PredicateEvaluationError) Error() string {
	return fmt.Sprintf("cannot evaluate predicate %q: %v", e.Predicate, e.Err)
}

func (e *PredicateEvaluationError) Unwrap() error {
	return e.Err
}

// Select returns the rows of f for which predicate is true, in order.
// An empty predicate selects every row.
//
// Column names in the predicate may be abbreviated. A bare name
// refers to the column of f (including index levels) whose full name
// contains it, so "ncpus" or "hardware__ncpus" resolve to
// specification__run__requests__hardware__ncpus. If a bare name is
// contained in more than one column name, Select returns an
// *AmbiguousOperandError listing the candidates, even when one of
// them is an exact match. A backquoted name, as in `+"`duration`"+`, only
// matches a column with exactly that name. All other failures are
// reported as a *PredicateEvaluationError.
//
// Comparisons between values of different types are false for "=="
// and true for "!="; ordering them is an error. Strings compared with
// times are parsed as times. A null cell is only equal to null, and
// ordering comparisons with null are false.
//
// See package parse for the predicate grammar.
func Select(f *Frame, predicate string) (*Frame, error) {
	if strings.TrimSpace(predicate) == "" {
		return f.shallow(), nil
	}
	q, bind, err := f.resolvePredicate(predicate, true)
	if err != nil {
		return nil, err
	}
	m, err := evalPred(q, f.n, bind)
	if err != nil {
		return nil, &PredicateEvaluationError{predicate, err}
	}
	var rows []int
	for i := 0; i < f.n; i++ {
		if m.get(i) {
			rows = append(rows, i)
		}
	}
	return f.takeRows(rows), nil
}

// Resolve returns predicate with every column name rewritten to the
// full name of the column it resolves to in f, as Select would.
// Names that do not resolve are left as they are. A full name that
// is also contained in another column name is backquoted, so the
// result resolves the same way again.
func Resolve(f *Frame, predicate string) (string, error) {
	if strings.TrimSpace(predicate) == "" {
		return "", nil
	}
	q, _, err := f.resolvePredicate(predicate, false)
	if err != nil {
		return "", err
	}
	return q.String(), nil
}

// resolvePredicate parses predicate and resolves its column names. If
// strict is set, names that do not resolve are an error.
func (f *Frame) resolvePredicate(predicate string, strict bool) (parse.Pred, map[*parse.Term]*Column, error) {
	q, err := parse.ParsePredicate(predicate)
	if err != nil {
		return nil, nil, &PredicateEvaluationError{predicate, err}
	}
	x := f.aliasIndex()
	bind := make(map[*parse.Term]*Column)
	parse.Terms(q, func(t *parse.Term) {
		if err != nil || t.Kind != parse.TermIdent {
			return
		}
		var col *Column
		col, err = x.resolve(t.Name, t.Exact)
		if err != nil {
			return
		}
		if col == nil {
			if strict {
				err = &PredicateEvaluationError{predicate, &UnknownColumnError{t.Name}}
			}
			return
		}
		t.Name = col.Name
		t.Exact = !x.unique(col)
		bind[t] = col
	})
	if err != nil {
		return nil, nil, err
	}
	return q, bind, nil
}

func evalPred(q parse.Pred, n int, bind map[*parse.Term]*Column) (mask, error) {
	value := func(t *parse.Term, row int) any {
		switch t.Kind {
		case parse.TermIdent:
			return bind[t].Values[row]
		case parse.TermNumber:
			return t.Num
		case parse.TermString:
			return t.Str
		case parse.TermBool:
			return t.Bool
		}
		return nil
	}

	switch q := q.(type) {
	case *parse.PredOp:
		subs := make([]mask, len(q.Exprs))
		for i, e := range q.Exprs {
			m, err := evalPred(e, n, bind)
			if err != nil {
				return nil, err
			}
			subs[i] = m
		}
		m := subs[0]
		switch q.Op {
		case parse.OpNot:
			m.not()
		case parse.OpAnd:
			for _, m2 := range subs[1:] {
				m.and(m2)
			}
		case parse.OpOr:
			for _, m2 := range subs[1:] {
				m.or(m2)
			}
		}
		return m, nil

	case *parse.PredCompare:
		m := newMask(n)
		for i := 0; i < n; i++ {
			ok, err := compareCells(q.Cmp, value(q.Left, i), value(q.Right, i))
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", q, i, err)
			}
			if ok {
				m.set(i)
			}
		}
		return m, nil

	case *parse.PredMatch:
		m := newMask(n)
		for i := 0; i < n; i++ {
			v := value(q.Term, i)
			if v != nil && q.Regexp.MatchString(FormatValue(v)) {
				m.set(i)
			}
		}
		return m, nil

	case *parse.PredTerm:
		m := newMask(n)
		for i := 0; i < n; i++ {
			if truth(value(q.Term, i)) {
				m.set(i)
			}
		}
		return m, nil
	}
	panic(fmt.Sprintf("unknown predicate node type %T", q))
}

// compareCells evaluates a cmp b.
func compareCells(cmp parse.Cmp, a, b any) (bool, error) {
	if a == nil || b == nil {
		both := a == nil && b == nil
		switch cmp {
		case parse.CmpEq:
			return both, nil
		case parse.CmpNe:
			return !both, nil
		}
		return false, nil
	}

	a, b = coerce(a, b)
	b, a = coerce(b, a)

	ra, rb := kindRank(a), kindRank(b)
	_, isBool := a.(bool)
	if ra != rb || isBool || ra == kindRank([]any(nil)) {
		var eq bool
		if ra == rb {
			eq = valuesEqual(a, b)
		}
		switch cmp {
		case parse.CmpEq:
			return eq, nil
		case parse.CmpNe:
			return !eq, nil
		}
		return false, fmt.Errorf("cannot order %s and %s", typeName(a), typeName(b))
	}

	c := compareValues(a, b)
	switch cmp {
	case parse.CmpEq:
		return c == 0, nil
	case parse.CmpNe:
		return c != 0, nil
	case parse.CmpLt:
		return c < 0, nil
	case parse.CmpLe:
		return c <= 0, nil
	case parse.CmpGt:
		return c > 0, nil
	case parse.CmpGe:
		return c >= 0, nil
	}
	panic(fmt.Sprintf("unknown comparison %v", cmp))
}

// coerce converts b to the type of a where a literal is commonly
// written in another form: strings compared with times are parsed as
// times, and numbers compared with durations are taken as seconds.
func coerce(a, b any) (any, any) {
	switch a.(type) {
	case time.Time:
		if s, ok := b.(string); ok {
			if t, err := parseTimeString(s); err == nil {
				return a, t
			}
		}
	case time.Duration:
		if x, ok := b.(float64); ok {
			return a, time.Duration(x * float64(time.Second))
		}
	}
	return a, b
}

// truth reports whether v is true as a bare predicate term.
func truth(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case time.Duration:
		return v != 0
	case []any:
		return len(v) > 0
	}
	return true
}

// A mask is a set of row numbers.
type mask []uint32

func newMask(n int) mask {
	return mask(make([]uint32, (n+31)/32))
}

func (m mask) set(i int) {
	m[i/32] |= 1 << (i % 32)
}

func (m mask) get(i int) bool {
	return m[i/32]&(1<<(i%32)) != 0
}

func (m mask) and(n mask) {
	for i := range m {
		m[i] &= n[i]
	}
}

func (m mask) or(n mask) {
	for i := range m {
		m[i] |= n[i]
	}
}

// not inverts m. Bits beyond the number of rows are inverted too, so
// callers must only test bits of actual rows.
func (m mask) not() {
	for i := range m {
		m[i] = ^m[i]
	}
}
