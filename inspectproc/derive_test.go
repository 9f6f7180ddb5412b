// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/thoth-station/inspectperf/inspectproc/internal/parse"
)

func mustDerive(t *testing.T, f *Frame, exprs ...string) *Frame {
	t.Helper()
	out, err := Derive(f, exprs...)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestDerive(t *testing.T) {
	f := mustFrame(t,
		col("n", 1.0, 2.0, 3.0, 6.0),
		col("m", 2.0, 0.0, nil, 3.0),
		col("started", at(0), at(10), at(20), at(30)),
		col("finished", at(5), at(30), nil, at(90)))

	d := mustDerive(t, f,
		"sum = n + m",
		"ratio = n / m",
		"took = finished - started",
		"half = took / 2",
		"twice = 2 * took",
		"end = started + took",
		"frac = took / half",
		"k = 10",
		"s = 'x'",
		"copy = n",
	)
	for _, test := range []struct {
		name string
		want []any
	}{
		{"sum", []any{3.0, 2.0, nil, 9.0}},
		{"ratio", []any{0.5, nil, nil, 2.0}},
		{"took", []any{secs(5), secs(20), nil, secs(60)}},
		{"half", []any{secs(2.5), secs(10), nil, secs(30)}},
		{"twice", []any{secs(10), secs(40), nil, secs(120)}},
		{"end", []any{at(5), at(30), nil, at(90)}},
		{"frac", []any{2.0, 2.0, nil, 2.0}},
		{"k", []any{10.0, 10.0, 10.0, 10.0}},
		{"s", []any{"x", "x", "x", "x"}},
		{"copy", []any{1.0, 2.0, 3.0, 6.0}},
	} {
		if diff := cmp.Diff(test.want, values(t, d, test.name)); diff != "" {
			t.Errorf("%s: (-want +got)\n%s", test.name, diff)
		}
	}

	// The input is unchanged.
	if len(f.Columns) != 4 {
		t.Errorf("Derive modified its input: %v", f.Names())
	}
}

func TestDeriveReplace(t *testing.T) {
	f := mustFrame(t, col("a", 1.0, 2.0), col("b", 3.0, 4.0))
	d := mustDerive(t, f, "a = a * 10")
	if diff := cmp.Diff([]string{"a", "b"}, d.Names()); diff != "" {
		t.Errorf("names: (-want +got)\n%s", diff)
	}
	if diff := cmp.Diff([]any{10.0, 20.0}, values(t, d, "a")); diff != "" {
		t.Errorf("a: (-want +got)\n%s", diff)
	}
	if diff := cmp.Diff([]any{1.0, 2.0}, values(t, f, "a")); diff != "" {
		t.Errorf("input modified: (-want +got)\n%s", diff)
	}
}

func TestDeriveAggregates(t *testing.T) {
	f := mustFrame(t,
		col("g", "x", "x", "y", "y", "y"),
		col("n", 1.0, 2.0, 3.0, 5.0, nil),
		col("d", secs(10), secs(20), secs(30), secs(40), secs(80)),
		col("s", "a", nil, "b", "c", "d"))

	approx := cmpopts.EquateApprox(0, 1e-9)
	check := func(f *Frame, expr string, want []any) {
		t.Helper()
		d := mustDerive(t, f, "out = "+expr)
		if diff := cmp.Diff(want, values(t, d, "out"), approx); diff != "" {
			t.Errorf("%s: (-want +got)\n%s", expr, diff)
		}
	}

	// Ungrouped: aggregates over the whole column.
	check(f, "n.mean()", []any{2.75, 2.75, 2.75, 2.75, 2.75})
	check(f, "n.sum()", []any{11.0, 11.0, 11.0, 11.0, 11.0})
	check(f, "n.count()", []any{4.0, 4.0, 4.0, 4.0, 4.0})
	check(f, "s.count()", []any{4.0, 4.0, 4.0, 4.0, 4.0})
	check(f, "n.median()", []any{2.5, 2.5, 2.5, 2.5, 2.5})
	check(f, "d.max()", []any{secs(80), secs(80), secs(80), secs(80), secs(80)})
	check(f, "n - n.min()", []any{0.0, 1.0, 2.0, 4.0, nil})

	g, err := Group(f, []string{"^g$"}, nil, GroupOptions{})
	if err != nil {
		t.Fatal(err)
	}
	check(g, "n.mean()", []any{1.5, 1.5, 4.0, 4.0, 4.0})
	check(g, "n.std()", []any{math.Sqrt(0.5), math.Sqrt(0.5), math.Sqrt(2), math.Sqrt(2), math.Sqrt(2)})
	check(g, "d.mean()", []any{secs(15), secs(15), secs(50), secs(50), secs(50)})
	check(g, "d.median()", []any{secs(15), secs(15), secs(40), secs(40), secs(40)})
	check(g, "n.count()", []any{2.0, 2.0, 2.0, 2.0, 2.0})

	// The standard deviation of a single value is undefined.
	one := mustFrame(t, col("n", 1.0, nil))
	check(one, "n.std()", []any{nil, nil})
	check(one, "n.mean() + 1", []any{2.0, 2.0})
	// Aggregates of empty columns.
	none := mustFrame(t, col("n", nil, nil))
	check(none, "n.sum()", []any{0.0, 0.0})
	check(none, "n.mean()", []any{nil, nil})
}

func TestDeriveGroupedDurations(t *testing.T) {
	f := processed(t)
	g, err := Group(f, []string{"platform"}, nil, GroupOptions{})
	if err != nil {
		t.Fatal(err)
	}
	d := mustDerive(t, g, "job_mean = status__job__duration.mean()")
	want := []any{secs(15), secs(15), secs(40), secs(40)}
	if diff := cmp.Diff(want, values(t, d, "job_mean")); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
	if !d.Grouped() {
		t.Errorf("Derive dropped the index")
	}
}

func TestDeriveErrors(t *testing.T) {
	f := mustFrame(t,
		col("n", 1.0, 2.0),
		col("s", "a", "b"),
		col("t", at(0), at(1)),
		col("mixed", 1.0, secs(1)))

	var unknown *UnknownColumnError
	if _, err := Derive(f, "x = nosuch + 1"); !errors.As(err, &unknown) {
		t.Errorf("got %v, want *UnknownColumnError", err)
	}
	var syntax *parse.SyntaxError
	if _, err := Derive(f, "x = n +"); !errors.As(err, &syntax) {
		t.Errorf("got %v, want *parse.SyntaxError", err)
	}
	for _, test := range []struct{ expr, msg string }{
		{"x = n + s", "cannot compute number + string"},
		{"x = t + t", "cannot compute time + time"},
		{"x = s.mean()", "cannot compute mean of s"},
		{"x = mixed.sum()", "mixes numbers and durations"},
	} {
		_, err := Derive(f, test.expr)
		if err == nil || !strings.Contains(err.Error(), test.msg) {
			t.Errorf("%s: got %v, want error containing %q", test.expr, err, test.msg)
		}
		if err != nil && !strings.HasPrefix(err.Error(), test.expr+": ") {
			t.Errorf("%s: error %q does not name the expression", test.expr, err)
		}
	}
}
