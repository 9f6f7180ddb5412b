// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFilterColumns(t *testing.T) {
	f := mustFrame(t,
		col("platform", "x86_64"),
		col("job__duration", secs(1)),
		col("other", 1.0))

	for _, test := range []struct {
		like, pattern string
		want          []string
	}{
		{"", "", []string{"platform", "job__duration", "other"}},
		{"platform", "", []string{"platform", "job__duration"}},
		{"", "^other$", []string{"other", "job__duration"}},
		{"", "o", []string{"platform", "job__duration", "other"}},
		{"duration", "", []string{"job__duration"}},
		{"nosuch", "", []string{"job__duration"}},
	} {
		got, err := FilterColumns(f, test.like, test.pattern)
		if err != nil {
			t.Errorf("%q/%q: %v", test.like, test.pattern, err)
			continue
		}
		if diff := cmp.Diff(test.want, got.Names()); diff != "" {
			t.Errorf("%q/%q: (-want +got)\n%s", test.like, test.pattern, diff)
		}
	}

	if _, err := FilterColumns(f, "a", "b"); !errors.Is(err, ErrFilterArgs) {
		t.Errorf("got %v, want ErrFilterArgs", err)
	}
	if _, err := FilterColumns(f, "", "("); err == nil {
		t.Errorf("want error for bad pattern")
	}
}

func TestQuery(t *testing.T) {
	f := processed(t)

	g, err := Query(f, QueryOptions{
		Predicate: "ncpus == 32 or platform =~ /ppc/",
		GroupBy:   []string{"platform"},
		Like:      "job",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !g.Grouped() {
		t.Fatal("result is not grouped")
	}
	wantNames := []string{
		"job_log__packages",
		"status__job__started_at",
		"status__job__finished_at",
		"status__job__duration",
	}
	if diff := cmp.Diff(wantNames, g.Names()); diff != "" {
		t.Errorf("names: (-want +got)\n%s", diff)
	}
	// Sorted by platform, rows in original order within groups.
	if diff := cmp.Diff([]int{2, 3, 0, 1}, g.Index.Rows); diff != "" {
		t.Errorf("rows: (-want +got)\n%s", diff)
	}

	// An empty sort list leaves rows in order.
	g, err = Query(f, QueryOptions{GroupBy: []string{"platform"}, SortIndex: &[]int{}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, g.Index.Rows); diff != "" {
		t.Errorf("unsorted rows: (-want +got)\n%s", diff)
	}

	// Explicit levels are honored.
	g, err = Query(f, QueryOptions{GroupBy: []string{"platform", "job__duration"}, SortIndex: &[]int{1}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, g.Index.Rows); diff != "" {
		t.Errorf("rows sorted by duration: (-want +got)\n%s", diff)
	}

	// Selection happens before grouping.
	g, err = Query(f, QueryOptions{Predicate: "ncpus == 16", GroupBy: []string{"ncpus"}})
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 2 || ids(t, g) != "c d" {
		t.Errorf("got rows %s, want c d", ids(t, g))
	}

	// Without stages, Query returns all of f.
	g, err = Query(f, QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f.Columns, g.Columns); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}

	var amb *AmbiguousOperandError
	if _, err := Query(f, QueryOptions{Predicate: "duration > 1"}); !errors.As(err, &amb) {
		t.Errorf("got %v, want *AmbiguousOperandError", err)
	}
}
