// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProfileColumn(t *testing.T) {
	for _, test := range []struct {
		vals     []any
		typ      ColumnType
		distinct int
		count    int
	}{
		{[]any{nil, nil}, TypeEmpty, 0, 0},
		{[]any{1.0, 1.0, nil}, TypeConst, 1, 2},
		{[]any{1.0, 2.0, 1.0}, TypeNumeric, 2, 3},
		{[]any{"a", "b"}, TypeString, 2, 2},
		{[]any{true, false}, TypeBool, 2, 2},
		{[]any{at(0), at(1)}, TypeTime, 2, 2},
		{[]any{at(0), at(0).In(fixedZone)}, TypeConst, 1, 2},
		{[]any{secs(1), secs(2)}, TypeDuration, 2, 2},
		{[]any{1.0, "1"}, TypeString, 2, 2},
		{[]any{"a", []any{"b"}}, TypeUnsupported, -1, 0},
	} {
		st := ProfileColumn(col("c", test.vals...))
		if st.Type != test.typ || st.Distinct != test.distinct || st.Count != test.count {
			t.Errorf("%v: got %v/%d/%d, want %v/%d/%d", test.vals,
				st.Type, st.Distinct, st.Count, test.typ, test.distinct, test.count)
		}
	}
}

func pruneFrame(t *testing.T) *Frame {
	return mustFrame(t,
		col("id", "a", "b", "c"),
		col("spec__base", "fedora", "fedora", "fedora"),
		col("spec__python_version", "3.6", "3.6", "3.6"),
		col("spec__ncpus", 4.0, 8.0, 4.0),
		col("spec__missing", nil, nil, nil),
		col("log__packages", []any{"x"}, []any{"y"}, []any{"x"}),
		col("log__const", 1.0, 1.0, 1.0),
	)
}

func TestPrune(t *testing.T) {
	f := pruneFrame(t)
	report, err := Prune(f, PruneOptions{})
	if err != nil {
		t.Fatal(err)
	}
	wantRejected := []string{"spec__base", "spec__missing", "log__const"}
	if diff := cmp.Diff(wantRejected, report.Rejected); diff != "" {
		t.Errorf("rejected: (-want +got)\n%s", diff)
	}
	if len(f.Columns) != 7 {
		t.Errorf("Prune without Drop modified the Frame")
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("got warnings %v, want 1", report.Warnings)
	}
	var u *UnsupportedColumnTypeWarning
	if !errors.As(report.Warnings[0], &u) || u.Column != "log__packages" || u.Group != "log" {
		t.Errorf("got warning %v, want unsupported log__packages", report.Warnings[0])
	}
	for _, st := range report.Stats {
		if st.Column == "spec__python_version" && !(st.Protected && !st.Rejected) {
			t.Errorf("python_version: got %+v, want protected", st)
		}
	}

	report, err = Prune(f, PruneOptions{Drop: true})
	if err != nil {
		t.Fatal(err)
	}
	wantNames := []string{"id", "spec__python_version", "spec__ncpus", "log__packages"}
	if diff := cmp.Diff(wantNames, f.Names()); diff != "" {
		t.Errorf("names: (-want +got)\n%s", diff)
	}

	// Pruning again changes nothing.
	report, err = Prune(f, PruneOptions{Drop: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Rejected) != 0 {
		t.Errorf("second Prune rejected %v", report.Rejected)
	}
	if diff := cmp.Diff(wantNames, f.Names()); diff != "" {
		t.Errorf("names after second Prune: (-want +got)\n%s", diff)
	}
}

func TestPruneOptions(t *testing.T) {
	f := pruneFrame(t)
	report, err := Prune(f, PruneOptions{
		Protect: regexp.MustCompile(`base`),
		Skip:    []string{"log"},
		Drop:    true,
	})
	if err != nil {
		t.Fatal(err)
	}
	wantRejected := []string{"spec__python_version", "spec__missing"}
	if diff := cmp.Diff(wantRejected, report.Rejected); diff != "" {
		t.Errorf("rejected: (-want +got)\n%s", diff)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("skipped group was profiled: %v", report.Warnings)
	}
	for _, st := range report.Stats {
		if st.Group == "log" {
			t.Errorf("skipped group was profiled: %+v", st)
		}
	}

	empty := mustFrame(t)
	if _, err := Prune(empty, PruneOptions{}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("got %v, want ErrEmptyInput", err)
	}
}
