// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/thoth-station/inspectperf/inspectfmt"
)

var t0 = time.Date(2019, 5, 1, 10, 0, 0, 0, time.UTC)

var fixedZone = time.FixedZone("CEST", 2*60*60)

// at returns t0 plus sec seconds.
func at(sec int) time.Time {
	return t0.Add(time.Duration(sec) * time.Second)
}

func secs(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

// inspection returns an inspection result document as JSON. The build
// starts start seconds after t0 and runs for build seconds, and the
// job runs for job seconds right after it.
func inspection(id, platform string, ncpus, start, build, job int) string {
	ts := func(sec int) string { return at(sec).Format(time.RFC3339) }
	return fmt.Sprintf(`{
	"inspection_id": %q,
	"build_log": "Step 1/7 : FROM fedora:29",
	"specification": {
		"base": "fedora:29",
		"python_version": "3.6",
		"run": {"requests": {"hardware": {"ncpus": %d, "memory": "4Gi"}}}
	},
	"job_log": {"hwinfo": {"platform": %q}, "packages": ["numpy", "tensorflow"]},
	"status": {
		"build": {"started_at": %q, "finished_at": %q},
		"job": {"started_at": %q, "finished_at": %q, "exit_code": 0}
	}
}
`, id, ncpus, platform, ts(start), ts(start+build), ts(start+build), ts(start+build+job))
}

// fixture is a set of inspection results of two platforms.
var fixture = inspection("a", "x86_64", 32, 0, 20, 10) +
	inspection("b", "x86_64", 32, 100, 30, 20) +
	inspection("c", "ppc64le", 16, 200, 40, 30) +
	inspection("d", "ppc64le", 16, 300, 40, 50)

func readDocs(t *testing.T, data string) []*inspectfmt.Document {
	t.Helper()
	r := inspectfmt.NewReader(strings.NewReader(data), "test")
	var docs []*inspectfmt.Document
	for r.Scan() {
		switch rec := r.Record().(type) {
		case *inspectfmt.Document:
			docs = append(docs, rec)
		case *inspectfmt.SyntaxError:
			t.Fatal(rec)
		}
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	return docs
}

// processed returns the fixture after Process with pruning.
func processed(t *testing.T) *Frame {
	t.Helper()
	f, _, err := Process(readDocs(t, fixture), ProcessOptions{Prune: PruneOptions{Drop: true}})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// col returns a Column whose path is name split at "__".
func col(name string, vals ...any) *Column {
	return NewColumn(strings.Split(name, inspectfmt.Separator), vals)
}

func mustFrame(t *testing.T, cols ...*Column) *Frame {
	t.Helper()
	n := 0
	if len(cols) > 0 {
		n = len(cols[0].Values)
	}
	f, err := NewFrame(n, cols...)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// values returns the cells of the named column of f.
func values(t *testing.T, f *Frame, name string) []any {
	t.Helper()
	c, err := f.Column(name)
	if err != nil {
		t.Fatal(err)
	}
	return c.Values
}

// ids returns the inspection IDs of the rows of f.
func ids(t *testing.T, f *Frame) string {
	t.Helper()
	var out []string
	for _, v := range values(t, f, "inspection_id") {
		out = append(out, FormatValue(v))
	}
	return strings.Join(out, " ")
}

func TestNewFrame(t *testing.T) {
	if _, err := NewFrame(2, col("a", 1.0, 2.0), col("b", 1.0)); err == nil {
		t.Errorf("want error for mismatched column length")
	}
	f := mustFrame(t, col("x__a", 1.0, 2.0), col("y__a", 3.0, 4.0), col("x__b", "p", "q"))
	if f.Len() != 2 {
		t.Errorf("Len = %d, want 2", f.Len())
	}
	if diff := cmp.Diff([]string{"x__a", "y__a", "x__b"}, f.Names()); diff != "" {
		t.Errorf("Names: (-want +got)\n%s", diff)
	}
	if got := len(f.Lookup("x__b")); got != 1 {
		t.Errorf("Lookup found %d columns, want 1", got)
	}
	if f.Grouped() || f.Keys() != nil {
		t.Errorf("new Frame is grouped")
	}

	var unknown *UnknownColumnError
	if _, err := f.Column("a"); !errors.As(err, &unknown) {
		t.Errorf("Column(a): got %v, want *UnknownColumnError", err)
	}
}

func TestFrameColumnCollision(t *testing.T) {
	// Distinct paths that join to the same name stay separate
	// columns, and naming them is ambiguous.
	f := mustFrame(t,
		NewColumn(inspectfmt.Path{"a__b"}, []any{1.0}),
		NewColumn(inspectfmt.Path{"a", "b"}, []any{2.0}))
	if got := len(f.Lookup("a__b")); got != 2 {
		t.Fatalf("Lookup found %d columns, want 2", got)
	}
	var amb *AmbiguousOperandError
	if _, err := f.Column("a__b"); !errors.As(err, &amb) {
		t.Fatalf("Column: got %v, want *AmbiguousOperandError", err)
	}
	if diff := cmp.Diff([]string{"a__b", "a__b"}, amb.Candidates); diff != "" {
		t.Errorf("candidates: (-want +got)\n%s", diff)
	}
}

func TestAliasResolve(t *testing.T) {
	f := mustFrame(t,
		col("specification__run__requests__hardware__ncpus", 1.0),
		col("specification__python_version", "3.6"),
		col("status__job__duration", secs(1)),
		col("status__build__duration", secs(2)),
		col("job_log__hwinfo__platform", "x86_64"))
	x := f.aliasIndex()

	for _, test := range []struct {
		tok, want string
		exact     bool
		amb       []string
	}{
		{tok: "ncpus", want: "specification__run__requests__hardware__ncpus"},
		{tok: "hardware__ncpus", want: "specification__run__requests__hardware__ncpus"},
		{tok: "status__job__duration", want: "status__job__duration"},
		{tok: "job__duration", want: "status__job__duration"},
		{tok: "python", want: "specification__python_version"},
		{tok: "hwinfo__plat", want: "job_log__hwinfo__platform"},
		{tok: "duration", amb: []string{"status__job__duration", "status__build__duration"}},
		// "job" is a segment of one column and a substring of
		// another.
		{tok: "job", amb: []string{"status__job__duration", "job_log__hwinfo__platform"}},
		{tok: "memory"},
		{tok: "status__job__duration", exact: true, want: "status__job__duration"},
		{tok: "ncpus", exact: true},
	} {
		c, err := x.resolve(test.tok, test.exact)
		if test.amb != nil {
			var amb *AmbiguousOperandError
			if !errors.As(err, &amb) {
				t.Errorf("%s: got %v, %v, want ambiguous", test.tok, c, err)
			} else if diff := cmp.Diff(test.amb, amb.Candidates); diff != "" {
				t.Errorf("%s: candidates (-want +got)\n%s", test.tok, diff)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", test.tok, err)
			continue
		}
		got := ""
		if c != nil {
			got = c.Name
		}
		if got != test.want {
			t.Errorf("%s: resolved to %q, want %q", test.tok, got, test.want)
		}
	}
}
