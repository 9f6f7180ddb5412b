// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectfmt

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseAll(t *testing.T, data string) []Record {
	t.Helper()
	r := NewReader(strings.NewReader(data), "test")
	var out []Record
	for r.Scan() {
		rec := r.Record()
		if doc, ok := rec.(*Document); ok {
			// Wipe position information for comparisons.
			doc.fileName, doc.index = "", 0
		}
		out = append(out, rec)
	}
	if err := r.Err(); err != nil {
		t.Fatal("parsing failed: ", err)
	}
	return out
}

func TestReader(t *testing.T) {
	type test struct {
		name, input string
		want        []Record
	}
	for _, test := range []test{
		{
			"single",
			`{"inspection_id": "a", "n": 1}`,
			[]Record{
				&Document{ID: "a", Root: Object{{"inspection_id", "a"}, {"n", 1.0}}},
			},
		},
		{
			"ndjson",
			"{\"b\": true}\n{\"a\": null}\n",
			[]Record{
				&Document{ID: "test#0", Root: Object{{"b", true}}},
				&Document{ID: "test#1", Root: Object{{"a", nil}}},
			},
		},
		{
			"array",
			`[{"x": 1}, {"x": 2}]`,
			[]Record{
				&Document{ID: "test#0", Root: Object{{"x", 1.0}}},
				&Document{ID: "test#1", Root: Object{{"x", 2.0}}},
			},
		},
		{
			"keyOrder",
			`{"z": {"b": 1, "a": [1, "x"]}, "y": "s"}`,
			[]Record{
				&Document{ID: "test#0", Root: Object{
					{"z", Object{{"b", 1.0}, {"a", []any{1.0, "x"}}}},
					{"y", "s"},
				}},
			},
		},
		{
			"duplicateKey",
			`{"a": 1, "b": 2, "a": 3}`,
			[]Record{
				&Document{ID: "test#0", Root: Object{{"a", 3.0}, {"b", 2.0}}},
			},
		},
		{
			"notObject",
			`{"a": 1} 42 {"a": 2}`,
			[]Record{
				&Document{ID: "test#0", Root: Object{{"a", 1.0}}},
				&SyntaxError{"test", 1, "expected JSON object, got number"},
				&Document{ID: "test#2", Root: Object{{"a", 2.0}}},
			},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := parseAll(t, test.input)
			if diff := cmp.Diff(test.want, got, cmp.AllowUnexported(Document{})); diff != "" {
				t.Errorf("records differ (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReaderMalformed(t *testing.T) {
	r := NewReader(strings.NewReader(`{"a": 1} {"b": `), "bad")
	n := 0
	for r.Scan() {
		n++
	}
	if n != 1 {
		t.Errorf("read %d records before error, want 1", n)
	}
	err := r.Err()
	if _, ok := err.(*SyntaxError); !ok {
		t.Fatalf("want *SyntaxError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "bad#1: ") {
		t.Errorf("error %q missing position", err)
	}
}

func TestReaderPos(t *testing.T) {
	r := NewReader(strings.NewReader(`{"a":1} {"a":2}`), "file.json")
	var idx []int
	for r.Scan() {
		doc := r.Record().(*Document)
		name, i := doc.Pos()
		if name != "file.json" {
			t.Errorf("Pos file = %q, want file.json", name)
		}
		idx = append(idx, i)
	}
	if !cmp.Equal(idx, []int{0, 1}) {
		t.Errorf("indexes %v, want [0 1]", idx)
	}
}

func TestReaderIDKey(t *testing.T) {
	r := NewReader(strings.NewReader(`{"document_id": "xyz"}`), "f")
	r.IDKey = "document_id"
	if !r.Scan() {
		t.Fatal(r.Err())
	}
	if id := r.Record().(*Document).ID; id != "xyz" {
		t.Errorf("ID = %q, want xyz", id)
	}
}
