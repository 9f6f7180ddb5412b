// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectfmt

import (
	"reflect"
	"testing"
)

func leafNames(leaves []Leaf) []string {
	var out []string
	for _, l := range leaves {
		out = append(out, l.Path.String())
	}
	return out
}

func TestFlatten(t *testing.T) {
	obj := Object{
		{"status", Object{
			{"job", Object{{"started_at", "t0"}, {"finished_at", "t1"}}},
			{"exit_code", 0.0},
		}},
		{"build_log", nil},
		{"specification", Object{
			{"packages", []any{"numpy", Object{{"name", "scipy"}}}},
			{"empty", Object{}},
		}},
	}
	leaves := Flatten(obj)
	want := []string{
		"status__job__started_at",
		"status__job__finished_at",
		"status__exit_code",
		"build_log",
		"specification__packages",
	}
	if got := leafNames(leaves); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	// Sequences are kept whole.
	if _, ok := leaves[4].Value.([]any); !ok {
		t.Errorf("sequence leaf has value %#v", leaves[4].Value)
	}
	// Paths do not share backing storage.
	leaves[0].Path[2] = "mutated"
	if leaves[1].Path[2] != "finished_at" {
		t.Errorf("sibling path was mutated: %v", leaves[1].Path)
	}
}

func TestFlattenEmpty(t *testing.T) {
	if leaves := Flatten(nil); len(leaves) != 0 {
		t.Errorf("Flatten(nil) = %v", leaves)
	}
	if leaves := Flatten(Object{{"a", 1.0}}); len(leaves) != 1 || leaves[0].Path.String() != "a" {
		t.Errorf("Flatten single = %v", leaves)
	}
}

func TestFlattenStable(t *testing.T) {
	// The same structure yields the same paths regardless of values.
	a := Object{{"x", Object{{"y", 1.0}, {"z", "a"}}}}
	b := Object{{"x", Object{{"y", 2.0}, {"z", nil}}}}
	if ga, gb := leafNames(Flatten(a)), leafNames(Flatten(b)); !reflect.DeepEqual(ga, gb) {
		t.Errorf("paths differ: %v vs %v", ga, gb)
	}
}

func TestPathKey(t *testing.T) {
	// A key containing the separator joins to the same name as a
	// nested key but is still a distinct path.
	p1 := Path{"a__b"}
	p2 := Path{"a", "b"}
	if p1.String() != p2.String() {
		t.Fatalf("names %q and %q should collide", p1, p2)
	}
	if p1.Key() == p2.Key() || p1.Equal(p2) {
		t.Errorf("paths %v and %v should be distinct", p1, p2)
	}
	if p2.Top() != "a" || (Path{}).Top() != "" {
		t.Errorf("bad Top")
	}
}

func TestObjectWithout(t *testing.T) {
	doc := &Document{ID: "d", Root: Object{{"a", 1.0}, {"build_log", "huge"}, {"b", 2.0}}}
	if got := doc.Without("missing"); got != doc {
		t.Errorf("Without(missing) should return the same document")
	}
	got := doc.Without("build_log")
	if want := (Object{{"a", 1.0}, {"b", 2.0}}); !reflect.DeepEqual(got.Root, want) {
		t.Errorf("got %v, want %v", got.Root, want)
	}
	if len(doc.Root) != 3 {
		t.Errorf("original document was modified: %v", doc.Root)
	}
}

func TestObjectLookup(t *testing.T) {
	obj := Object{{"a", Object{{"b", Object{{"c", "x"}}}}}}
	if v, ok := obj.Lookup("a", "b", "c"); !ok || v != "x" {
		t.Errorf("Lookup = %v, %v", v, ok)
	}
	if _, ok := obj.Lookup("a", "c"); ok {
		t.Errorf("Lookup of missing key succeeded")
	}
	if _, ok := obj.Lookup("a", "b", "c", "d"); ok {
		t.Errorf("Lookup through a leaf succeeded")
	}
}

func TestNewDocument(t *testing.T) {
	if _, err := NewDocument("ok", Object{{"a", []any{1.0, Object{{"b", true}}}}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := NewDocument("bad", Object{{"a", Object{{"b", 3}}}}); err == nil {
		t.Errorf("int value accepted")
	}
}
