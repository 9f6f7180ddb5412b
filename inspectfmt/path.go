// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectfmt

import "strings"

// Separator joins the segments of a Path into a column name.
const Separator = "__"

// A Path identifies a single leaf position in a Document by the
// sequence of raw keys leading to it.
//
// Paths are structured so that a key that itself contains Separator is
// never confused with a nested key. Two Paths are the same leaf if and
// only if their segments are equal; their String forms may collide.
type Path []string

// String returns the segments of p joined by Separator. This is the
// column name used for p in tables.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Key returns a string that is equal for two Paths if and only if the
// Paths have equal segments. It is suitable for use as a map key.
func (p Path) Key() string {
	return strings.Join(p, "\x00")
}

// Equal reports whether p and o have the same segments.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Top returns the top-level key of p, or "" if p is empty.
func (p Path) Top() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// A Leaf is a single non-Object value in a Document and its Path.
type Leaf struct {
	Path  Path
	Value any
}

// Flatten returns the leaves of obj in document order.
//
// Flatten recurses into nested Objects only. Any other value,
// including sequences and nil, is a leaf, so a sequence is kept whole
// as a single value. An empty nested Object contributes no leaves.
func Flatten(obj Object) []Leaf {
	var leaves []Leaf
	var walk func(prefix Path, obj Object)
	walk = func(prefix Path, obj Object) {
		for _, f := range obj {
			// Each leaf gets its own copy of the path, since
			// prefix's backing array is reused by siblings.
			path := make(Path, len(prefix)+1)
			copy(path, prefix)
			path[len(prefix)] = f.Key
			if sub, ok := f.Value.(Object); ok {
				walk(path, sub)
				continue
			}
			leaves = append(leaves, Leaf{path, f.Value})
		}
	}
	walk(nil, obj)
	return leaves
}
