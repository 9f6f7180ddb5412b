// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectfmt

import (
	"fmt"
	"sort"
	"strings"
)

// A StructureRow describes one key of a Document's tree.
type StructureRow struct {
	// Depth is the nesting level of Key, starting at 1 for
	// top-level keys.
	Depth int

	// Parent is the path of the Object containing Key.
	Parent Path

	// Key is the key at this position.
	Key string

	// Value is the value of Key. For nested Objects, this is the
	// list of the nested Object's keys rather than the Object
	// itself.
	Value any
}

// Structure describes the tree of obj as a sequence of rows in
// depth-first document order.
func Structure(obj Object) []StructureRow {
	var rows []StructureRow
	var walk func(parent Path, obj Object)
	walk = func(parent Path, obj Object) {
		for _, f := range obj {
			if sub, ok := f.Value.(Object); ok {
				rows = append(rows, StructureRow{len(parent) + 1, parent, f.Key, sub.Keys()})
				path := append(parent[:len(parent):len(parent)], f.Key)
				walk(path, sub)
				continue
			}
			rows = append(rows, StructureRow{len(parent) + 1, parent, f.Key, f.Value})
		}
	}
	walk(Path{}, obj)
	return rows
}

// An UnknownKeyError is returned by FilterStructure when the requested
// key matches neither a key nor a parent path in the structure.
type UnknownKeyError struct {
	Key     string
	Keys    []string // Available keys
	Parents []string // Available parent paths
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("key %q is not in the document (some keys have no leaves); available keys: %s; available parent paths: %s",
		e.Key, strings.Join(e.Keys, ", "), strings.Join(e.Parents, ", "))
}

// FilterStructure selects the rows of a structure for key.
//
// If key is exactly the name of some key in rows, it returns every
// row with that key. Otherwise, key is treated as a parent path
// (segments joined by Separator, optionally with a leading
// Separator) and FilterStructure returns every row whose parent path
// ends with it.
func FilterStructure(rows []StructureRow, key string) ([]StructureRow, error) {
	keys := make(map[string]bool)
	parents := make(map[string]bool)
	for _, row := range rows {
		keys[row.Key] = true
		parents[row.Parent.String()] = true
	}

	var out []StructureRow
	if keys[key] {
		for _, row := range rows {
			if row.Key == key {
				out = append(out, row)
			}
		}
		return out, nil
	}

	suffix := strings.TrimPrefix(key, Separator)
	for _, row := range rows {
		parent := row.Parent.String()
		if parent == suffix || strings.HasSuffix(parent, Separator+suffix) {
			out = append(out, row)
		}
	}
	if out == nil {
		return nil, &UnknownKeyError{key, sortedKeys(keys), sortedKeys(parents)}
	}
	return out, nil
}

// FilterStructureDepth selects the rows of a structure at the given
// depth.
func FilterStructureDepth(rows []StructureRow, depth int) ([]StructureRow, error) {
	maxDepth := 0
	var out []StructureRow
	for _, row := range rows {
		if row.Depth > maxDepth {
			maxDepth = row.Depth
		}
		if row.Depth == depth {
			out = append(out, row)
		}
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("depth %d exceeds the maximum tree depth %d", depth, maxDepth)
	}
	return out, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
