// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inspectfmt provides a reader and writer for inspection
// result documents and the tree operations over them.
//
// An inspection result is a semi-structured JSON document describing a
// single benchmark run: the hardware and software specification it was
// requested with, the hardware it actually ran on, timestamps, logs,
// and exit status. No fixed schema is guaranteed across documents.
//
// This package is designed to be used with the higher-level packages
// inspectproc, inspectmath, and inspectplot.
package inspectfmt

import (
	"fmt"
	"time"
)

// A Document is a single inspection result.
//
// Documents are read-only once constructed. Operations that need a
// modified Document, such as dropping oversized log fields, return a
// copy that shares unmodified sub-trees with the original.
type Document struct {
	// ID uniquely identifies this document within its source.
	ID string

	// Root is the top-level object of this document.
	Root Object

	// fileName and index record where this Document was read from.
	fileName string
	index    int
}

// NewDocument returns a Document with the given ID and root Object.
// It returns an error if root contains a value of a type that cannot
// appear in a Document.
func NewDocument(id string, root Object) (*Document, error) {
	if err := checkValue(root); err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	return &Document{ID: id, Root: root}, nil
}

// Pos returns the file name and document index of a Document that was
// read by a Reader. For Documents that were not read from a file, it
// returns "", 0.
func (d *Document) Pos() (fileName string, index int) {
	return d.fileName, d.index
}

// Without returns a copy of d with the given top-level keys removed.
// If none of keys are present, it returns d itself.
func (d *Document) Without(keys ...string) *Document {
	root := d.Root.Without(keys...)
	if len(root) == len(d.Root) {
		return d
	}
	d2 := *d
	d2.Root = root
	return &d2
}

// An Object is an ordered mapping from keys to values. The order is
// the order in which keys appeared in the input document.
//
// Values are one of nil, bool, float64, string, time.Time,
// time.Duration, []any, or Object.
type Object []Field

// A Field is a single key/value pair of an Object.
type Field struct {
	Key   string
	Value any
}

// Get returns the value of key in o and whether it was present.
func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Lookup returns the value at path in o, descending through nested
// Objects.
func (o Object) Lookup(path ...string) (any, bool) {
	var cur any = o
	for _, key := range path {
		obj, ok := cur.(Object)
		if !ok {
			return nil, false
		}
		if cur, ok = obj.Get(key); !ok {
			return nil, false
		}
	}
	return cur, true
}

// Keys returns the keys of o in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, f := range o {
		keys[i] = f.Key
	}
	return keys
}

// Set sets key to value, replacing an existing value in place or
// appending a new Field.
func (o *Object) Set(key string, value any) {
	for i := range *o {
		if (*o)[i].Key == key {
			(*o)[i].Value = value
			return
		}
	}
	*o = append(*o, Field{key, value})
}

// Without returns a copy of o without the given keys. If none of keys
// are present, it returns o itself.
func (o Object) Without(keys ...string) Object {
	drop := func(k string) bool {
		for _, key := range keys {
			if k == key {
				return true
			}
		}
		return false
	}
	found := false
	for _, f := range o {
		if drop(f.Key) {
			found = true
			break
		}
	}
	if !found {
		return o
	}
	out := make(Object, 0, len(o))
	for _, f := range o {
		if !drop(f.Key) {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a deep copy of o. Scalar values are shared.
func (o Object) Clone() Object {
	out := make(Object, len(o))
	for i, f := range o {
		out[i] = Field{f.Key, cloneValue(f.Value)}
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case Object:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = cloneValue(x)
		}
		return out
	}
	return v
}

// checkValue reports an error if v is not a value type permitted in
// an Object.
func checkValue(v any) error {
	switch v := v.(type) {
	case nil, bool, float64, string, time.Time, time.Duration:
		return nil
	case Object:
		for _, f := range v {
			if err := checkValue(f.Value); err != nil {
				return fmt.Errorf("%s: %w", f.Key, err)
			}
		}
		return nil
	case []any:
		for i, x := range v {
			if err := checkValue(x); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	}
	return fmt.Errorf("unsupported value type %T", v)
}
