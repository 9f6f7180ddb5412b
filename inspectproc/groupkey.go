// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/thoth-station/inspectperf/inspectfmt"
)

// A GroupKey is the composite index key of one row of a grouped Frame:
// the row's values of each grouping column followed by the row's
// position in the Frame before grouping.
//
// GroupKeys are ordered level by level using the natural value order
// (see SortIndex), with Row breaking ties. Since Row is unique within
// a Frame, no two rows of a Frame have equal GroupKeys.
type GroupKey struct {
	Values []any
	Row    int
}

// Compare returns -1, 0, or 1 depending on whether k sorts before,
// the same as, or after o.
func (k GroupKey) Compare(o GroupKey) int {
	for i := 0; i < len(k.Values) && i < len(o.Values); i++ {
		if c := compareValues(k.Values[i], o.Values[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k.Values) < len(o.Values):
		return -1
	case len(k.Values) > len(o.Values):
		return 1
	case k.Row < o.Row:
		return -1
	case k.Row > o.Row:
		return 1
	}
	return 0
}

// Less reports whether k sorts before o.
func (k GroupKey) Less(o GroupKey) bool {
	return k.Compare(o) < 0
}

// Equal reports whether k and o have equal values and the same row.
func (k GroupKey) Equal(o GroupKey) bool {
	return k.Compare(o) == 0
}

// SameGroup reports whether k and o have equal grouping values,
// ignoring Row.
func (k GroupKey) SameGroup(o GroupKey) bool {
	if len(k.Values) != len(o.Values) {
		return false
	}
	for i := range k.Values {
		if !valuesEqual(k.Values[i], o.Values[i]) {
			return false
		}
	}
	return true
}

// String returns k as a parenthesized tuple.
func (k GroupKey) String() string {
	var buf strings.Builder
	buf.WriteByte('(')
	for _, v := range k.Values {
		buf.WriteString(FormatValue(v))
		buf.WriteString(", ")
	}
	fmt.Fprintf(&buf, "%d)", k.Row)
	return buf.String()
}

// FormatValue returns the display form of a cell value.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case float64:
		return fmt.Sprint(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case string:
		return v
	}
	return fmt.Sprint(v)
}

// valuesEqual reports whether a and b are the same cell value.
func valuesEqual(a, b any) bool {
	switch a := a.(type) {
	case time.Time:
		b, ok := b.(time.Time)
		return ok && a.Equal(b)
	case float64:
		b, ok := b.(float64)
		return ok && (a == b || math.IsNaN(a) && math.IsNaN(b))
	case []any, inspectfmt.Object:
		return reflect.DeepEqual(a, b)
	}
	if !isHashable(b) {
		return false
	}
	return a == b
}

// isHashable reports whether v can be used as a grouping value.
func isHashable(v any) bool {
	switch v.(type) {
	case nil, bool, float64, string, time.Time, time.Duration:
		return true
	}
	return false
}

var keySeed = maphash.MakeSeed()

// A groupInterner assigns dense group numbers to tuples of values in
// order of first appearance.
type groupInterner struct {
	keys map[uint64][]int
	reps [][]any
}

func newGroupInterner() *groupInterner {
	return &groupInterner{keys: make(map[uint64][]int)}
}

// intern returns the group number of vals. The caller must not modify
// vals after the call.
func (g *groupInterner) intern(vals []any) int {
	var h maphash.Hash
	h.SetSeed(keySeed)
	var buf [8]byte
	for _, v := range vals {
		switch v := v.(type) {
		case nil:
			h.WriteByte('z')
		case bool:
			h.WriteByte('b')
			if v {
				h.WriteByte(1)
			} else {
				h.WriteByte(0)
			}
		case float64:
			h.WriteByte('f')
			if v == 0 {
				v = 0 // Fold -0 into 0.
			}
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		case time.Time:
			h.WriteByte('t')
			binary.LittleEndian.PutUint64(buf[:], uint64(v.UnixNano()))
			h.Write(buf[:])
		case time.Duration:
			h.WriteByte('d')
			binary.LittleEndian.PutUint64(buf[:], uint64(v))
			h.Write(buf[:])
		case string:
			h.WriteByte('s')
			h.WriteString(v)
			h.WriteByte(0)
		default:
			h.WriteByte('?')
			h.WriteString(fmt.Sprint(v))
			h.WriteByte(0)
		}
	}
	hash := h.Sum64()

	for _, id := range g.keys[hash] {
		rep := g.reps[id]
		eq := len(rep) == len(vals)
		for i := 0; eq && i < len(rep); i++ {
			eq = valuesEqual(rep[i], vals[i])
		}
		if eq {
			return id
		}
	}
	id := len(g.reps)
	g.reps = append(g.reps, vals)
	g.keys[hash] = append(g.keys[hash], id)
	return id
}

// groups assigns each row of f a group number. Rows of a grouped
// Frame are in the same group if their index keys have the same
// grouping values. All rows of an ungrouped Frame are in group 0.
func (f *Frame) groups() (ids []int, n int) {
	ids = make([]int, f.n)
	if f.Index == nil || len(f.Index.Levels) == 0 {
		if f.n == 0 {
			return ids, 0
		}
		return ids, 1
	}
	g := newGroupInterner()
	for i := range ids {
		ids[i] = g.intern(f.Index.Key(i).Values)
	}
	return ids, len(g.reps)
}
