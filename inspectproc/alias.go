// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"fmt"
	"strings"

	"github.com/thoth-station/inspectperf/inspectfmt"
)

// An aliasIndex answers which columns a name in an expression could
// refer to.
//
// A bare name refers to every column whose full name contains it. A
// backquoted name refers to the columns with exactly that name. The
// index precomputes the bare answer for the names a user is likely to
// type: each full name, each segment of a Path, and each trailing
// chain of segments. For example, the answer for "ncpus",
// "hardware__ncpus" and "hardware" is ready for a frame with
// specification__run__requests__hardware__ncpus.
type aliasIndex struct {
	cols    []*Column
	names   map[string][]int
	aliases map[string][]int
}

func newAliasIndex(cols []*Column) *aliasIndex {
	x := &aliasIndex{
		cols:    cols,
		names:   make(map[string][]int),
		aliases: make(map[string][]int),
	}
	for i, c := range cols {
		x.names[c.Name] = append(x.names[c.Name], i)
	}
	for _, c := range cols {
		x.cache(c.Name)
		for j, seg := range c.Path {
			x.cache(seg)
			if j > 0 {
				x.cache(strings.Join(c.Path[j:], inspectfmt.Separator))
			}
		}
	}
	return x
}

// cache records the columns whose names contain alias.
func (x *aliasIndex) cache(alias string) {
	if _, ok := x.aliases[alias]; ok {
		return
	}
	x.aliases[alias] = x.scan(alias)
}

func (x *aliasIndex) scan(tok string) []int {
	idxs := []int{}
	for i, c := range x.cols {
		if strings.Contains(c.Name, tok) {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// lookup returns the indexes of the columns tok refers to.
func (x *aliasIndex) lookup(tok string, exact bool) []int {
	if exact {
		return x.names[tok]
	}
	if idxs, ok := x.aliases[tok]; ok {
		return idxs
	}
	return x.scan(tok)
}

// aliasIndex returns f's alias index, building it if necessary.
func (f *Frame) aliasIndex() *aliasIndex {
	if f.aliases == nil {
		f.aliases = newAliasIndex(f.allColumns())
	}
	return f.aliases
}

// resolve resolves tok to a single column. One match resolves tok,
// several produce an *AmbiguousOperandError, and none returns nil,
// nil.
func (x *aliasIndex) resolve(tok string, exact bool) (*Column, error) {
	idxs := x.lookup(tok, exact)
	switch len(idxs) {
	case 0:
		return nil, nil
	case 1:
		return x.cols[idxs[0]], nil
	}
	cands := make([]string, len(idxs))
	for i, idx := range idxs {
		cands[i] = x.cols[idx].Name
	}
	return nil, &AmbiguousOperandError{tok, cands}
}

// unique reports whether the bare name of c refers to c alone.
func (x *aliasIndex) unique(c *Column) bool {
	idxs := x.lookup(c.Name, false)
	return len(idxs) == 1 && x.cols[idxs[0]] == c
}

// An AmbiguousOperandError is returned when a name in an expression
// could refer to more than one column.
type AmbiguousOperandError struct {
	Token      string
	Candidates []string
}

func (e *AmbiguousOperandError) Error() string {
	return fmt.Sprintf("operand %q is ambiguous; it matches columns %s", e.Token, strings.Join(e.Candidates, ", "))
}
