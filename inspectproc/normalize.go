// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/thoth-station/inspectperf/inspectfmt"
)

// ErrEmptyInput is returned when an operation that requires at least
// one row or document is given none.
var ErrEmptyInput = errors.New("empty input")

// A Transform rewrites the cells of every column whose name matches
// Pattern.
type Transform struct {
	Pattern *regexp.Regexp

	// Func is applied to each non-nil cell. It returns the new cell
	// value or an error.
	Func func(any) (any, error)
}

// DefaultExclude lists the top-level keys dropped by default before
// flattening. Build logs can be many megabytes per document.
var DefaultExclude = []string{"build_log"}

// DefaultTransforms parses the timestamp columns of inspection
// results.
var DefaultTransforms = []Transform{
	{regexp.MustCompile(`created|started_at|finished_at`), ParseTime},
}

// A Normalizer converts a collection of inspection documents into a
// Frame.
type Normalizer struct {
	// Exclude lists top-level keys to remove from each document
	// before it is flattened.
	Exclude []string

	// Transforms are applied in order to the flattened columns.
	Transforms []Transform
}

// Normalize flattens each document and returns a Frame with one row per
// document, in order. The columns of the Frame are the union of the
// leaf paths of all documents, in order of first appearance. A
// document that lacks some leaf has a nil cell in that column.
//
// Normalize does not modify docs. It returns ErrEmptyInput if docs is
// empty.
func (n *Normalizer) Normalize(docs []*inspectfmt.Document) (*Frame, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("normalizing documents: %w", ErrEmptyInput)
	}

	colIdx := make(map[string]int)
	var cols []*Column
	for row, doc := range docs {
		root := doc.Root.Without(n.Exclude...)
		for _, leaf := range inspectfmt.Flatten(root) {
			key := leaf.Path.Key()
			ci, ok := colIdx[key]
			if !ok {
				ci = len(cols)
				colIdx[key] = ci
				cols = append(cols, NewColumn(leaf.Path, make([]any, len(docs))))
			}
			cols[ci].Values[row] = leaf.Value
		}
	}

	for _, t := range n.Transforms {
		for _, c := range cols {
			if !t.Pattern.MatchString(c.Name) {
				continue
			}
			for row, v := range c.Values {
				if v == nil {
					continue
				}
				v2, err := t.Func(v)
				if err != nil {
					return nil, fmt.Errorf("column %s, document %s: %w", c.Name, docs[row].ID, err)
				}
				c.Values[row] = v2
			}
		}
	}

	f, err := NewFrame(len(docs), cols...)
	if err != nil {
		return nil, err
	}
	f.aliases = newAliasIndex(f.Columns)
	return f, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime converts a timestamp cell to a time.Time. It accepts RFC
// 3339 strings, ISO 8601 strings without a zone (taken as UTC), and
// numbers of seconds since the Unix epoch.
func ParseTime(v any) (any, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case string:
		return parseTimeString(v)
	case float64:
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	}
	return nil, fmt.Errorf("cannot parse %T as a time", v)
}

func parseTimeString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a time", s)
}

// ParseDuration converts a duration cell to a time.Duration. It
// accepts Go duration strings such as "1m30s" and numbers of seconds.
func ParseDuration(v any) (any, error) {
	switch v := v.(type) {
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		return d, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return nil, fmt.Errorf("cannot parse %T as a duration", v)
}
