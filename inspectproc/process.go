// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectproc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/thoth-station/inspectperf/inspectfmt"
)

// ProcessOptions configures Process.
type ProcessOptions struct {
	// Exclude lists top-level keys dropped before flattening. If
	// nil, DefaultExclude is used.
	Exclude []string

	// Transforms are applied to the flattened columns. If nil,
	// DefaultTransforms is used.
	Transforms []Transform

	// Prune configures pruning. Its Logger is also used for
	// Process's own warnings.
	Prune PruneOptions
}

// durationPairs are the timestamp pairs Process derives durations
// from, as (duration, finished, started) column names.
var durationPairs = [][3]string{
	{"status__job__duration", "status__job__finished_at", "status__job__started_at"},
	{"status__build__duration", "status__build__finished_at", "status__build__started_at"},
}

// Process runs the standard preparation of inspection results: it
// normalizes docs, prunes low-information columns from each top-level
// group, and derives the job and build duration columns from their
// start and finish timestamps.
//
// If there is at most one document, the normalized Frame is returned
// without pruning or deriving, since statistics over a single sample
// are meaningless. In that case the returned report is nil.
//
// A duration whose timestamp columns are absent is skipped with a
// warning in the Frame's Warnings.
func Process(docs []*inspectfmt.Document, opts ProcessOptions) (*Frame, *PruneReport, error) {
	n := Normalizer{Exclude: opts.Exclude, Transforms: opts.Transforms}
	if n.Exclude == nil {
		n.Exclude = DefaultExclude
	}
	if n.Transforms == nil {
		n.Transforms = DefaultTransforms
	}
	f, err := n.Normalize(docs)
	if err != nil {
		return nil, nil, err
	}
	if f.Len() <= 1 {
		return f, nil, nil
	}

	log := opts.Prune.Logger
	if log == nil {
		log = zap.NewNop()
	}

	report, err := Prune(f, opts.Prune)
	if err != nil {
		return nil, nil, err
	}
	f.Warnings = append(f.Warnings, report.Warnings...)

	for _, pair := range durationPairs {
		if len(f.Lookup(pair[1])) == 0 || len(f.Lookup(pair[2])) == 0 {
			w := fmt.Errorf("cannot derive %s: missing %s or %s", pair[0], pair[1], pair[2])
			f.Warnings = append(f.Warnings, w)
			log.Warn("skipping duration", zap.String("column", pair[0]), zap.Error(w))
			continue
		}
		f, err = Derive(f, fmt.Sprintf("%s = %s - %s", pair[0], pair[1], pair[2]))
		if err != nil {
			return nil, nil, err
		}
	}
	return f, report, nil
}
