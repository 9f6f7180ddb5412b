// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/aclements/go-gg/table"
	"github.com/thoth-station/inspectperf/inspectfmt"
	"github.com/thoth-station/inspectperf/inspectmath"
	"github.com/thoth-station/inspectperf/inspectproc"
	"github.com/thoth-station/inspectperf/internal/ggframe"
)

// QueryCmd prints selected rows and columns.
type QueryCmd struct {
	SourceFlags   `embed:""`
	AnalysisFlags `embed:""`

	Derive []string `short:"d" sep:"none" help:"Add a derived column, as in \"speed = ops / job_duration\" (repeatable)." placeholder:"EXPR"`
	Like   string   `short:"l" help:"Only print columns whose names contain SUBSTRING." placeholder:"SUBSTRING"`
	Regexp string   `short:"r" help:"Only print columns whose names match PATTERN." placeholder:"PATTERN"`
	NoSort bool     `help:"Keep rows in input order instead of sorting by group."`
	Format string   `short:"f" default:"text" enum:"text,ndjson" help:"Output format: text or ndjson."`
}

func (c *QueryCmd) Run(g *Globals) error {
	f, err := g.frame(&c.SourceFlags, &c.AnalysisFlags)
	if err != nil {
		return err
	}
	if f, err = g.selectRows(f, &c.AnalysisFlags); err != nil {
		return err
	}
	// Derive after grouping so aggregates are per group.
	if len(c.Derive) > 0 {
		if f, err = inspectproc.Derive(f, c.Derive...); err != nil {
			return err
		}
	}
	if f, err = inspectproc.FilterColumns(f, c.Like, c.Regexp); err != nil {
		return err
	}
	if !c.NoSort && f.Grouped() {
		if f, err = inspectproc.SortIndex(f); err != nil {
			return err
		}
	}

	if c.Format == "ndjson" {
		return writeRows(g, f)
	}
	gg, err := ggframe.Grouping(f)
	if err != nil {
		return err
	}
	return ggframe.Fprint(g.Stdout, gg)
}

// writeRows writes each row of f as a JSON object of its index levels
// and columns.
func writeRows(g *Globals, f *inspectproc.Frame) error {
	w := inspectfmt.NewWriter(g.Stdout)
	for i := 0; i < f.Len(); i++ {
		var obj inspectfmt.Object
		if f.Index != nil {
			for _, l := range f.Index.Levels {
				obj = append(obj, inspectfmt.Field{Key: l.Name, Value: l.Values[i]})
			}
			obj = append(obj, inspectfmt.Field{Key: inspectproc.RowLevel, Value: float64(f.Index.Rows[i])})
		}
		for _, col := range f.Columns {
			obj = append(obj, inspectfmt.Field{Key: col.Name, Value: col.Values[i]})
		}
		if err := w.Write(&inspectfmt.Document{Root: obj}); err != nil {
			return err
		}
	}
	return nil
}

// DurationsCmd summarizes duration columns per group.
type DurationsCmd struct {
	SourceFlags   `embed:""`
	AnalysisFlags `embed:""`

	Confidence float64 `short:"c" help:"Also show the confidence interval of each mean at LEVEL, as in 0.95." placeholder:"LEVEL"`
	Compare    bool    `help:"Test whether each group's durations differ from the first group's."`
	Alpha      float64 `default:"0.05" help:"Significance level of --compare."`
	Frame      bool    `help:"Print the per-row duration statistics instead of a summary."`
}

func (c *DurationsCmd) Run(g *Globals) error {
	if c.Confidence < 0 || c.Confidence >= 1 {
		return fmt.Errorf("confidence level %v not in [0, 1)", c.Confidence)
	}
	f, err := g.frame(&c.SourceFlags, &c.AnalysisFlags)
	if err != nil {
		return err
	}
	if f, err = g.selectRows(f, &c.AnalysisFlags); err != nil {
		return err
	}
	if f.Grouped() {
		if f, err = inspectproc.SortIndex(f); err != nil {
			return err
		}
	}
	d, err := inspectproc.DurationFrame(f)
	if err != nil {
		return err
	}
	if c.Frame {
		gg, err := ggframe.Grouping(d)
		if err != nil {
			return err
		}
		return ggframe.Fprint(g.Stdout, gg)
	}

	first := true
	for _, col := range d.Columns {
		if !strings.HasSuffix(col.Name, inspectproc.DurationMarker) {
			continue
		}
		if !first {
			fmt.Fprintln(g.Stdout)
		}
		first = false
		fmt.Fprintf(g.Stdout, "%s [s]\n", col.Name)
		if err := c.summarize(g, d, col); err != nil {
			return err
		}
	}
	return nil
}

// summarize prints the statistics of one duration column of d.
func (c *DurationsCmd) summarize(g *Globals, d *inspectproc.Frame, col *inspectproc.Column) error {
	s, err := ggframe.Summary(d, col.Name)
	if err != nil {
		g.Log.Warn(err.Error())
		return nil
	}
	tab := table.Flatten(s)

	labels, samples := groupSamples(d, col)
	bounds := make([]string, len(samples))
	var cis, comparisons []string
	for i, smp := range samples {
		bounds[i] = inspectmath.StdBounds(smp).String()
		if c.Confidence > 0 {
			cis = append(cis, inspectmath.MeanCI(smp, c.Confidence).String())
		}
		if c.Compare {
			cmp := "base"
			if i > 0 {
				cmp = inspectmath.Compare(samples[0], smp, c.Alpha).String()
			}
			comparisons = append(comparisons, cmp)
		}
	}
	if len(labels) != tab.Len() {
		return fmt.Errorf("column %s: %d groups but %d summaries", col.Name, len(labels), tab.Len())
	}

	b := table.NewBuilder(tab).Add("mean ±sd", bounds)
	if cis != nil {
		b.Add(fmt.Sprintf("mean ±%g%% CI", 100*c.Confidence), cis)
	}
	if comparisons != nil {
		b.Add("vs "+labels[0], comparisons)
	}
	return ggframe.Fprint(g.Stdout, b.Done())
}

// groupSamples splits the values of col by the group of their row,
// in order of first appearance. Rows with absent values are skipped,
// as are groups without values.
func groupSamples(f *inspectproc.Frame, col *inspectproc.Column) ([]string, []*inspectmath.Sample) {
	var labels []string
	var values [][]float64
	index := make(map[string]int)
	for i, v := range col.Values {
		x, ok := v.(float64)
		if !ok {
			continue
		}
		label := "all"
		if f.Index != nil {
			parts := make([]string, len(f.Index.Levels))
			for j, l := range f.Index.Levels {
				parts[j] = inspectproc.FormatValue(l.Values[i])
			}
			label = strings.Join(parts, ", ")
		}
		k, ok := index[label]
		if !ok {
			k = len(labels)
			index[label] = k
			labels = append(labels, label)
			values = append(values, nil)
		}
		values[k] = append(values[k], x)
	}
	samples := make([]*inspectmath.Sample, len(values))
	for i, xs := range values {
		samples[i] = inspectmath.NewSample(xs)
	}
	return labels, samples
}
