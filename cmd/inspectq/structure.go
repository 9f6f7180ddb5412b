// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aclements/go-gg/table"
	"github.com/thoth-station/inspectperf/inspectfmt"
	"github.com/thoth-station/inspectperf/inspectproc"
)

// StructureCmd describes the key tree of one document.
type StructureCmd struct {
	SourceFlags `embed:""`

	Document int    `short:"n" help:"Describe the document at INDEX in the input." placeholder:"INDEX"`
	Key      string `short:"k" help:"Only show KEY, or the keys under the parent path KEY." placeholder:"KEY"`
	Depth    int    `short:"d" help:"Only show keys at DEPTH, starting at 1." placeholder:"DEPTH"`
	Width    int    `default:"60" help:"Truncate values to N characters." placeholder:"N"`
}

func (c *StructureCmd) Run(g *Globals) error {
	if c.Key != "" && c.Depth != 0 {
		return fmt.Errorf("--key and --depth are mutually exclusive")
	}
	docs, err := g.documents(&c.SourceFlags)
	if err != nil {
		return err
	}
	if c.Document < 0 || c.Document >= len(docs) {
		return fmt.Errorf("document index %d out of range [0, %d)", c.Document, len(docs))
	}
	doc := docs[c.Document]

	rows := inspectfmt.Structure(doc.Root)
	switch {
	case c.Key != "":
		rows, err = inspectfmt.FilterStructure(rows, c.Key)
	case c.Depth != 0:
		rows, err = inspectfmt.FilterStructureDepth(rows, c.Depth)
	}
	if err != nil {
		return err
	}

	depths := make([]int, len(rows))
	parents := make([]string, len(rows))
	keys := make([]string, len(rows))
	values := make([]string, len(rows))
	for i, r := range rows {
		depths[i] = r.Depth
		parents[i] = r.Parent.String()
		keys[i] = r.Key
		values[i] = truncate(inspectproc.FormatValue(r.Value), c.Width)
	}
	tab := new(table.Builder).
		Add("depth", depths).
		Add("parent", parents).
		Add("key", keys).
		Add("value", values).
		Done()
	fmt.Fprintf(g.Stdout, "document %s\n", doc.ID)
	return table.Fprint(g.Stdout, tab)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", `\n`)
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// ProfileCmd shows the statistics used to prune columns.
type ProfileCmd struct {
	SourceFlags `embed:""`

	Exclude  []string `help:"Top-level keys to drop before flattening (default from settings)." placeholder:"KEY"`
	Protect  string   `help:"Never prune columns matching PATTERN (default from settings)." placeholder:"PATTERN"`
	Skip     []string `help:"Top-level groups not to profile." placeholder:"GROUP"`
	Rejected bool     `short:"r" help:"Only show pruning candidates."`
}

func (c *ProfileCmd) Run(g *Globals) error {
	docs, err := g.documents(&c.SourceFlags)
	if err != nil {
		return err
	}
	exclude := c.Exclude
	if exclude == nil {
		exclude = g.Config.Exclude
	}
	protect := c.Protect
	if protect == "" {
		protect = g.Config.Protect
	}
	re, err := regexp.Compile(protect)
	if err != nil {
		return fmt.Errorf("bad protect pattern: %w", err)
	}

	n := inspectproc.Normalizer{Exclude: exclude, Transforms: inspectproc.DefaultTransforms}
	f, err := n.Normalize(docs)
	if err != nil {
		return err
	}
	report, err := inspectproc.Prune(f, inspectproc.PruneOptions{
		Protect: re,
		Skip:    c.Skip,
		Logger:  g.Log,
		Verbose: g.Verbose,
	})
	if err != nil {
		return err
	}

	var groups, columns, types []string
	var distinct, count []int
	var protected, rejected []bool
	for _, st := range report.Stats {
		if c.Rejected && !st.Rejected {
			continue
		}
		groups = append(groups, st.Group)
		columns = append(columns, st.Column)
		types = append(types, st.Type.String())
		distinct = append(distinct, st.Distinct)
		count = append(count, st.Count)
		protected = append(protected, st.Protected)
		rejected = append(rejected, st.Rejected)
	}
	fmt.Fprintf(g.Stdout, "%d documents, %d columns, %d pruning candidates\n",
		f.Len(), len(f.Columns), len(report.Rejected))
	if len(columns) == 0 {
		return nil
	}
	tab := new(table.Builder).
		Add("group", groups).
		Add("column", columns).
		Add("type", types).
		Add("distinct", distinct).
		Add("count", count).
		Add("protected", protected).
		Add("rejected", rejected).
		Done()
	return table.Fprint(g.Stdout, table.GroupBy(tab, "group"))
}
