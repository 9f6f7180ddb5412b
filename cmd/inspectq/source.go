// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"regexp"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"
	"github.com/thoth-station/inspectperf/inspectfmt"
	"github.com/thoth-station/inspectperf/inspectproc"
	"github.com/thoth-station/inspectperf/storage"
	"github.com/thoth-station/inspectperf/storage/db"
	_ "github.com/thoth-station/inspectperf/storage/db/sqlite3"
	"github.com/thoth-station/inspectperf/storage/gcs"
	"go.uber.org/zap"
)

// SourceFlags select the documents a command reads.
type SourceFlags struct {
	Source string   `help:"Read documents from: files, db, server, or gcs." placeholder:"KIND"`
	Search string   `help:"Only read documents whose labels match QUERY, as in \"job_log__hwinfo__platform:x86_64\" (db and server sources)." placeholder:"QUERY"`
	Strict bool     `help:"Stop at malformed documents instead of skipping them."`
	Paths  []string `arg:"" optional:"" help:"Document files or directories; - is standard input."`
}

// documents reads the documents selected by f.
func (g *Globals) documents(f *SourceFlags) ([]*inspectfmt.Document, error) {
	kind := f.Source
	if kind == "" {
		kind = g.Config.Source
	}
	if len(f.Paths) > 0 && kind != "files" {
		return nil, fmt.Errorf("file arguments given with the %s source", kind)
	}
	if f.Search != "" && kind != "db" && kind != "server" {
		return nil, fmt.Errorf("--search is not supported by the %s source", kind)
	}

	var src storage.Source
	switch kind {
	case "files":
		src = &storage.FileSource{
			Paths:      f.Paths,
			AllowStdin: true,
			IDKey:      g.Config.IDKey,
			Strict:     f.Strict,
			Logger:     g.Log,
		}
	case "db":
		d, err := g.openDB()
		if err != nil {
			return nil, err
		}
		defer d.Close()
		src = d.Search(f.Search)
	case "server":
		if g.Config.Server.URL == "" {
			return nil, fmt.Errorf("no storage server URL; set --server or server.url")
		}
		c := &storage.Client{BaseURL: g.Config.Server.URL}
		src = c.Search(f.Search)
	case "gcs":
		s, err := g.openGCS(g.Ctx)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		src = s
	default:
		return nil, fmt.Errorf("unknown source %q", kind)
	}

	docs, err := storage.Collect(g.Ctx, src)
	if err != nil {
		return nil, err
	}
	g.Log.Debug("read documents", zap.String("source", kind), zap.Int("count", len(docs)))
	return docs, nil
}

func (g *Globals) openDB() (*db.DB, error) {
	d, err := db.OpenSQL(g.Config.DB.Driver, g.Config.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", g.Config.DB.Driver, err)
	}
	return d, nil
}

func (g *Globals) openGCS(ctx context.Context) (*gcs.Store, error) {
	if g.Config.GCS.Bucket == "" {
		return nil, fmt.Errorf("no bucket; set --bucket or gcs.bucket")
	}
	s, err := gcs.Open(ctx, g.Config.GCS.Bucket, g.Config.GCS.Prefix)
	if err != nil {
		return nil, err
	}
	s.Parallelism = g.Config.GCS.Parallelism
	s.IDKey = g.Config.IDKey
	s.Logger = g.Log
	return s, nil
}

// AnalysisFlags configure the preparation of documents into a Frame
// and the selection and grouping of its rows.
type AnalysisFlags struct {
	Exclude []string `help:"Top-level keys to drop before flattening (default from settings)." placeholder:"KEY"`
	Protect string   `help:"Never prune columns matching PATTERN (default from settings)." placeholder:"PATTERN"`
	NoPrune bool     `help:"Keep low-information columns."`

	Where        string   `short:"w" help:"Only keep rows satisfying PREDICATE." placeholder:"PREDICATE"`
	GroupBy      []string `short:"g" sep:"none" help:"Group rows by the columns matching PATTERN (repeatable)." placeholder:"PATTERN"`
	GroupExclude []string `sep:"none" help:"Never group by the columns matching PATTERN (repeatable)." placeholder:"PATTERN"`
}

// frame reads the documents selected by sf and prepares them as
// configured by af: normalization, pruning, and the derived duration
// columns. Rows are not yet selected or grouped.
func (g *Globals) frame(sf *SourceFlags, af *AnalysisFlags) (*inspectproc.Frame, error) {
	docs, err := g.documents(sf)
	if err != nil {
		return nil, err
	}
	opts, err := g.processOptions(af)
	if err != nil {
		return nil, err
	}
	f, report, err := inspectproc.Process(docs, opts)
	if err != nil {
		return nil, err
	}
	if report != nil && len(report.Rejected) > 0 {
		verb := "pruned"
		if af.NoPrune {
			verb = "low-information"
		}
		g.Log.Info(verb+" columns", zap.Strings("columns", report.Rejected))
	}
	// Process has already logged f.Warnings through g.Log.
	return f, nil
}

func (g *Globals) processOptions(af *AnalysisFlags) (inspectproc.ProcessOptions, error) {
	exclude := af.Exclude
	if exclude == nil {
		exclude = g.Config.Exclude
	}
	protect := af.Protect
	if protect == "" {
		protect = g.Config.Protect
	}
	re, err := regexp.Compile(protect)
	if err != nil {
		return inspectproc.ProcessOptions{}, fmt.Errorf("bad protect pattern: %w", err)
	}
	return inspectproc.ProcessOptions{
		Exclude: exclude,
		Prune: inspectproc.PruneOptions{
			Protect: re,
			Drop:    !af.NoPrune,
			Logger:  g.Log,
			Verbose: g.Verbose,
		},
	}, nil
}

// selectRows applies the --where and --group-by flags to f.
func (g *Globals) selectRows(f *inspectproc.Frame, af *AnalysisFlags) (*inspectproc.Frame, error) {
	if af.Where != "" && g.Verbose {
		if resolved, err := inspectproc.Resolve(f, af.Where); err == nil {
			g.Log.Debug("resolved predicate", zap.String("predicate", resolved))
		}
	}
	none := []int{}
	out, err := inspectproc.Query(f, inspectproc.QueryOptions{
		Predicate: af.Where,
		GroupBy:   af.GroupBy,
		Exclude:   af.GroupExclude,
		SortIndex: &none,
		Logger:    g.Log,
	})
	if err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("no rows match %q", af.Where)
	}
	return out, nil
}
