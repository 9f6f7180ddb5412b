// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Inspectq analyzes the results of benchmark inspections.
//
// Usage:
//
//	inspectq [flags] <command> [command flags] [file...]
//
// An inspection result is a JSON document describing one run of a
// micro-benchmark: the hardware and software it ran on, timestamps,
// logs, and exit status. Inspectq flattens a collection of such
// documents into a table with one row per inspection and one column
// per leaf of the document tree, named by joining the keys on the
// path to the leaf with "__", for example
// specification__run__requests__hardware__cpu.
//
// The commands are:
//
//	structure  describe the key tree of a document
//	profile    show per-column statistics and pruning candidates
//	query      select, group, derive, and print columns
//	durations  summarize job and build durations per group
//	plot       chart durations as box, histogram, or scatter plots
//	save       store documents in a database, server, or bucket
//	serve      run an inspection storage server
//
// Documents are read from the files and directories named on the
// command line (or standard input), from a SQL database, from a
// storage server started by "inspectq serve", or from a Google Cloud
// Storage bucket, as selected by --source. Settings can be given in
// .inspectq.yaml in the current or home directory, or in
// inspectq/config.yaml in the user configuration directory, and
// overridden with INSPECTQ_* environment variables. For example:
//
//	source: db
//	db:
//	  driver: sqlite3
//	  dsn: file:inspections.db
//	exclude: [build_log]
//
// Predicates given to --where refer to columns by any part of their
// name that no other column name contains, or by their exact name in
// backquotes:
//
//	inspectq query --where "platform == 'x86_64' and ncpus >= 16" --group-by base results/
//
// Low-information columns (those with at most one distinct value) are
// removed before querying unless their names match --protect.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/thoth-station/inspectperf/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLI is the inspectq command line.
type CLI struct {
	Config  string `help:"Read settings from FILE instead of the default locations." placeholder:"FILE"`
	Verbose bool   `short:"v" help:"Log debugging output."`

	Driver string `help:"SQL driver of the db source: sqlite3 or mysql." placeholder:"NAME"`
	DSN    string `name:"dsn" help:"Data source name of the db source." placeholder:"DSN"`
	Server string `help:"Base URL of the storage server." placeholder:"URL"`
	Bucket string `help:"Cloud Storage bucket of the gcs source." placeholder:"NAME"`
	Prefix string `help:"Object name prefix within the bucket." placeholder:"PREFIX"`

	Structure StructureCmd `cmd:"" help:"Describe the key tree of a document."`
	Profile   ProfileCmd   `cmd:"" help:"Show per-column statistics and pruning candidates."`
	Query     QueryCmd     `cmd:"" help:"Select, group, derive, and print columns."`
	Durations DurationsCmd `cmd:"" help:"Summarize durations per group."`
	Plot      PlotCmd      `cmd:"" help:"Chart durations."`
	Save      SaveCmd      `cmd:"" help:"Store documents in a database, server, or bucket."`
	Serve     ServeCmd     `cmd:"" help:"Run an inspection storage server."`
}

// Globals is the state shared by all commands.
type Globals struct {
	Ctx     context.Context
	Config  *config.Config
	Log     *zap.Logger
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
}

func main() {
	if err := inspectq(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "inspectq: %v\n", err)
		os.Exit(1)
	}
}

// inspectq runs the command line args, writing output to stdout and
// logs to stderr.
func inspectq(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("inspectq"),
		kong.Description("Analyze the results of benchmark inspections."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	cli.apply(cfg)

	log := newLogger(stderr, cli.Verbose)
	defer log.Sync()

	return kctx.Run(&Globals{
		Ctx:     ctx,
		Config:  cfg,
		Log:     log,
		Verbose: cli.Verbose,
		Stdout:  stdout,
		Stderr:  stderr,
	})
}

// apply overrides cfg with the global flags that were set.
func (c *CLI) apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.DB.Driver, c.Driver)
	set(&cfg.DB.DSN, c.DSN)
	set(&cfg.Server.URL, c.Server)
	set(&cfg.GCS.Bucket, c.Bucket)
	set(&cfg.GCS.Prefix, c.Prefix)
}

// newLogger returns a development logger writing to w if verbose, and
// a production logger otherwise.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	if verbose {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.DebugLevel), zap.AddCaller(), zap.Development())
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.InfoLevel))
}
