// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/thoth-station/inspectperf/inspectplot"
	"github.com/thoth-station/inspectperf/inspectproc"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"
)

// PlotCmd charts duration columns.
type PlotCmd struct {
	SourceFlags   `embed:""`
	AnalysisFlags `embed:""`

	Output   string   `short:"o" required:"" help:"Write the chart to FILE; the extension selects png, jpg, tif, svg, or pdf." placeholder:"FILE"`
	Kind     string   `short:"k" default:"box" help:"Chart kind: box, histogram, scatter, or scatter_with_bounds."`
	Columns  []string `short:"c" sep:"none" help:"Duration columns to chart (default: every column ending in duration)." placeholder:"COLUMN"`
	Subplots bool     `short:"s" help:"Draw one chart per group of a grouped query."`

	Title  string  `help:"Chart title."`
	XLabel string  `name:"xlabel" help:"X axis label."`
	YLabel string  `name:"ylabel" help:"Y axis label."`
	Bins   int     `help:"Number of histogram bins (default from settings, or automatic)."`
	Width  float64 `help:"Width in centimeters (default from settings)." placeholder:"CM"`
	Height float64 `help:"Height in centimeters (default from settings)." placeholder:"CM"`
	DPI    int     `name:"dpi" help:"Resolution of raster images (default from settings)."`
}

func (c *PlotCmd) Run(g *Globals) error {
	kind, err := inspectplot.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	if c.Subplots && len(c.GroupBy) == 0 {
		return fmt.Errorf("--subplots needs --group-by")
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

	cfg := c.config(g)
	var chart inspectplot.Drawer
	if c.Subplots {
		chart, err = inspectplot.Subplots(d, kind, c.Columns, cfg)
	} else {
		chart, err = inspectplot.Plot(d, kind, c.Columns, cfg)
	}
	if err != nil {
		return err
	}
	if err := inspectplot.Save(chart, cfg, c.Output); err != nil {
		return err
	}
	g.Log.Info("wrote chart", zap.String("file", c.Output), zap.Stringer("kind", kind))
	return nil
}

// config merges the chart flags with the plot settings.
func (c *PlotCmd) config(g *Globals) inspectplot.Config {
	pc := g.Config.Plot
	pick := func(flag, setting float64) float64 {
		if flag > 0 {
			return flag
		}
		return setting
	}
	cfg := inspectplot.Config{
		Title:  c.Title,
		XLabel: c.XLabel,
		YLabel: c.YLabel,
		Bins:   int(pick(float64(c.Bins), float64(pc.Bins))),
		Width:  vg.Length(pick(c.Width, pc.Width)) * vg.Centimeter,
		Height: vg.Length(pick(c.Height, pc.Height)) * vg.Centimeter,
		DPI:    int(pick(float64(c.DPI), float64(pc.DPI))),
		Logger: g.Log,
	}
	return cfg
}
