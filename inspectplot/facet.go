// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectplot

import (
	"errors"
	"math"
	"strings"

	"github.com/thoth-station/inspectperf/inspectproc"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// A Grid is a grid of charts sharing a Y axis, one chart per group of
// a grouped Frame.
type Grid struct {
	// Title is drawn above the grid.
	Title string

	// Plots[i][j] is the chart in row i and column j. Cells with
	// no group hold an empty chart.
	Plots [][]*plot.Plot

	// RowLabels and ColLabels are the facet values of each row and
	// column of the grid.
	RowLabels, ColLabels []string
}

// ErrNotGrouped is returned by Subplots for a Frame without an index.
var ErrNotGrouped = errors.New("subplots need a grouped frame")

// maxFacetLevels is the number of index levels a Grid can lay out:
// one across columns and one down rows.
const maxFacetLevels = 2

// Subplots draws one chart of the given kind per group of f.
//
// The values of the first grouping level of f lay out the columns of
// the grid and the values of the second level, if any, lay out its
// rows. If f has more than two grouping levels, they are combined into
// a single level and the grid has one row.
func Subplots(f *inspectproc.Frame, kind Kind, columns []string, cfg Config) (*Grid, error) {
	if f.Index == nil || len(f.Index.Levels) == 0 {
		return nil, ErrNotGrouped
	}
	names, err := plotColumns(f, kind, columns)
	if err != nil {
		return nil, err
	}

	levels := f.Index.Levels
	if len(levels) > maxFacetLevels {
		cfg.logger().Warn("combining index levels into one facet",
			zap.Int("levels", len(levels)), zap.Int("max", maxFacetLevels))
	}
	facet := func(r int) (row, col string) {
		if len(levels) > maxFacetLevels {
			vals := make([]string, len(levels))
			for i, l := range levels {
				vals[i] = inspectproc.FormatValue(l.Values[r])
			}
			return "", strings.Join(vals, ", ")
		}
		col = inspectproc.FormatValue(levels[0].Values[r])
		if len(levels) > 1 {
			row = inspectproc.FormatValue(levels[1].Values[r])
		}
		return row, col
	}

	// Lay out facets in order of first appearance.
	type cell struct{ row, col int }
	var rowLabels, colLabels []string
	rowPos, colPos := map[string]int{}, map[string]int{}
	cells := map[cell][]int{}
	for r := 0; r < f.Len(); r++ {
		row, col := facet(r)
		i, ok := rowPos[row]
		if !ok {
			i = len(rowLabels)
			rowPos[row] = i
			rowLabels = append(rowLabels, row)
		}
		j, ok := colPos[col]
		if !ok {
			j = len(colLabels)
			colPos[col] = j
			colLabels = append(colLabels, col)
		}
		cells[cell{i, j}] = append(cells[cell{i, j}], r)
	}

	g := &Grid{RowLabels: rowLabels, ColLabels: colLabels}
	title := plot.New()
	cfg.label(title, kind)
	g.Title = title.Title.Text

	ymin, ymax := math.Inf(1), math.Inf(-1)
	g.Plots = make([][]*plot.Plot, len(rowLabels))
	for i := range g.Plots {
		g.Plots[i] = make([]*plot.Plot, len(colLabels))
		for j := range g.Plots[i] {
			pl := plot.New()
			pl.Title.Text = facetLabel(rowLabels[i], colLabels[j])
			if j == 0 {
				pl.Y.Label.Text = title.Y.Label.Text
			}
			if i == len(rowLabels)-1 {
				pl.X.Label.Text = cfg.XLabel
			}
			g.Plots[i][j] = pl

			rows := cells[cell{i, j}]
			if len(rows) == 0 {
				continue
			}
			ss, err := collect(f, names, rows)
			if err != nil {
				return nil, err
			}
			if err := addSeries(pl, kind, ss, cfg); err != nil {
				return nil, err
			}
			ymin, ymax = math.Min(ymin, pl.Y.Min), math.Max(ymax, pl.Y.Max)
		}
	}

	// Share the Y axis.
	if ymin <= ymax {
		for _, row := range g.Plots {
			for _, pl := range row {
				pl.Y.Min, pl.Y.Max = ymin, ymax
			}
		}
	}
	return g, nil
}

// facetLabel returns the title of the chart in a grid cell.
func facetLabel(row, col string) string {
	col = shorten(col)
	if row == "" {
		return col
	}
	return col + " / " + shorten(row)
}

// shorten elides the middle of long labels.
func shorten(s string) string {
	const keep = 10
	r := []rune(s)
	if len(r) <= 2*keep+3 {
		return s
	}
	return string(r[:keep]) + "..." + string(r[len(r)-keep:])
}

// Draw draws g on c, with its title above the charts.
func (g *Grid) Draw(c draw.Canvas) {
	if g.Title != "" {
		sty := plot.New().Title.TextStyle
		sty.XAlign = draw.XCenter
		sty.YAlign = draw.YTop
		pad := vg.Points(4)
		c.FillText(sty, vg.Point{X: c.Center().X, Y: c.Max.Y - pad}, g.Title)
		c.Max.Y -= sty.Height(g.Title) + 2*pad
	}
	if len(g.Plots) == 0 || len(g.Plots[0]) == 0 {
		return
	}
	t := draw.Tiles{
		Rows: len(g.Plots),
		Cols: len(g.Plots[0]),
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	canvases := plot.Align(g.Plots, t, c)
	for i, row := range g.Plots {
		for j, pl := range row {
			pl.Draw(canvases[i][j])
		}
	}
}
