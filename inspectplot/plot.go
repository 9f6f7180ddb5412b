// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inspectplot draws charts of inspection durations.
//
// Plot draws the columns of a Frame, typically the result of
// inspectproc.DurationFrame, as one of several kinds of chart. Subplots
// draws one chart per group of a grouped Frame, laid out in a grid.
package inspectplot

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/thoth-station/inspectperf/inspectmath"
	"github.com/thoth-station/inspectperf/inspectproc"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// A Kind is a kind of chart.
type Kind int

const (
	// Box draws a box plot of each column.
	Box Kind = iota
	// Histogram draws overlaid histograms of the columns, sharing a
	// bin count.
	Histogram
	// Scatter draws each column as a line through its values, in
	// row order.
	Scatter
	// ScatterBounds draws a single column as a line bracketed by
	// one standard deviation, with a dashed line at its mean.
	ScatterBounds
)

var kindNames = []string{
	Box:           "box",
	Histogram:     "histogram",
	Scatter:       "scatter",
	ScatterBounds: "scatter_with_bounds",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "hist":
		return Histogram, nil
	case "bounds", "scatter-bounds":
		return ScatterBounds, nil
	}
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown plot kind %q (want one of %s)", s, strings.Join(kindNames, ", "))
}

// Config controls the appearance of a chart. The zero Config is valid:
// empty fields take defaults that depend on the Kind.
type Config struct {
	// Title is the chart title. It defaults to "InspectionRun
	// duration", or "InspectionRun distribution" for histograms.
	Title string

	// XLabel and YLabel label the axes. YLabel defaults to
	// "duration [s]", or "count" for histograms.
	XLabel, YLabel string

	// Bins is the number of histogram bins. If 0, it is chosen by
	// inspectmath.MaxAutoBins over the plotted columns.
	Bins int

	// Width and Height are the size of saved images. They default
	// to DefaultWidth and DefaultHeight.
	Width, Height vg.Length

	// DPI is the resolution of saved raster images. It defaults to
	// DefaultDPI.
	DPI int

	// Logger receives warnings. If nil, warnings are discarded.
	Logger *zap.Logger
}

const (
	DefaultWidth  = 16 * vg.Centimeter
	DefaultHeight = 10 * vg.Centimeter
	DefaultDPI    = 150
)

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c Config) size() (w, h vg.Length) {
	w, h = c.Width, c.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return
}

func (c Config) dpi() int {
	if c.DPI <= 0 {
		return DefaultDPI
	}
	return c.DPI
}

func (c Config) label(pl *plot.Plot, kind Kind) {
	title, ylabel := "InspectionRun duration", "duration [s]"
	if kind == Histogram {
		title, ylabel = "InspectionRun distribution", "count"
	}
	if c.Title != "" {
		title = c.Title
	}
	if c.YLabel != "" {
		ylabel = c.YLabel
	}
	pl.Title.Text = title
	pl.X.Label.Text = c.XLabel
	pl.Y.Label.Text = ylabel
}

// defaultColumns matches the columns plotted when none are given.
var defaultColumns = regexp.MustCompile(inspectproc.DurationMarker + "$")

// ErrBoundsColumns is returned when a ScatterBounds chart is requested
// for other than exactly one column.
var ErrBoundsColumns = errors.New("scatter_with_bounds takes exactly one column")

// Plot draws columns of f as a chart of the given kind. If columns is
// empty, it draws the body columns whose names end in "duration".
//
// Cells must be numbers or durations, which are drawn in seconds. Null
// cells are skipped. If f is grouped, Scatter and ScatterBounds use the
// row level of its index as the X coordinate.
func Plot(f *inspectproc.Frame, kind Kind, columns []string, cfg Config) (*plot.Plot, error) {
	names, err := plotColumns(f, kind, columns)
	if err != nil {
		return nil, err
	}
	rows := make([]int, f.Len())
	for i := range rows {
		rows[i] = i
	}
	ss, err := collect(f, names, rows)
	if err != nil {
		return nil, err
	}
	pl := plot.New()
	cfg.label(pl, kind)
	if err := addSeries(pl, kind, ss, cfg); err != nil {
		return nil, err
	}
	return pl, nil
}

func plotColumns(f *inspectproc.Frame, kind Kind, columns []string) ([]string, error) {
	if kind < 0 || int(kind) >= len(kindNames) {
		return nil, fmt.Errorf("unknown plot kind %v", kind)
	}
	if len(columns) == 0 {
		for _, c := range f.Columns {
			if defaultColumns.MatchString(c.Name) {
				columns = append(columns, c.Name)
			}
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("no columns matching %s to plot", defaultColumns)
		}
	}
	if kind == ScatterBounds && len(columns) != 1 {
		return nil, fmt.Errorf("%w, got %s", ErrBoundsColumns, strings.Join(columns, ", "))
	}
	for _, name := range columns {
		if _, err := f.Column(name); err != nil {
			return nil, err
		}
	}
	return columns, nil
}

// A series is the plottable cells of one column.
type series struct {
	name   string
	xs, ys []float64
}

func (s series) xys() plotter.XYs {
	xys := make(plotter.XYs, len(s.ys))
	for i := range xys {
		xys[i].X, xys[i].Y = s.xs[i], s.ys[i]
	}
	return xys
}

// collect extracts the given rows of the named columns.
func collect(f *inspectproc.Frame, names []string, rows []int) ([]series, error) {
	out := make([]series, 0, len(names))
	for _, name := range names {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		s := series{name: name}
		for _, r := range rows {
			y, ok, err := cellValue(c.Values[r])
			if err != nil {
				return nil, fmt.Errorf("column %s, row %d: %w", name, r, err)
			}
			if !ok {
				continue
			}
			x := float64(r)
			if f.Index != nil {
				x = float64(f.Index.Rows[r])
			}
			s.xs = append(s.xs, x)
			s.ys = append(s.ys, y)
		}
		if len(s.ys) == 0 {
			return nil, fmt.Errorf("column %s has no values to plot", name)
		}
		out = append(out, s)
	}
	return out, nil
}

func cellValue(v any) (float64, bool, error) {
	switch v := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return v, !math.IsNaN(v), nil
	case time.Duration:
		return v.Seconds(), true, nil
	}
	return 0, false, fmt.Errorf("cannot plot %T value", v)
}

func addSeries(pl *plot.Plot, kind Kind, ss []series, cfg Config) error {
	switch kind {
	case Box:
		return addBoxes(pl, ss)
	case Histogram:
		return addHistograms(pl, ss, cfg)
	case Scatter:
		return addLines(pl, ss)
	case ScatterBounds:
		return addBounds(pl, ss[0], cfg)
	}
	return fmt.Errorf("unknown plot kind %v", kind)
}

func addBoxes(pl *plot.Plot, ss []series) error {
	w := vg.Points(20)
	var names []string
	for i, s := range ss {
		b, err := plotter.NewBoxPlot(w, float64(i), plotter.Values(s.ys))
		if err != nil {
			return err
		}
		b.BoxStyle.Color = color.Black
		b.FillColor = withAlpha(plotutil.Color(i), 0x50)
		pl.Add(b)
		names = append(names, s.name)
	}
	pl.NominalX(names...)
	return nil
}

func addHistograms(pl *plot.Plot, ss []series, cfg Config) error {
	bins := cfg.Bins
	if bins <= 0 {
		samples := make([]*inspectmath.Sample, len(ss))
		for i, s := range ss {
			samples[i] = inspectmath.NewSample(s.ys)
		}
		bins = inspectmath.MaxAutoBins(samples...)
	}
	for i, s := range ss {
		h, err := plotter.NewHist(plotter.Values(s.ys), bins)
		if err != nil {
			return err
		}
		h.LineStyle.Color = plotutil.Color(i)
		h.FillColor = withAlpha(plotutil.Color(i), 0x80)
		pl.Add(h)
		pl.Legend.Add(s.name, h)
	}
	return nil
}

func addLines(pl *plot.Plot, ss []series) error {
	for i, s := range ss {
		l, p, err := plotter.NewLinePoints(s.xys())
		if err != nil {
			return err
		}
		l.Color = plotutil.Color(i)
		p.Color = plotutil.Color(i)
		pl.Add(l, p)
		pl.Legend.Add(s.name, l, p)
	}
	return nil
}

var (
	traceColor = color.NRGBA{31, 119, 180, 0xff}
	boundColor = color.NRGBA{68, 68, 68, 0x4c}
	meanColor  = color.NRGBA{0xff, 0, 0, 0xff}
)

// addBounds draws s with a band of one sample standard deviation
// around each point and a dashed line at the mean of s.
func addBounds(pl *plot.Plot, s series, cfg Config) error {
	sample := inspectmath.NewSample(s.ys)
	sd := sample.StdDev()
	if math.IsNaN(sd) {
		cfg.logger().Warn("too few values for bounds", zap.String("column", s.name), zap.Int("n", len(s.ys)))
		sd = 0
	}
	trace := s.xys()
	upper := make(plotter.XYs, len(trace))
	lower := make(plotter.XYs, len(trace))
	for i, p := range trace {
		upper[i] = plotter.XY{X: p.X, Y: p.Y + sd}
		lower[i] = plotter.XY{X: p.X, Y: p.Y - sd}
	}

	// The band runs along the upper bound and back along the lower.
	band := make(plotter.XYs, 0, 2*len(trace))
	band = append(band, upper...)
	for i := len(lower) - 1; i >= 0; i-- {
		band = append(band, lower[i])
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return err
	}
	poly.Color = boundColor
	poly.LineStyle.Width = 0

	line, err := plotter.NewLine(trace)
	if err != nil {
		return err
	}
	line.Color = traceColor

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range trace {
		lo, hi = math.Min(lo, p.X), math.Max(hi, p.X)
	}
	if lo == hi {
		hi++
	}
	mean := sample.Mean()
	meanLine, err := plotter.NewLine(plotter.XYs{{X: lo, Y: mean}, {X: hi, Y: mean}})
	if err != nil {
		return err
	}
	meanLine.Color = meanColor
	meanLine.Dashes = []vg.Length{vg.Points(8), vg.Points(4)}

	pl.Add(poly, line, meanLine)
	return nil
}

func withAlpha(c color.Color, a uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), a}
}
