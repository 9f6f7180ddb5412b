// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectplot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/thoth-station/inspectperf/inspectfmt"
	"github.com/thoth-station/inspectperf/inspectproc"
)

func col(name string, vals ...any) *inspectproc.Column {
	return inspectproc.NewColumn(inspectfmt.Path{name}, vals)
}

// durations returns a Frame shaped like the result of DurationFrame.
func durations(t *testing.T) *inspectproc.Frame {
	t.Helper()
	f, err := inspectproc.NewFrame(4,
		col("platform", "x86_64", "x86_64", "ppc64le", "ppc64le"),
		col("ncpus", 32.0, 32.0, 16.0, 16.0),
		col("note", "a", "b", "c", "d"),
		col("job_duration", 10.0, 20.0, 30.0, 50.0),
		col("build_duration", 20*time.Second, 30*time.Second, nil, 40*time.Second),
	)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func grouped(t *testing.T, by ...string) *inspectproc.Frame {
	t.Helper()
	g, err := inspectproc.Group(durations(t), by, nil, inspectproc.GroupOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestParseKind(t *testing.T) {
	for s, want := range map[string]Kind{
		"box":                 Box,
		"histogram":           Histogram,
		"hist":                Histogram,
		"scatter":             Scatter,
		"scatter_with_bounds": ScatterBounds,
		"bounds":              ScatterBounds,
	} {
		got, err := ParseKind(s)
		if err != nil {
			t.Errorf("ParseKind(%q): %v", s, err)
		} else if got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := ParseKind("pie"); err == nil {
		t.Errorf("ParseKind(pie) succeeded")
	}
	if got := Kind(9).String(); got != "Kind(9)" {
		t.Errorf("Kind(9).String() = %q", got)
	}
}

func TestPlot(t *testing.T) {
	f := durations(t)
	for _, test := range []struct {
		kind      Kind
		columns   []string
		title     string
		ylabel    string
		ymin      float64
		ymaxAbove float64
	}{
		{Box, nil, "InspectionRun duration", "duration [s]", 10, 50},
		{Scatter, nil, "InspectionRun duration", "duration [s]", 10, 50},
		{Histogram, nil, "InspectionRun distribution", "count", 0, 1},
		// The band reaches one standard deviation (about 17.08)
		// above the largest value.
		{ScatterBounds, []string{"job_duration"}, "InspectionRun duration", "duration [s]", 10 - 17, 50 + 17},
	} {
		t.Run(test.kind.String(), func(t *testing.T) {
			pl, err := Plot(f, test.kind, test.columns, Config{})
			if err != nil {
				t.Fatal(err)
			}
			if pl.Title.Text != test.title || pl.Y.Label.Text != test.ylabel {
				t.Errorf("got title %q, label %q, want %q, %q", pl.Title.Text, pl.Y.Label.Text, test.title, test.ylabel)
			}
			if pl.Y.Min > test.ymin {
				t.Errorf("Y.Min = %v, want <= %v", pl.Y.Min, test.ymin)
			}
			if pl.Y.Max < test.ymaxAbove {
				t.Errorf("Y.Max = %v, want >= %v", pl.Y.Max, test.ymaxAbove)
			}

			var buf bytes.Buffer
			if _, err := WriteTo(pl, Config{Width: 200, Height: 150, DPI: 72}, &buf, "png"); err != nil {
				t.Fatal(err)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
				t.Errorf("output is not a PNG image")
			}
		})
	}
}

func TestPlotConfig(t *testing.T) {
	cfg := Config{Title: "Job", XLabel: "run", YLabel: "seconds", Bins: 3}
	pl, err := Plot(durations(t), Histogram, []string{"job_duration"}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if pl.Title.Text != "Job" || pl.X.Label.Text != "run" || pl.Y.Label.Text != "seconds" {
		t.Errorf("got labels %q, %q, %q", pl.Title.Text, pl.X.Label.Text, pl.Y.Label.Text)
	}
	if pl.X.Min > 10 || pl.X.Max < 50 {
		t.Errorf("X range [%v, %v] does not cover the values", pl.X.Min, pl.X.Max)
	}
}

func TestPlotErrors(t *testing.T) {
	f := durations(t)
	if _, err := Plot(f, ScatterBounds, nil, Config{}); !errors.Is(err, ErrBoundsColumns) {
		t.Errorf("ScatterBounds with default columns: got %v, want %v", err, ErrBoundsColumns)
	}
	var unknown *inspectproc.UnknownColumnError
	if _, err := Plot(f, Box, []string{"missing"}, Config{}); !errors.As(err, &unknown) {
		t.Errorf("unknown column: got %v", err)
	}
	if _, err := Plot(f, Box, []string{"note"}, Config{}); err == nil || !strings.Contains(err.Error(), "cannot plot string value") {
		t.Errorf("string column: got %v", err)
	}
	if _, err := Plot(f, Kind(9), nil, Config{}); err == nil {
		t.Errorf("bad kind: got no error")
	}

	empty, err := inspectproc.NewFrame(2, col("x_duration", nil, nil), col("y", 1.0, 2.0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Plot(empty, Box, nil, Config{}); err == nil || !strings.Contains(err.Error(), "no values") {
		t.Errorf("null column: got %v", err)
	}
	none, err := inspectproc.NewFrame(2, col("y", 1.0, 2.0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Plot(none, Scatter, nil, Config{}); err == nil || !strings.Contains(err.Error(), "no columns matching") {
		t.Errorf("no default columns: got %v", err)
	}
}

func TestSubplots(t *testing.T) {
	g, err := Subplots(grouped(t, "platform"), Box, nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"x86_64", "ppc64le"}, g.ColLabels); diff != "" {
		t.Errorf("columns: (-want +got)\n%s", diff)
	}
	if len(g.Plots) != 1 || len(g.Plots[0]) != 2 {
		t.Fatalf("got %d rows of plots, want 1x2", len(g.Plots))
	}
	if g.Title != "InspectionRun duration" {
		t.Errorf("title %q", g.Title)
	}
	a, b := g.Plots[0][0], g.Plots[0][1]
	if a.Y.Min != b.Y.Min || a.Y.Max != b.Y.Max {
		t.Errorf("Y axes not shared: [%v, %v] and [%v, %v]", a.Y.Min, a.Y.Max, b.Y.Min, b.Y.Max)
	}
	if a.Y.Min > 10 || a.Y.Max < 50 {
		t.Errorf("shared Y axis [%v, %v] does not cover all values", a.Y.Min, a.Y.Max)
	}
	if a.Y.Label.Text == "" || b.Y.Label.Text != "" {
		t.Errorf("Y labels %q, %q, want only the first", a.Y.Label.Text, b.Y.Label.Text)
	}
}

func TestSubplotsTwoLevels(t *testing.T) {
	g, err := Subplots(grouped(t, "platform", "ncpus"), ScatterBounds, []string{"job_duration"}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"32", "16"}, g.RowLabels); diff != "" {
		t.Errorf("rows: (-want +got)\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x86_64", "ppc64le"}, g.ColLabels); diff != "" {
		t.Errorf("columns: (-want +got)\n%s", diff)
	}
	// No ppc64le inspection ran with 32 CPUs.
	if got := g.Plots[0][1].Title.Text; got != "ppc64le / 32" {
		t.Errorf("empty cell title %q", got)
	}

	path := filepath.Join(t.TempDir(), "grid.svg")
	if err := Save(g, Config{}, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Errorf("%s is not an SVG image", path)
	}
	if err := Save(g, Config{}, filepath.Join(t.TempDir(), "grid.gif")); err == nil {
		t.Errorf("saving a GIF succeeded")
	}
}

func TestSubplotsManyLevels(t *testing.T) {
	g, err := Subplots(grouped(t, "platform", "ncpus", "note"), Scatter, []string{"job_duration"}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"x86_64, 32, a", "x86_64, 32, b", "ppc64le, 16, c", "ppc64le, 16, d"}
	if diff := cmp.Diff(want, g.ColLabels); diff != "" {
		t.Errorf("columns: (-want +got)\n%s", diff)
	}
	if len(g.RowLabels) != 1 {
		t.Errorf("got %d rows, want 1", len(g.RowLabels))
	}

	if _, err := Subplots(durations(t), Box, nil, Config{}); !errors.Is(err, ErrNotGrouped) {
		t.Errorf("ungrouped frame: got %v, want %v", err, ErrNotGrouped)
	}
}

func TestShorten(t *testing.T) {
	for in, want := range map[string]string{
		"x86_64":                       "x86_64",
		"abcdefghijklmnopqrstuvw":      "abcdefghijklmnopqrstuvw",
		"abcdefghijklmnopqrstuvwxyz":   "abcdefghij...qrstuvwxyz",
		"Intel(R) Xeon(R) CPU E5-2690": "Intel(R) X...PU E5-2690",
	} {
		if got := shorten(in); got != want {
			t.Errorf("shorten(%q) = %q, want %q", in, got, want)
		}
	}
}
