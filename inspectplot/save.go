// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectplot

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"
)

// A Drawer draws itself on a canvas, such as a *plot.Plot or a *Grid.
type Drawer interface {
	Draw(draw.Canvas)
}

// newCanvas returns a canvas of the given size for an image format,
// named by its file extension without the dot.
func newCanvas(format string, cfg Config) (vg.CanvasWriterTo, error) {
	w, h := cfg.size()
	switch strings.ToLower(format) {
	case "png":
		return vgimg.PngCanvas{Canvas: newImage(w, h, cfg)}, nil
	case "jpg", "jpeg":
		return vgimg.JpegCanvas{Canvas: newImage(w, h, cfg)}, nil
	case "tif", "tiff":
		return vgimg.TiffCanvas{Canvas: newImage(w, h, cfg)}, nil
	case "svg":
		return vgsvg.New(w, h), nil
	case "pdf":
		return vgpdf.New(w, h), nil
	}
	return nil, fmt.Errorf("unsupported image format %q", format)
}

func newImage(w, h vg.Length, cfg Config) *vgimg.Canvas {
	return vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(cfg.dpi()), vgimg.UseBackgroundColor(color.White))
}

// WriteTo draws d in the given image format to w, at the size given
// by cfg. Format is a file extension such as "png" or "svg".
func WriteTo(d Drawer, cfg Config, w io.Writer, format string) (int64, error) {
	can, err := newCanvas(format, cfg)
	if err != nil {
		return 0, err
	}
	d.Draw(draw.New(can))
	return can.WriteTo(w)
}

// Save draws d to file, at the size given by cfg. The image format is
// chosen by the file's extension.
func Save(d Drawer, cfg Config, file string) (err error) {
	format := strings.TrimPrefix(filepath.Ext(file), ".")
	can, err := newCanvas(format, cfg)
	if err != nil {
		return err
	}
	d.Draw(draw.New(can))

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer func() {
		if e := f.Close(); err == nil {
			err = e
		}
	}()
	_, err = can.WriteTo(f)
	return err
}
