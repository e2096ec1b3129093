// Command mosaicrender composes a mosaic grid into a PNG.
//
// Usage:
//
//	mosaicrender -in image.png -out grid.png [-cols 3] [-rows 2]
//	             [-mode corner-stretch] [-width 1280] [-height 720]
//	             [-anim noise] [-anim-seconds 2.5] [-labels]
//
// The optional animation flags advance the weight animation for the
// given simulated duration before rendering, producing the organic
// uneven grids the interactive viewer shows.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/mosaiclab/mosaic"
	"github.com/mosaiclab/mosaic/internal/fitimg"
)

type options struct {
	in, out       string
	cols, rows    int
	width, height int
	mode          string
	anim          string
	animSeconds   float64
	labels        bool
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "input image (png/jpeg/gif)")
	flag.StringVar(&opts.out, "out", "grid.png", "output PNG path")
	flag.IntVar(&opts.cols, "cols", 3, "column count")
	flag.IntVar(&opts.rows, "rows", 2, "row count")
	flag.IntVar(&opts.width, "width", 1280, "container width in pixels")
	flag.IntVar(&opts.height, "height", 720, "container height in pixels")
	flag.StringVar(&opts.mode, "mode", "stretch",
		"fit mode: stretch, fit-within, fill-cover, corner-stretch, single-stretch")
	flag.StringVar(&opts.anim, "anim", "off", "weight animation: off, noise, pulse")
	flag.Float64Var(&opts.animSeconds, "anim-seconds", 2.0, "simulated animation duration")
	flag.BoolVar(&opts.labels, "labels", false, "label cells with their indices")
	flag.Parse()

	if opts.in == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "mosaicrender: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	mosaic.SetLogger(slog.Default())

	data, err := os.ReadFile(opts.in)
	if err != nil {
		return err
	}
	src, err := mosaic.DecodeImage(data)
	if err != nil {
		return err
	}

	mode, err := parseMode(opts.mode)
	if err != nil {
		return err
	}

	grid := mosaic.NewGrid(opts.cols, opts.rows, float64(opts.width), float64(opts.height))
	if err := animate(grid, opts); err != nil {
		return err
	}
	snap := grid.Snapshot()

	// Synchronous pipeline: a one-shot render has nothing to debounce.
	pipeline := mosaic.NewPipeline(mosaic.WithDebounce(0))
	art, err := pipeline.Apply(src, mode, snap)
	if err != nil {
		slog.Warn("processing failed, rendering stretch", "error", err)
		mode, art = mosaic.FitStretch, nil
	}

	dc := gg.NewContext(opts.width, opts.height)
	dc.SetRGB(0.07, 0.07, 0.09)
	dc.Clear()

	for r := 0; r < snap.Rows(); r++ {
		for c := 0; c < snap.Columns(); c++ {
			renderCell(dc, snap, src, mode, art, c, r)
		}
	}
	drawGridLines(dc, snap)
	if opts.labels {
		if err := drawLabels(dc, snap); err != nil {
			return err
		}
	}
	return dc.SavePNG(opts.out)
}

func parseMode(name string) (mosaic.FitMode, error) {
	for m := mosaic.FitStretch; m <= mosaic.FitSingleStretch; m++ {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown fit mode %q", name)
}

// animate runs the weight animation for the configured simulated
// duration at a 60Hz step, leaving the grid in the final animated state.
func animate(grid *mosaic.Grid, opts options) error {
	var mode mosaic.AnimationMode
	switch opts.anim {
	case "off":
		return nil
	case "noise":
		mode = mosaic.AnimNoise
	case "pulse":
		mode = mosaic.AnimPulse
	default:
		return fmt.Errorf("unknown animation %q", opts.anim)
	}

	a := mosaic.NewAnimator(grid)
	err := a.Enable(mosaic.AnimationConfig{
		Mode:      mode,
		Axis:      mosaic.AxisXY,
		Frequency: 0.8,
		Amplitude: 0.35,
		HoldTime:  0.6,
	})
	if err != nil {
		return err
	}
	const dt = 1.0 / 60
	for t := 0.0; t < opts.animSeconds; t += dt {
		a.Step(dt)
	}
	return nil
}

func renderCell(dc *gg.Context, snap mosaic.Snapshot, src *mosaic.SourceImage, mode mosaic.FitMode, art *mosaic.Artifact, c, r int) {
	cell := snap.CellRect(c, r)
	dc.Push()
	dc.DrawRectangle(cell.X, cell.Y, cell.W, cell.H)
	dc.Clip()

	switch {
	case art != nil && art.Nine != nil:
		renderNineSlice(dc, cell, art.Nine)
	case art != nil && art.Cells != nil:
		idx := r*snap.Columns() + c
		if idx < len(art.Cells) {
			drawScaled(dc, art.Cells[idx], cell.X, cell.Y, cell.W, cell.H)
		}
	default:
		w, h := src.Size()
		p := mosaic.PlaceInCell(mode, w, h, cell)
		drawScaled(dc, src.RGBA(), cell.X+p.Dst.X, cell.Y+p.Dst.Y, p.Dst.W, p.Dst.H)
	}

	dc.ResetClip()
	dc.Pop()
}

func renderNineSlice(dc *gg.Context, cell mosaic.Rect, ns *mosaic.NineSlice) {
	qw := float64(ns.TopLeft.Bounds().Dx())
	qh := float64(ns.TopLeft.Bounds().Dy())
	sx, sy := 1.0, 1.0
	if 2*qw > cell.W {
		sx = cell.W / (2 * qw)
	}
	if 2*qh > cell.H {
		sy = cell.H / (2 * qh)
	}
	cw, ch := qw*sx, qh*sy
	midW, midH := cell.W-2*cw, cell.H-2*ch

	dc.SetColor(ns.Center)
	dc.DrawRectangle(cell.X+cw, cell.Y+ch, midW, midH)
	dc.Fill()

	if midW > 0 {
		drawScaled(dc, ns.Top, cell.X+cw, cell.Y, midW, ch)
		drawScaled(dc, ns.Bottom, cell.X+cw, cell.Y+cell.H-ch, midW, ch)
	}
	if midH > 0 {
		drawScaled(dc, ns.Left, cell.X, cell.Y+ch, cw, midH)
		drawScaled(dc, ns.Right, cell.X+cell.W-cw, cell.Y+ch, cw, midH)
	}

	drawScaled(dc, ns.TopLeft, cell.X, cell.Y, cw, ch)
	drawScaled(dc, ns.TopRight, cell.X+cell.W-cw, cell.Y, cw, ch)
	drawScaled(dc, ns.BottomLeft, cell.X, cell.Y+cell.H-ch, cw, ch)
	drawScaled(dc, ns.BottomRight, cell.X+cell.W-cw, cell.Y+cell.H-ch, cw, ch)
}

// drawScaled rasterizes src to the target size and draws it at (x, y).
func drawScaled(dc *gg.Context, src *image.RGBA, x, y, w, h float64) {
	if w < 1 || h < 1 {
		return
	}
	scaled := fitimg.Rasterize(src, int(w+0.5), int(h+0.5), true)
	dc.DrawImage(scaled, int(x+0.5), int(y+0.5))
}

func drawGridLines(dc *gg.Context, snap mosaic.Snapshot) {
	dc.SetRGBA(1, 1, 1, 0.35)
	dc.SetLineWidth(2)
	for i, e := range snap.ColumnEdges() {
		if i == 0 || i == snap.Columns() {
			continue
		}
		x := e * snap.Width()
		dc.DrawLine(x, 0, x, snap.Height())
		dc.Stroke()
	}
	for i, e := range snap.RowEdges() {
		if i == 0 || i == snap.Rows() {
			continue
		}
		y := e * snap.Height()
		dc.DrawLine(0, y, snap.Width(), y)
		dc.Stroke()
	}
}

func drawLabels(dc *gg.Context, snap mosaic.Snapshot) error {
	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return err
	}
	face := truetype.NewFace(ttf, &truetype.Options{Size: 18})
	dc.SetFontFace(face)

	for r := 0; r < snap.Rows(); r++ {
		for c := 0; c < snap.Columns(); c++ {
			cell := snap.CellRect(c, r)
			label := fmt.Sprintf("%d,%d", c, r)
			dc.SetRGBA(0, 0, 0, 0.6)
			dc.DrawStringAnchored(label, cell.X+9, cell.Y+9, 0, 1)
			dc.SetRGBA(1, 1, 1, 0.9)
			dc.DrawStringAnchored(label, cell.X+8, cell.Y+8, 0, 1)
		}
	}
	return nil
}
