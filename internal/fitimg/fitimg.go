// Package fitimg implements the per-pixel work behind the heavy fit
// modes: nine-slice decomposition of a source image and whole-container
// rasterization with per-cell cropping. It is pure computation over
// image.RGBA buffers; no presentation concerns live here.
package fitimg

import (
	"errors"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Errors returned by the extraction functions. The caller (the pipeline)
// recovers from these by falling back to a geometric fit mode.
var (
	// ErrDegenerateSource is returned when the source is too small to
	// decompose (either dimension under 2 pixels).
	ErrDegenerateSource = errors.New("fitimg: source too small to slice")

	// ErrDegenerateTarget is returned when the target container has a
	// zero or negative pixel area.
	ErrDegenerateTarget = errors.New("fitimg: zero-area target")
)

// NineSlice is the corner-stretch decomposition of a source image: four
// corner quadrants, four one-pixel edge strips and a center color. It is
// derived from the source alone, so one NineSlice serves every cell of
// the grid regardless of cell count.
type NineSlice struct {
	// TopLeft, TopRight, BottomLeft, BottomRight are the four corner
	// quadrants, each floor(W/2) x floor(H/2) pixels of the source.
	TopLeft     *image.RGBA
	TopRight    *image.RGBA
	BottomLeft  *image.RGBA
	BottomRight *image.RGBA

	// Top and Bottom are one-pixel-wide vertical strips sampled just
	// inside the horizontal quadrant boundary; they stretch horizontally
	// between the corners. Left and Right are one-pixel-tall horizontal
	// strips that stretch vertically.
	Top    *image.RGBA
	Bottom *image.RGBA
	Left   *image.RGBA
	Right  *image.RGBA

	// Center is the color of the exact center pixel, used to flood the
	// interior region.
	Center color.RGBA
}

// ExtractNineSlice decomposes src into its nine-slice parts. The
// quadrants and strips are copied out of the full-resolution source, so
// the result is independent of any container or cell geometry.
func ExtractNineSlice(src *image.RGBA) (*NineSlice, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	qw, qh := w/2, h/2
	if qw < 1 || qh < 1 {
		return nil, ErrDegenerateSource
	}

	ns := &NineSlice{
		TopLeft:     copyRegion(src, image.Rect(0, 0, qw, qh)),
		TopRight:    copyRegion(src, image.Rect(w-qw, 0, w, qh)),
		BottomLeft:  copyRegion(src, image.Rect(0, h-qh, qw, h)),
		BottomRight: copyRegion(src, image.Rect(w-qw, h-qh, w, h)),
		Top:         copyRegion(src, image.Rect(qw, 0, qw+1, qh)),
		Bottom:      copyRegion(src, image.Rect(qw, h-qh, qw+1, h)),
		Left:        copyRegion(src, image.Rect(0, qh, qw, qh+1)),
		Right:       copyRegion(src, image.Rect(w-qw, qh, w, qh+1)),
		Center:      src.RGBAAt(b.Min.X+w/2, b.Min.Y+h/2),
	}
	return ns, nil
}

// SliceGrid rasterizes src to width x height pixels and crops one slice
// per cell. colEdges and rowEdges are cumulative boundary fractions in
// [0,1] (length columns+1 and rows+1). Slices are returned row-major.
//
// Each boundary fraction is rounded to an integer pixel position
// independently per cell, matching the layout derivation; at non-integer
// boundaries adjacent slices may share or miss a single pixel column.
func SliceGrid(src *image.RGBA, colEdges, rowEdges []float64, width, height int) ([]*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrDegenerateTarget
	}
	if len(colEdges) < 2 || len(rowEdges) < 2 {
		return nil, ErrDegenerateTarget
	}

	scaled := Rasterize(src, width, height, true)

	cols := len(colEdges) - 1
	rows := len(rowEdges) - 1
	slices := make([]*image.RGBA, 0, cols*rows)
	for r := 0; r < rows; r++ {
		y0 := edgePixel(rowEdges[r], height)
		y1 := edgePixel(rowEdges[r+1], height)
		for c := 0; c < cols; c++ {
			x0 := edgePixel(colEdges[c], width)
			x1 := edgePixel(colEdges[c+1], width)
			if x1 <= x0 {
				x1 = x0 + 1
			}
			if y1 <= y0 {
				y1 = y0 + 1
			}
			slices = append(slices, copyRegion(scaled, image.Rect(x0, y0, x1, y1)))
		}
	}
	return slices, nil
}

// Rasterize scales src to width x height. highQuality selects the
// Catmull-Rom kernel (pre-processing path); otherwise the cheaper
// approximate bilinear scaler is used (interactive path).
func Rasterize(src *image.RGBA, width, height int, highQuality bool) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	scaler := xdraw.Scaler(xdraw.ApproxBiLinear)
	if highQuality {
		scaler = xdraw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// edgePixel converts a boundary fraction to an integer pixel position,
// clamped into [0, extent].
func edgePixel(frac float64, extent int) int {
	p := int(math.Round(frac * float64(extent)))
	if p < 0 {
		p = 0
	}
	if p > extent {
		p = extent
	}
	return p
}

// copyRegion copies a sub-rectangle of src into a fresh zero-origin RGBA.
// The crop never aliases the source buffer.
func copyRegion(src *image.RGBA, r image.Rectangle) *image.RGBA {
	r = r.Add(src.Bounds().Min)
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, r.Min, xdraw.Src)
	return dst
}
