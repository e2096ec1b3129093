package fitimg

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// gradient builds a test source with position-dependent pixels so crops
// can be verified against the original.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	return img
}

func TestExtractNineSliceDimensions(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		qw, qh int
	}{
		{"even", 64, 48, 32, 24},
		{"odd", 65, 49, 32, 24},
		{"minimal", 2, 2, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, err := ExtractNineSlice(gradient(tt.w, tt.h))
			if err != nil {
				t.Fatal(err)
			}
			for name, img := range map[string]*image.RGBA{
				"top-left": ns.TopLeft, "top-right": ns.TopRight,
				"bottom-left": ns.BottomLeft, "bottom-right": ns.BottomRight,
			} {
				if img.Bounds().Dx() != tt.qw || img.Bounds().Dy() != tt.qh {
					t.Errorf("%s quadrant = %dx%d, want %dx%d",
						name, img.Bounds().Dx(), img.Bounds().Dy(), tt.qw, tt.qh)
				}
			}
			if ns.Top.Bounds().Dx() != 1 || ns.Top.Bounds().Dy() != tt.qh {
				t.Errorf("top strip = %v, want 1x%d", ns.Top.Bounds(), tt.qh)
			}
			if ns.Left.Bounds().Dx() != tt.qw || ns.Left.Bounds().Dy() != 1 {
				t.Errorf("left strip = %v, want %dx1", ns.Left.Bounds(), tt.qw)
			}
		})
	}
}

func TestExtractNineSliceContent(t *testing.T) {
	src := gradient(64, 48)
	ns, err := ExtractNineSlice(src)
	if err != nil {
		t.Fatal(err)
	}

	// Corner quadrants copy from the source corners.
	if got, want := ns.TopLeft.RGBAAt(0, 0), src.RGBAAt(0, 0); got != want {
		t.Errorf("top-left origin pixel %v, want %v", got, want)
	}
	if got, want := ns.BottomRight.RGBAAt(31, 23), src.RGBAAt(63, 47); got != want {
		t.Errorf("bottom-right far pixel %v, want %v", got, want)
	}
	// Edge strips sample just inside the quadrant boundary.
	if got, want := ns.Top.RGBAAt(0, 0), src.RGBAAt(32, 0); got != want {
		t.Errorf("top strip pixel %v, want %v", got, want)
	}
	// Center color is the exact center pixel.
	if got, want := ns.Center, src.RGBAAt(32, 24); got != want {
		t.Errorf("center color %v, want %v", got, want)
	}
}

func TestExtractNineSliceIndependentOfGeometry(t *testing.T) {
	// The decomposition depends on the source alone; the same source
	// yields identical parts regardless of any grid context.
	a, err := ExtractNineSlice(gradient(40, 40))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ExtractNineSlice(gradient(40, 40))
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.TopLeft.Pix {
		if a.TopLeft.Pix[i] != b.TopLeft.Pix[i] {
			t.Fatal("nine-slice extraction is not deterministic")
		}
	}
}

func TestExtractNineSliceDegenerate(t *testing.T) {
	for _, d := range []struct{ w, h int }{{1, 40}, {40, 1}, {1, 1}} {
		if _, err := ExtractNineSlice(gradient(d.w, d.h)); !errors.Is(err, ErrDegenerateSource) {
			t.Errorf("source %dx%d: expected ErrDegenerateSource, got %v", d.w, d.h, err)
		}
	}
}

func TestExtractNineSliceDoesNotAliasSource(t *testing.T) {
	src := gradient(40, 40)
	ns, err := ExtractNineSlice(src)
	if err != nil {
		t.Fatal(err)
	}
	before := ns.TopLeft.RGBAAt(0, 0)
	src.SetRGBA(0, 0, color.RGBA{R: 99, G: 99, B: 99, A: 255})
	if ns.TopLeft.RGBAAt(0, 0) != before {
		t.Error("quadrant aliases the source buffer")
	}
}

func TestSliceGridCounts(t *testing.T) {
	src := gradient(64, 64)
	colEdges := []float64{0, 1.0 / 3, 2.0 / 3, 1}
	rowEdges := []float64{0, 0.5, 1}

	slices, err := SliceGrid(src, colEdges, rowEdges, 900, 400)
	if err != nil {
		t.Fatal(err)
	}
	if len(slices) != 6 {
		t.Fatalf("expected 6 slices, got %d", len(slices))
	}
	// Row-major: first three slices are the top row, each 300x200.
	for i := 0; i < 3; i++ {
		b := slices[i].Bounds()
		if b.Dx() != 300 || b.Dy() != 200 {
			t.Errorf("slice %d = %dx%d, want 300x200", i, b.Dx(), b.Dy())
		}
	}
}

func TestSliceGridPerCellRounding(t *testing.T) {
	// Boundaries round independently per cell: at width 101 the midpoint
	// rounds to pixel 51 for both the first cell's end and the second
	// cell's start, so the slices tile without a gap here but the split
	// is not guaranteed seamless in general.
	src := gradient(64, 64)
	slices, err := SliceGrid(src, []float64{0, 0.5, 1}, []float64{0, 1}, 101, 50)
	if err != nil {
		t.Fatal(err)
	}
	if got := slices[0].Bounds().Dx() + slices[1].Bounds().Dx(); got != 101 {
		t.Errorf("slices cover %dpx of 101", got)
	}
}

func TestSliceGridDegenerate(t *testing.T) {
	src := gradient(16, 16)
	edges := []float64{0, 1}
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 100},
		{"zero height", 100, 0},
		{"negative", -5, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SliceGrid(src, edges, edges, tt.w, tt.h); !errors.Is(err, ErrDegenerateTarget) {
				t.Errorf("expected ErrDegenerateTarget, got %v", err)
			}
		})
	}
}

func TestRasterizeSize(t *testing.T) {
	src := gradient(64, 32)
	for _, hq := range []bool{false, true} {
		out := Rasterize(src, 128, 100, hq)
		if out.Bounds().Dx() != 128 || out.Bounds().Dy() != 100 {
			t.Errorf("hq=%v: rasterized to %v, want 128x100", hq, out.Bounds())
		}
	}
}

func BenchmarkExtractNineSlice(b *testing.B) {
	src := gradient(512, 512)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ExtractNineSlice(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSliceGrid(b *testing.B) {
	src := gradient(512, 512)
	colEdges := []float64{0, 0.25, 0.5, 0.75, 1}
	rowEdges := []float64{0, 0.5, 1}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := SliceGrid(src, colEdges, rowEdges, 1280, 720); err != nil {
			b.Fatal(err)
		}
	}
}
