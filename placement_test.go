package mosaic

import (
	"math"
	"testing"
)

func rectClose(a, b Rect) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps &&
		math.Abs(a.W-b.W) < eps && math.Abs(a.H-b.H) < eps
}

func TestPlaceInCell(t *testing.T) {
	cell := Rect{X: 100, Y: 50, W: 400, H: 200}
	tests := []struct {
		name       string
		mode       FitMode
		srcW, srcH int
		want       Rect
	}{
		{"stretch fills cell", FitStretch, 800, 100, Rect{0, 0, 400, 200}},
		{"fit within wide source", FitWithin, 800, 200, Rect{0, 50, 400, 100}},
		{"fit within tall source", FitWithin, 100, 200, Rect{150, 0, 100, 200}},
		{"cover wide source", FitFillCover, 800, 200, Rect{-200, 0, 800, 200}},
		{"cover tall source", FitFillCover, 100, 200, Rect{0, -300, 400, 800}},
		{"exact fit", FitWithin, 400, 200, Rect{0, 0, 400, 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlaceInCell(tt.mode, tt.srcW, tt.srcH, cell)
			if !rectClose(got.Dst, tt.want) {
				t.Errorf("PlaceInCell(%s, %dx%d) = %+v, want %+v",
					tt.mode, tt.srcW, tt.srcH, got.Dst, tt.want)
			}
		})
	}
}

func TestPlaceInCellDegenerate(t *testing.T) {
	cell := Rect{W: 400, H: 200}
	if got := PlaceInCell(FitWithin, 0, 100, cell); got.Dst != (Rect{}) {
		t.Errorf("expected zero placement for zero-size source, got %+v", got.Dst)
	}
	if got := PlaceInCell(FitCornerStretch, 100, 100, cell); got.Dst != (Rect{}) {
		t.Errorf("expected zero placement for heavy mode, got %+v", got.Dst)
	}
}
