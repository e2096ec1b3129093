package mosaic

// Placement describes where a source image is drawn inside one cell for
// the simple fit modes. Dst is relative to the cell origin and may extend
// beyond the cell bounds for FitFillCover; the renderer clips to the cell.
type Placement struct {
	Dst Rect
}

// PlaceInCell computes the destination rectangle for a source of natural
// size (srcW, srcH) inside a cell of the given rectangle, under a simple
// fit mode. Heavy modes have no geometric placement; they return the
// zero Placement.
func PlaceInCell(mode FitMode, srcW, srcH int, cell Rect) Placement {
	if srcW <= 0 || srcH <= 0 || mode.Heavy() {
		return Placement{}
	}
	sw, sh := float64(srcW), float64(srcH)

	switch mode {
	case FitWithin, FitFillCover:
		scale := cell.W / sw
		other := cell.H / sh
		if mode == FitWithin {
			if other < scale {
				scale = other
			}
		} else if other > scale {
			scale = other
		}
		w, h := sw*scale, sh*scale
		return Placement{Dst: Rect{
			X: (cell.W - w) / 2,
			Y: (cell.H - h) / 2,
			W: w,
			H: h,
		}}
	default: // FitStretch
		return Placement{Dst: Rect{W: cell.W, H: cell.H}}
	}
}
