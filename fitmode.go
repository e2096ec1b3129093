package mosaic

// FitMode selects how a source image fills a grid cell.
//
// The modes are partitioned into simple modes, which are purely geometric
// and resolved by the renderer from a Placement, and heavy modes, which
// require per-pixel rasterization and go through the Pipeline.
type FitMode int

// Fit modes.
const (
	// FitStretch scales the source independently on each axis to fill the
	// cell exactly. Simple; always available, and the fallback for every
	// recovered processing failure.
	FitStretch FitMode = iota

	// FitWithin scales the source uniformly so it fits entirely inside the
	// cell, centered, possibly leaving empty margins. Simple.
	FitWithin

	// FitFillCover scales the source uniformly so it covers the cell
	// entirely, centered, cropping the overflow. Simple.
	FitFillCover

	// FitCornerStretch decomposes the source into four corner quadrants,
	// four one-pixel edge strips and a center color (nine-slice), derived
	// once from the source alone and reused across all cells. Heavy.
	FitCornerStretch

	// FitSingleStretch rasterizes the source to the container size and
	// crops one slice per cell at the cumulative weight boundaries, so the
	// image spans the whole grid. Heavy.
	FitSingleStretch
)

// Heavy reports whether the mode requires per-pixel processing through
// the Pipeline.
func (m FitMode) Heavy() bool {
	return m == FitCornerStretch || m == FitSingleStretch
}

// Valid reports whether m is a known fit mode.
func (m FitMode) Valid() bool {
	return m >= FitStretch && m <= FitSingleStretch
}

// String returns the mode name.
func (m FitMode) String() string {
	switch m {
	case FitStretch:
		return "stretch"
	case FitWithin:
		return "fit-within"
	case FitFillCover:
		return "fill-cover"
	case FitCornerStretch:
		return "corner-stretch"
	case FitSingleStretch:
		return "single-stretch"
	}
	return "unknown"
}
