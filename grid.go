package mosaic

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync"
)

// MinCellSize is the minimum derived width and height of a cell, in
// device-independent pixels. Resize operations that would push either
// adjacent cell below this bound are rejected.
const MinCellSize = 100.0

// Splitter drag targets are clamped to this fraction range of the
// container extent, so a cell can never be dragged fully closed.
const (
	minSplitFraction = 0.05
	maxSplitFraction = 0.95
)

// sizeEpsilon absorbs floating-point error in minimum-size checks.
const sizeEpsilon = 1e-9

// Axis selects which grid dimension an operation applies to.
type Axis int

// Axis values.
const (
	// AxisX selects columns.
	AxisX Axis = iota

	// AxisY selects rows.
	AxisY

	// AxisXY selects both columns and rows (animation only).
	AxisXY
)

// String returns the axis name.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisXY:
		return "xy"
	}
	return "unknown"
}

// Grid owns the fractional layout state: ordered column and row weights
// plus the container size they are projected onto. All mutation goes
// through clamped operations; reads go through immutable Snapshots.
//
// Grid is safe for concurrent use. It is designed for a single logical
// writer (the active controller or animator); the mutex exists so that a
// background render goroutine may take snapshots while a drag is active.
type Grid struct {
	mu     sync.Mutex
	cols   []float64
	rows   []float64
	width  float64
	height float64
}

// NewGrid creates a grid with the given cell counts and container size.
// Counts below 1 are raised to 1. All weights start at 1, so cells are
// initially uniform.
func NewGrid(cols, rows int, width, height float64) *Grid {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	g := &Grid{
		cols:   make([]float64, cols),
		rows:   make([]float64, rows),
		width:  width,
		height: height,
	}
	for i := range g.cols {
		g.cols[i] = 1
	}
	for i := range g.rows {
		g.rows[i] = 1
	}
	return g
}

// Snapshot returns an immutable copy of the current layout state.
func (g *Grid) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		cols:   append([]float64(nil), g.cols...),
		rows:   append([]float64(nil), g.rows...),
		width:  g.width,
		height: g.height,
	}
}

// SetContainerSize updates the container dimensions. It is a pure
// assignment: existing weights are not re-validated here, but subsequent
// resize and animation calls clamp against the new size.
func (g *Grid) SetContainerSize(width, height float64) {
	g.mu.Lock()
	g.width = width
	g.height = height
	g.mu.Unlock()
}

// Columns returns the current column count.
func (g *Grid) Columns() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cols)
}

// Rows returns the current row count.
func (g *Grid) Rows() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rows)
}

// ResizeColumn moves the splitter between columns splitter and splitter+1
// to the given fraction of the container width. The fraction is clamped to
// [0.05, 0.95] and converted into a weight delta applied to the two
// adjacent columns only; all other weights and the weight sum are
// unchanged. The move is rejected (returning false, geometry unchanged)
// when either adjacent cell would fall below MinCellSize.
func (g *Grid) ResizeColumn(splitter int, frac float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return resizeAdjacent(g.cols, splitter, frac, g.width)
}

// ResizeRow is the row equivalent of ResizeColumn, using the container
// height as the extent.
func (g *Grid) ResizeRow(splitter int, frac float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return resizeAdjacent(g.rows, splitter, frac, g.height)
}

// AddColumn appends a column with unit weight.
func (g *Grid) AddColumn() {
	g.mu.Lock()
	g.cols = append(g.cols, 1)
	g.mu.Unlock()
}

// AddRow appends a row with unit weight.
func (g *Grid) AddRow() {
	g.mu.Lock()
	g.rows = append(g.rows, 1)
	g.mu.Unlock()
}

// RemoveColumn removes the last column. It is a no-op when only one
// column remains.
func (g *Grid) RemoveColumn() {
	g.mu.Lock()
	if len(g.cols) > 1 {
		g.cols = g.cols[:len(g.cols)-1]
	}
	g.mu.Unlock()
}

// RemoveRow removes the last row. It is a no-op when only one row remains.
func (g *Grid) RemoveRow() {
	g.mu.Lock()
	if len(g.rows) > 1 {
		g.rows = g.rows[:len(g.rows)-1]
	}
	g.mu.Unlock()
}

// columnWeights returns a copy of the column weights.
func (g *Grid) columnWeights() []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]float64(nil), g.cols...)
}

// rowWeights returns a copy of the row weights.
func (g *Grid) rowWeights() []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]float64(nil), g.rows...)
}

// setWeights replaces both weight arrays. Used by the animator, which
// produces already-clamped values; nil leaves an axis untouched.
func (g *Grid) setWeights(cols, rows []float64) {
	g.mu.Lock()
	if cols != nil {
		g.cols = append(g.cols[:0], cols...)
	}
	if rows != nil {
		g.rows = append(g.rows[:0], rows...)
	}
	g.mu.Unlock()
}

// container returns the current container size.
func (g *Grid) container() (w, h float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.width, g.height
}

// resizeAdjacent implements the pairwise splitter negotiation shared by
// ResizeColumn and ResizeRow. Only weights[splitter] and
// weights[splitter+1] may change; the caller holds the grid lock.
func resizeAdjacent(weights []float64, splitter int, frac, extent float64) bool {
	if splitter < 0 || splitter >= len(weights)-1 {
		return false
	}
	frac = clamp(frac, minSplitFraction, maxSplitFraction)

	total := weightSum(weights)
	target := frac * total
	cum := 0.0
	for i := 0; i <= splitter; i++ {
		cum += weights[i]
	}
	delta := target - cum

	left := weights[splitter] + delta
	right := weights[splitter+1] - delta
	if left <= 0 || right <= 0 {
		return false
	}
	if extent > 0 {
		// The weight sum is invariant, so pixel sizes scale directly.
		if left/total*extent < MinCellSize-sizeEpsilon ||
			right/total*extent < MinCellSize-sizeEpsilon {
			return false
		}
	}
	weights[splitter] = left
	weights[splitter+1] = right
	return true
}

// weightSum returns the sum of a weight array.
func weightSum(weights []float64) float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	return total
}

// weightFloor returns the smallest weight whose derived cell size stays at
// or above MinCellSize, given the weight total and the container extent on
// that axis. A non-positive extent disables the floor.
func weightFloor(total, extent float64) float64 {
	if extent <= 0 {
		return 0
	}
	return total * MinCellSize / extent
}

// Snapshot is an immutable copy of grid state plus pure derivation of cell
// rectangles. Snapshots never alias the live grid: callers may hold them
// across later mutations, and cached pipeline keys derived from them stay
// stable.
type Snapshot struct {
	cols   []float64
	rows   []float64
	width  float64
	height float64
}

// Columns returns the column count.
func (s Snapshot) Columns() int { return len(s.cols) }

// Rows returns the row count.
func (s Snapshot) Rows() int { return len(s.rows) }

// CellCount returns Columns * Rows.
func (s Snapshot) CellCount() int { return len(s.cols) * len(s.rows) }

// Width returns the container width.
func (s Snapshot) Width() float64 { return s.width }

// Height returns the container height.
func (s Snapshot) Height() float64 { return s.height }

// ColumnWeights returns a copy of the column weights.
func (s Snapshot) ColumnWeights() []float64 {
	return append([]float64(nil), s.cols...)
}

// RowWeights returns a copy of the row weights.
func (s Snapshot) RowWeights() []float64 {
	return append([]float64(nil), s.rows...)
}

// ColumnEdges returns len(cols)+1 cumulative fractions in [0,1] marking
// the vertical cell boundaries, starting at 0 and ending at 1.
func (s Snapshot) ColumnEdges() []float64 {
	return edges(s.cols)
}

// RowEdges returns len(rows)+1 cumulative fractions in [0,1] marking the
// horizontal cell boundaries.
func (s Snapshot) RowEdges() []float64 {
	return edges(s.rows)
}

// CellRect returns the pixel rectangle of the cell at (col, row).
func (s Snapshot) CellRect(col, row int) Rect {
	ce := s.ColumnEdges()
	re := s.RowEdges()
	return Rect{
		X: ce[col] * s.width,
		Y: re[row] * s.height,
		W: (ce[col+1] - ce[col]) * s.width,
		H: (re[row+1] - re[row]) * s.height,
	}
}

// Signature returns a hash of the ordered weights and cell counts. Two
// snapshots with the same weights and counts share a signature regardless
// of container size; the pipeline key carries the container separately.
func (s Snapshot) Signature() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s.cols)))
	_, _ = h.Write(buf[:])
	for _, w := range s.cols {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(w))
		_, _ = h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s.rows)))
	_, _ = h.Write(buf[:])
	for _, w := range s.rows {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(w))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// edges converts weights into cumulative boundary fractions.
func edges(weights []float64) []float64 {
	total := weightSum(weights)
	out := make([]float64, len(weights)+1)
	cum := 0.0
	for i, w := range weights {
		cum += w
		out[i+1] = cum / total
	}
	out[len(weights)] = 1 // absorb rounding drift at the far edge
	return out
}
