package mosaic

// SplitterController translates pointer drags on a cell boundary into
// constrained grid resizes. It holds no geometry of its own: every
// movement event becomes one ResizeColumn/ResizeRow call, with the target
// expressed as a fraction of the container extent. Invalid intermediate
// positions are clamped or rejected by the grid, never surfaced as
// errors, and the drag never rolls back: on release the last accepted
// configuration is final.
type SplitterController struct {
	grid     *Grid
	axis     Axis
	index    int
	origin   Point
	dragging bool
}

// NewSplitterController creates a controller for the given grid.
func NewSplitterController(g *Grid) *SplitterController {
	return &SplitterController{grid: g}
}

// Begin starts a drag on the splitter between cells index and index+1
// along the given axis. origin is the container's top-left corner in the
// same coordinate space as the pointer positions passed to Move.
func (c *SplitterController) Begin(axis Axis, index int, origin Point) {
	c.axis = axis
	c.index = index
	c.origin = origin
	c.dragging = true
}

// Move handles one pointer movement event. It reports whether the grid
// accepted the new position; a false return means the position was
// rejected (adjacent cell at minimum size) and the geometry is unchanged.
func (c *SplitterController) Move(pos Point) bool {
	if !c.dragging {
		return false
	}
	w, h := c.grid.container()
	rel := pos.Sub(c.origin)
	if c.axis == AxisY {
		if h <= 0 {
			return false
		}
		return c.grid.ResizeRow(c.index, rel.Y/h)
	}
	if w <= 0 {
		return false
	}
	return c.grid.ResizeColumn(c.index, rel.X/w)
}

// End finishes the drag. No rollback occurs.
func (c *SplitterController) End() {
	c.dragging = false
}

// Dragging reports whether a drag is active.
func (c *SplitterController) Dragging() bool { return c.dragging }

// SplitterHit locates a splitter near a pointer position, searching
// column boundaries first. tol is the pick distance in pixels. Used by
// renderer adapters for hit testing.
func SplitterHit(snap Snapshot, pos Point, tol float64) (axis Axis, index int, ok bool) {
	for i, e := range snap.ColumnEdges() {
		if i == 0 || i == snap.Columns() {
			continue
		}
		x := e * snap.Width()
		if pos.X >= x-tol && pos.X <= x+tol {
			return AxisX, i - 1, true
		}
	}
	for i, e := range snap.RowEdges() {
		if i == 0 || i == snap.Rows() {
			continue
		}
		y := e * snap.Height()
		if pos.Y >= y-tol && pos.Y <= y+tol {
			return AxisY, i - 1, true
		}
	}
	return 0, 0, false
}
