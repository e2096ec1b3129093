// Command mosaicview is an interactive viewer for the mosaic grid.
//
// Usage:
//
//	mosaicview image.png [more-frames.png ...]
//
// With one image the grid shows it in every cell; with several images
// they play as a looping 30fps sequence. Keys 1-5 select the fit mode
// (stretch, fit-within, fill-cover, corner-stretch, single-stretch),
// N/P/O control noise/pulse/off animation, X/Y/B select the animated
// axis, and arrow keys add or remove columns and rows. Drag the cell
// boundaries to resize.
package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/mosaiclab/mosaic"
)

const (
	screenW = 1280
	screenH = 720
	pickTol = 6

	// Textures not drawn for this many frames are released; long enough
	// to keep a looping sequence's frames resident between visits.
	textureTTLFrames   = 600
	textureSweepPeriod = 60
)

type viewer struct {
	grid     *mosaic.Grid
	splitter *mosaic.SplitterController
	animator *mosaic.Animator
	pipeline *mosaic.Pipeline
	seq      *mosaic.Sequence

	single *mosaic.SourceImage // nil when playing a sequence
	mode   mosaic.FitMode
	axis   mosaic.Axis

	mu      sync.Mutex
	current *mosaic.Artifact // latest debounced artifact for the single image

	seqClock float64
	frame    int64
	textures map[*image.RGBA]*cachedTexture
}

type cachedTexture struct {
	tex  *ebiten.Image
	last int64 // frame counter at last draw
}

func newViewer(frames []*mosaic.SourceImage) *viewer {
	v := &viewer{
		grid:     mosaic.NewGrid(3, 2, screenW, screenH),
		mode:     mosaic.FitStretch,
		axis:     mosaic.AxisXY,
		textures: map[*image.RGBA]*cachedTexture{},
	}
	v.splitter = mosaic.NewSplitterController(v.grid)
	v.animator = mosaic.NewAnimator(v.grid)
	v.pipeline = mosaic.NewPipeline(mosaic.WithHandler(v.onArtifact))

	if len(frames) == 1 {
		v.single = frames[0]
	} else {
		v.seq = mosaic.NewSequence(v.pipeline)
		if err := v.seq.Load(frames); err != nil {
			panic(err) // frames is non-empty by construction
		}
	}
	return v
}

// onArtifact receives debounced pipeline results.
func (v *viewer) onArtifact(_ mosaic.Key, art *mosaic.Artifact, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.current = nil
		return
	}
	v.current = art
}

func (v *viewer) Update() error {
	dt := 1.0 / float64(ebiten.TPS())

	v.handleKeys()
	v.handleMouse()
	v.animator.Step(dt)

	if v.seq != nil {
		v.seqClock += dt
		for v.seqClock >= 1.0/mosaic.FrameRate {
			v.seqClock -= 1.0 / mosaic.FrameRate
			v.seq.Advance()
		}
	} else if v.mode.Heavy() {
		// Keep requesting; cache hits are free and geometry may have
		// moved under animation or drag.
		if art, err := v.pipeline.Apply(v.single, v.mode, v.grid.Snapshot()); err == nil && art != nil {
			v.mu.Lock()
			v.current = art
			v.mu.Unlock()
		}
	}
	return nil
}

func (v *viewer) handleKeys() {
	modes := map[ebiten.Key]mosaic.FitMode{
		ebiten.Key1: mosaic.FitStretch,
		ebiten.Key2: mosaic.FitWithin,
		ebiten.Key3: mosaic.FitFillCover,
		ebiten.Key4: mosaic.FitCornerStretch,
		ebiten.Key5: mosaic.FitSingleStretch,
	}
	for key, mode := range modes {
		if inpututil.IsKeyJustPressed(key) {
			v.setMode(mode)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		v.axis = mosaic.AxisX
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyY) {
		v.axis = mosaic.AxisY
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		v.axis = mosaic.AxisXY
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		v.enableAnim(mosaic.AnimNoise)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		v.enableAnim(mosaic.AnimPulse)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		v.animator.Disable()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		v.grid.AddColumn()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		v.grid.RemoveColumn()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		v.grid.AddRow()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		v.grid.RemoveRow()
	}
}

func (v *viewer) enableAnim(mode mosaic.AnimationMode) {
	err := v.animator.Enable(mosaic.AnimationConfig{
		Mode:      mode,
		Axis:      v.axis,
		Frequency: 0.8,
		Amplitude: 0.35,
		HoldTime:  0.6,
	})
	if err != nil {
		slog.Warn("animation config rejected", "error", err)
	}
}

func (v *viewer) setMode(mode mosaic.FitMode) {
	v.mode = mode
	v.mu.Lock()
	v.current = nil
	v.mu.Unlock()
	if v.seq != nil {
		snap := v.grid.Snapshot()
		go func() {
			if err := v.seq.SetMode(context.Background(), mode, snap); err != nil {
				slog.Warn("sequence mode switch failed", "error", err)
			}
		}()
	}
}

func (v *viewer) handleMouse() {
	x, y := ebiten.CursorPosition()
	pos := mosaic.Pt(float64(x), float64(y))

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if axis, index, ok := mosaic.SplitterHit(v.grid.Snapshot(), pos, pickTol); ok {
			v.splitter.Begin(axis, index, mosaic.Pt(0, 0))
		}
	}
	if v.splitter.Dragging() {
		if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
			v.splitter.Move(pos)
		} else {
			v.splitter.End()
		}
	}
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 18, G: 18, B: 22, A: 255})

	v.frame++
	if v.frame%textureSweepPeriod == 0 {
		v.pruneTextures()
	}

	src, art := v.frameAndArtifact()
	if src == nil {
		return
	}

	snap := v.grid.Snapshot()
	for r := 0; r < snap.Rows(); r++ {
		for c := 0; c < snap.Columns(); c++ {
			v.drawCell(screen, snap, src, art, c, r)
		}
	}
	v.drawSplitters(screen, snap)
}

// frameAndArtifact resolves the current source frame and, if available,
// its processed artifact.
func (v *viewer) frameAndArtifact() (*mosaic.SourceImage, *mosaic.Artifact) {
	if v.seq != nil {
		src, art, err := v.seq.Current()
		if err != nil {
			return nil, nil
		}
		return src, art
	}
	v.mu.Lock()
	art := v.current
	v.mu.Unlock()
	if art != nil && art.Mode != v.mode {
		art = nil
	}
	return v.single, art
}

func (v *viewer) drawCell(screen *ebiten.Image, snap mosaic.Snapshot, src *mosaic.SourceImage, art *mosaic.Artifact, c, r int) {
	cell := snap.CellRect(c, r)
	clip := screen.SubImage(image.Rect(
		int(cell.X), int(cell.Y), int(cell.X+cell.W), int(cell.Y+cell.H),
	)).(*ebiten.Image)

	switch {
	case art != nil && art.Nine != nil:
		v.drawNineSlice(clip, cell, art.Nine)
	case art != nil && art.Cells != nil:
		idx := r*snap.Columns() + c
		if idx < len(art.Cells) {
			v.drawInto(clip, art.Cells[idx], cell.X, cell.Y, cell.W, cell.H)
		}
	default:
		mode := v.liveMode()
		w, h := src.Size()
		p := mosaic.PlaceInCell(mode, w, h, cell)
		dst := p.Dst
		if mode.Heavy() {
			// Heavy artifact not ready yet: render under stretch.
			dst = mosaic.Rect{W: cell.W, H: cell.H}
		}
		v.drawInto(clip, src.RGBA(), cell.X+dst.X, cell.Y+dst.Y, dst.W, dst.H)
	}
}

func (v *viewer) liveMode() mosaic.FitMode {
	if v.seq != nil {
		return v.seq.Mode()
	}
	return v.mode
}

// drawNineSlice paints corners at natural size, strips stretched along
// the edges and the center color across the interior.
func (v *viewer) drawNineSlice(dst *ebiten.Image, cell mosaic.Rect, ns *mosaic.NineSlice) {
	qw := float64(ns.TopLeft.Bounds().Dx())
	qh := float64(ns.TopLeft.Bounds().Dy())
	// Shrink corners when the cell cannot hold two of them.
	sx := 1.0
	if 2*qw > cell.W {
		sx = cell.W / (2 * qw)
	}
	sy := 1.0
	if 2*qh > cell.H {
		sy = cell.H / (2 * qh)
	}
	cw, ch := qw*sx, qh*sy
	midW, midH := cell.W-2*cw, cell.H-2*ch

	// Interior first, then edges, then corners on top.
	if midW > 0 && midH > 0 {
		interior := image.Rect(
			int(cell.X+cw), int(cell.Y+ch),
			int(cell.X+cell.W-cw), int(cell.Y+cell.H-ch),
		)
		dst.SubImage(interior).(*ebiten.Image).Fill(ns.Center)
	}

	if midW > 0 {
		v.drawInto(dst, ns.Top, cell.X+cw, cell.Y, midW, ch)
		v.drawInto(dst, ns.Bottom, cell.X+cw, cell.Y+cell.H-ch, midW, ch)
	}
	if midH > 0 {
		v.drawInto(dst, ns.Left, cell.X, cell.Y+ch, cw, midH)
		v.drawInto(dst, ns.Right, cell.X+cell.W-cw, cell.Y+ch, cw, midH)
	}

	v.drawInto(dst, ns.TopLeft, cell.X, cell.Y, cw, ch)
	v.drawInto(dst, ns.TopRight, cell.X+cell.W-cw, cell.Y, cw, ch)
	v.drawInto(dst, ns.BottomLeft, cell.X, cell.Y+cell.H-ch, cw, ch)
	v.drawInto(dst, ns.BottomRight, cell.X+cell.W-cw, cell.Y+cell.H-ch, cw, ch)
}

// drawInto draws src scaled into the destination rectangle.
func (v *viewer) drawInto(dst *ebiten.Image, src *image.RGBA, x, y, w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	tex := v.texture(src)
	b := tex.Bounds()
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	op.GeoM.Translate(x, y)
	dst.DrawImage(tex, &op)
}

// texture returns a GPU texture for a raster, cached per buffer.
// Artifacts are immutable, so a raster pointer uniquely identifies its
// pixels; pruneTextures reclaims entries once their artifact is gone.
func (v *viewer) texture(src *image.RGBA) *ebiten.Image {
	if ct, ok := v.textures[src]; ok {
		ct.last = v.frame
		return ct.tex
	}
	ct := &cachedTexture{tex: ebiten.NewImageFromImage(src), last: v.frame}
	v.textures[src] = ct
	return ct.tex
}

// pruneTextures releases textures whose rasters have not been drawn
// recently, typically artifacts replaced by a mode or geometry change.
func (v *viewer) pruneTextures() {
	for src, ct := range v.textures {
		if v.frame-ct.last > textureTTLFrames {
			ct.tex.Deallocate()
			delete(v.textures, src)
		}
	}
}

func (v *viewer) drawSplitters(screen *ebiten.Image, snap mosaic.Snapshot) {
	line := color.RGBA{R: 240, G: 240, B: 240, A: 90}
	for i, e := range snap.ColumnEdges() {
		if i == 0 || i == snap.Columns() {
			continue
		}
		x := int(e * snap.Width())
		screen.SubImage(image.Rect(x-1, 0, x+1, screenH)).(*ebiten.Image).Fill(line)
	}
	for i, e := range snap.RowEdges() {
		if i == 0 || i == snap.Rows() {
			continue
		}
		y := int(e * snap.Height())
		screen.SubImage(image.Rect(0, y-1, screenW, y+1)).(*ebiten.Image).Fill(line)
	}
}

func (v *viewer) Layout(_, _ int) (int, int) {
	return screenW, screenH
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: mosaicview image.png [more-frames.png ...]")
		os.Exit(2)
	}
	mosaic.SetLogger(slog.Default())

	var frames []*mosaic.SourceImage
	for _, path := range os.Args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mosaicview: %v\n", err)
			os.Exit(1)
		}
		img, err := mosaic.DecodeImage(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mosaicview: %s: %v\n", path, err)
			os.Exit(1)
		}
		frames = append(frames, img)
	}

	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("mosaicview")
	if err := ebiten.RunGame(newViewer(frames)); err != nil {
		fmt.Fprintf(os.Stderr, "mosaicview: %v\n", err)
		os.Exit(1)
	}
}
