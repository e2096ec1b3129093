package mosaic

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mosaiclab/mosaic/cache"
	"github.com/mosaiclab/mosaic/internal/fitimg"
)

// NineSlice is the corner-stretch decomposition produced by the pipeline.
type NineSlice = fitimg.NineSlice

// DefaultDebounce is the quiet period a heavy-mode cache miss waits for
// before computing, coalescing rapid mode/geometry changes.
const DefaultDebounce = 100 * time.Millisecond

// Key identifies one heavy-mode processing request. Two requests with
// equal keys are the same request: the second is served from cache without
// recomputation.
type Key struct {
	Image    ImageID
	Mode     FitMode
	Geometry uint64 // snapshot signature: ordered weights + cell counts
	Width    int    // container size rounded to integer pixels
	Height   int
}

// NewKey derives the cache key for a request from its inputs.
func NewKey(id ImageID, mode FitMode, snap Snapshot) Key {
	return Key{
		Image:    id,
		Mode:     mode,
		Geometry: snap.Signature(),
		Width:    roundPx(snap.Width()),
		Height:   roundPx(snap.Height()),
	}
}

// roundPx rounds a container dimension to whole pixels. Every cache key
// derives its size fields through this so keys built from the same
// snapshot always agree.
func roundPx(v float64) int {
	return int(math.Round(v))
}

// Artifact is the processed result for a heavy fit mode.
//
// For FitCornerStretch, Nine holds the nine-slice decomposition shared by
// every cell. For FitSingleStretch, Cells holds one cropped slice per
// cell in row-major order.
type Artifact struct {
	Mode  FitMode
	Nine  *NineSlice
	Cells []*image.RGBA
}

// Handler receives asynchronously computed artifacts. err is non-nil
// (a *ProcessingError) when the computation failed and the caller should
// render with the error's Fallback mode instead.
type Handler func(key Key, art *Artifact, err error)

// PipelineOption configures a Pipeline during creation.
type PipelineOption func(*Pipeline)

// WithDebounce sets the debounce window for heavy-mode cache misses.
// A zero or negative duration disables debouncing: Apply computes
// synchronously and returns the artifact directly.
func WithDebounce(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.debounce = d }
}

// WithHandler sets the delivery callback for debounced computations.
func WithHandler(h Handler) PipelineOption {
	return func(p *Pipeline) { p.handler = h }
}

// Pipeline converts (source image, fit mode, geometry snapshot) into
// renderable artifacts for the heavy fit modes, backed by a
// content-addressed cache.
//
// The cache has no per-entry eviction. It is cleared wholesale when the
// active image identity changes or the grid cell count changes; container
// resizes accrete new entries instead of evicting old ones.
//
// Heavy computation triggered through the debounced path runs on a
// background goroutine; the finished artifact is marshaled back under the
// pipeline lock and delivered through the handler only if the request is
// still the active one. Superseded computations still populate the cache.
type Pipeline struct {
	mu       sync.Mutex
	cache    *cache.Cache[Key, *Artifact]
	debounce time.Duration
	handler  Handler

	timer      *time.Timer
	gen        uint64 // bumped per debounced request; stale results are not delivered
	pendingKey Key
	hasPending bool

	activeImage ImageID
	activeCols  int
	activeRows  int
	hasActive   bool

	computes atomic.Uint64
}

// NewPipeline creates a pipeline with the default 100ms debounce window.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cache:    cache.New[Key, *Artifact](),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply requests processing of img under mode at the given geometry.
//
// Simple modes short-circuit: Apply returns (nil, nil) and the renderer
// places the raw image geometrically (see Placement).
//
// Heavy modes consult the cache first; a hit returns the cached artifact
// synchronously with no recomputation and supersedes any pending debounced
// request, so that an older computation cannot deliver an artifact after
// the hit was served. On a miss with debouncing enabled,
// Apply schedules the computation, returns ErrPending, and delivers the
// artifact through the handler; a request for a different key before the
// window elapses cancels and restarts the pending timer (last request
// wins), while re-requesting the pending key leaves the window alone.
// With debouncing disabled the artifact is computed and returned directly.
func (p *Pipeline) Apply(img *SourceImage, mode FitMode, snap Snapshot) (*Artifact, error) {
	if !mode.Valid() {
		return nil, ErrUnknownMode
	}
	if !mode.Heavy() {
		return nil, nil
	}

	p.noteRequest(img.ID(), snap)
	key := NewKey(img.ID(), mode, snap)
	if art, ok := p.cache.Get(key); ok {
		p.supersede()
		return art, nil
	}

	if p.debounce <= 0 {
		return p.computeAndStore(key, img, mode, snap)
	}

	p.mu.Lock()
	if p.hasPending && p.pendingKey == key {
		// Same request already waiting; don't push the window out.
		p.mu.Unlock()
		return nil, ErrPending
	}
	p.gen++
	gen := p.gen
	p.pendingKey = key
	p.hasPending = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.debounce, func() {
		p.fire(gen, key, img, mode, snap)
	})
	p.mu.Unlock()
	return nil, ErrPending
}

// Process is the synchronous, debounce-free entry point used by sequence
// pre-processing. It consults the cache and computes on a miss.
func (p *Pipeline) Process(img *SourceImage, mode FitMode, snap Snapshot) (*Artifact, error) {
	if !mode.Valid() {
		return nil, ErrUnknownMode
	}
	if !mode.Heavy() {
		return nil, nil
	}
	p.noteRequest(img.ID(), snap)
	key := NewKey(img.ID(), mode, snap)
	if art, ok := p.cache.Get(key); ok {
		return art, nil
	}
	return p.computeAndStore(key, img, mode, snap)
}

// CacheStats returns artifact cache statistics.
func (p *Pipeline) CacheStats() cache.Stats {
	return p.cache.Stats()
}

// Computes returns the number of heavy computations performed. Cache hits
// do not increase it.
func (p *Pipeline) Computes() uint64 {
	return p.computes.Load()
}

// ClearCache drops all cached artifacts.
func (p *Pipeline) ClearCache() {
	p.cache.Clear()
}

// noteRequest tracks the active image identity and cell counts, clearing
// the cache wholesale when either changes. A container resize without a
// cell count change deliberately does not clear.
func (p *Pipeline) noteRequest(id ImageID, snap Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cols, rows := snap.Columns(), snap.Rows()
	if p.hasActive && (id != p.activeImage || cols != p.activeCols || rows != p.activeRows) {
		p.cache.Clear()
	}
	p.activeImage = id
	p.activeCols = cols
	p.activeRows = rows
	p.hasActive = true
}

// supersede cancels any pending debounced request. An in-flight
// computation still populates the cache but its result is not delivered.
func (p *Pipeline) supersede() {
	p.mu.Lock()
	if p.hasPending {
		p.gen++
		p.hasPending = false
		if p.timer != nil {
			p.timer.Stop()
		}
	}
	p.mu.Unlock()
}

// fire runs a debounced computation. It executes on the timer goroutine;
// the result populates the cache regardless, but is delivered only when
// the request generation is still current.
func (p *Pipeline) fire(gen uint64, key Key, img *SourceImage, mode FitMode, snap Snapshot) {
	art, err := p.computeAndStore(key, img, mode, snap)

	p.mu.Lock()
	stale := gen != p.gen
	if !stale {
		p.hasPending = false
	}
	h := p.handler
	p.mu.Unlock()

	if stale {
		Logger().Debug("mosaic: superseded artifact cached but not applied",
			slog.String("mode", mode.String()), slog.String("image", key.Image.String()))
		return
	}
	if h != nil {
		h(key, art, err)
	}
}

// computeAndStore performs the heavy computation and caches the result.
// Failures are logged and wrapped in a ProcessingError naming FitStretch
// as the fallback; nothing is cached on failure.
func (p *Pipeline) computeAndStore(key Key, img *SourceImage, mode FitMode, snap Snapshot) (*Artifact, error) {
	art, err := p.compute(img, mode, snap)
	if err != nil {
		perr := &ProcessingError{Mode: mode, Fallback: FitStretch, Err: err}
		Logger().Warn("mosaic: heavy-mode processing failed",
			slog.String("mode", mode.String()),
			slog.String("image", key.Image.String()),
			slog.Any("error", err))
		return nil, perr
	}
	p.cache.Set(key, art)
	return art, nil
}

// compute dispatches to the mode-specific pixel work.
func (p *Pipeline) compute(img *SourceImage, mode FitMode, snap Snapshot) (*Artifact, error) {
	p.computes.Add(1)
	switch mode {
	case FitCornerStretch:
		ns, err := fitimg.ExtractNineSlice(img.RGBA())
		if err != nil {
			return nil, err
		}
		return &Artifact{Mode: mode, Nine: ns}, nil
	case FitSingleStretch:
		w := roundPx(snap.Width())
		h := roundPx(snap.Height())
		cells, err := fitimg.SliceGrid(img.RGBA(), snap.ColumnEdges(), snap.RowEdges(), w, h)
		if err != nil {
			return nil, err
		}
		return &Artifact{Mode: mode, Cells: cells}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMode, mode)
}
