package mosaic

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testImage builds a deterministic gradient source; seed varies the
// content so different frames get different identities.
func testImage(w, h int, seed uint8) *SourceImage {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x) + seed,
				G: uint8(y),
				B: uint8(x + y),
				A: 255,
			})
		}
	}
	return NewSourceImage(img)
}

func syncPipeline(opts ...PipelineOption) *Pipeline {
	return NewPipeline(append([]PipelineOption{WithDebounce(0)}, opts...)...)
}

func TestImageIdentity(t *testing.T) {
	a := testImage(16, 16, 0)
	b := testImage(16, 16, 0)
	c := testImage(16, 16, 1)
	if a.ID() != b.ID() {
		t.Error("identical content should compare equal")
	}
	if a.ID() == c.ID() {
		t.Error("different content should compare unequal")
	}
}

func TestSimpleModesShortCircuit(t *testing.T) {
	p := syncPipeline()
	img := testImage(32, 32, 0)
	snap := NewGrid(2, 2, 800, 600).Snapshot()

	for _, mode := range []FitMode{FitStretch, FitWithin, FitFillCover} {
		t.Run(mode.String(), func(t *testing.T) {
			art, err := p.Apply(img, mode, snap)
			if err != nil {
				t.Fatalf("Apply(%s) error: %v", mode, err)
			}
			if art != nil {
				t.Errorf("Apply(%s) produced an artifact for a simple mode", mode)
			}
		})
	}
	if p.Computes() != 0 {
		t.Errorf("simple modes triggered %d heavy computations", p.Computes())
	}
}

func TestUnknownMode(t *testing.T) {
	p := syncPipeline()
	img := testImage(32, 32, 0)
	snap := NewGrid(1, 1, 400, 400).Snapshot()
	if _, err := p.Apply(img, FitMode(42), snap); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestCornerStretchCachedOnRepeat(t *testing.T) {
	// Applying the same mode at the same geometry twice computes once and
	// serves the second request from cache.
	p := syncPipeline()
	img := testImage(64, 48, 0)
	snap := NewGrid(2, 2, 800, 600).Snapshot()

	first, err := p.Apply(img, FitCornerStretch, snap)
	if err != nil {
		t.Fatal(err)
	}
	if first == nil || first.Nine == nil {
		t.Fatal("expected nine-slice artifact")
	}
	if p.Computes() != 1 {
		t.Fatalf("expected 1 computation, got %d", p.Computes())
	}

	second, err := p.Apply(img, FitCornerStretch, snap)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Error("expected the cached artifact instance")
	}
	if p.Computes() != 1 {
		t.Errorf("cache hit recomputed: %d computations", p.Computes())
	}
}

func TestKeyDistinctness(t *testing.T) {
	img := testImage(64, 64, 0)
	base := NewGrid(2, 2, 800, 600).Snapshot()

	resized := NewGrid(2, 2, 1000, 600).Snapshot()
	reweighted := func() Snapshot {
		g := NewGrid(2, 2, 800, 600)
		g.ResizeColumn(0, 0.3)
		return g.Snapshot()
	}()

	tests := []struct {
		name string
		a, b Key
		same bool
	}{
		{"identical requests", NewKey(img.ID(), FitCornerStretch, base), NewKey(img.ID(), FitCornerStretch, base), true},
		{"different mode", NewKey(img.ID(), FitCornerStretch, base), NewKey(img.ID(), FitSingleStretch, base), false},
		{"different container", NewKey(img.ID(), FitCornerStretch, base), NewKey(img.ID(), FitCornerStretch, resized), false},
		{"different weights", NewKey(img.ID(), FitCornerStretch, base), NewKey(img.ID(), FitCornerStretch, reweighted), false},
		{"different image", NewKey(img.ID(), FitCornerStretch, base), NewKey(testImage(64, 64, 9).ID(), FitCornerStretch, base), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.a == tt.b) != tt.same {
				t.Errorf("keys %+v vs %+v: same = %v, want %v", tt.a, tt.b, tt.a == tt.b, tt.same)
			}
		})
	}
}

func TestCacheClearedOnCellCountChange(t *testing.T) {
	// Scenario: 2x2 cached, grid grows to 3x2, the cache is cleared and
	// the same mode/image recomputes.
	p := syncPipeline()
	img := testImage(64, 64, 0)

	g := NewGrid(2, 2, 800, 600)
	if _, err := p.Apply(img, FitCornerStretch, g.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if p.CacheStats().Len != 1 {
		t.Fatalf("expected 1 cache entry, got %d", p.CacheStats().Len)
	}

	g.AddColumn()
	if _, err := p.Apply(img, FitCornerStretch, g.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if p.Computes() != 2 {
		t.Errorf("expected recompute after cell count change, computes = %d", p.Computes())
	}
	if p.CacheStats().Len != 1 {
		t.Errorf("expected old entries dropped, cache len = %d", p.CacheStats().Len)
	}
}

func TestCacheClearedOnImageChange(t *testing.T) {
	p := syncPipeline()
	snap := NewGrid(2, 2, 800, 600).Snapshot()

	if _, err := p.Apply(testImage(64, 64, 0), FitCornerStretch, snap); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Apply(testImage(64, 64, 1), FitCornerStretch, snap); err != nil {
		t.Fatal(err)
	}
	if p.CacheStats().Len != 1 {
		t.Errorf("expected wholesale clear on image change, cache len = %d", p.CacheStats().Len)
	}
}

func TestResizeWithoutCellCountChangeAccretes(t *testing.T) {
	p := syncPipeline()
	img := testImage(64, 64, 0)

	g := NewGrid(2, 2, 800, 600)
	if _, err := p.Apply(img, FitSingleStretch, g.Snapshot()); err != nil {
		t.Fatal(err)
	}
	g.SetContainerSize(1000, 700)
	if _, err := p.Apply(img, FitSingleStretch, g.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if p.CacheStats().Len != 2 {
		t.Errorf("expected entries to accrete across container sizes, len = %d", p.CacheStats().Len)
	}
}

func TestSingleStretchArtifact(t *testing.T) {
	p := syncPipeline()
	img := testImage(64, 64, 0)
	g := NewGrid(3, 2, 900, 400)
	snap := g.Snapshot()

	art, err := p.Apply(img, FitSingleStretch, snap)
	if err != nil {
		t.Fatal(err)
	}
	if len(art.Cells) != snap.CellCount() {
		t.Fatalf("expected %d cell slices, got %d", snap.CellCount(), len(art.Cells))
	}
	// Slice widths track the cell boundaries: first row slices tile the
	// container width.
	total := 0
	for c := 0; c < snap.Columns(); c++ {
		total += art.Cells[c].Bounds().Dx()
	}
	if total != 900 {
		t.Errorf("first-row slices cover %dpx, want 900", total)
	}
}

func TestProcessingFailureFallsBack(t *testing.T) {
	p := syncPipeline()
	img := testImage(64, 64, 0)
	snap := NewGrid(2, 2, 0, 0).Snapshot() // zero-area container

	art, err := p.Apply(img, FitSingleStretch, snap)
	if art != nil {
		t.Error("expected no artifact on failure")
	}
	var perr *ProcessingError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProcessingError, got %v", err)
	}
	if perr.Fallback != FitStretch {
		t.Errorf("expected FitStretch fallback, got %s", perr.Fallback)
	}
}

func TestTinySourceCornerStretchFails(t *testing.T) {
	p := syncPipeline()
	img := testImage(1, 1, 0)
	snap := NewGrid(2, 2, 800, 600).Snapshot()
	var perr *ProcessingError
	if _, err := p.Apply(img, FitCornerStretch, snap); !errors.As(err, &perr) {
		t.Fatalf("expected ProcessingError for 1x1 source, got %v", err)
	}
}

func TestDebounceLastRequestWins(t *testing.T) {
	var (
		mu        sync.Mutex
		delivered []Key
	)
	p := NewPipeline(
		WithDebounce(30*time.Millisecond),
		WithHandler(func(key Key, art *Artifact, err error) {
			if err != nil {
				t.Errorf("unexpected handler error: %v", err)
			}
			mu.Lock()
			delivered = append(delivered, key)
			mu.Unlock()
		}),
	)
	img := testImage(64, 64, 0)
	snap := NewGrid(2, 2, 800, 600).Snapshot()

	// Two requests inside one debounce window: the first is replaced.
	if _, err := p.Apply(img, FitCornerStretch, snap); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := p.Apply(img, FitSingleStretch, snap); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(delivered)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(delivered))
	}
	if delivered[0].Mode != FitSingleStretch {
		t.Errorf("expected the last request delivered, got %s", delivered[0].Mode)
	}
}

func TestDebounceSameKeyCoalesces(t *testing.T) {
	var delivered atomic.Uint32
	p := NewPipeline(
		WithDebounce(20*time.Millisecond),
		WithHandler(func(Key, *Artifact, error) { delivered.Add(1) }),
	)
	img := testImage(64, 64, 0)
	snap := NewGrid(2, 2, 800, 600).Snapshot()

	// Re-requesting the pending key neither restarts the window nor
	// queues extra work.
	for i := 0; i < 3; i++ {
		if _, err := p.Apply(img, FitCornerStretch, snap); !errors.Is(err, ErrPending) {
			t.Fatalf("apply %d: expected ErrPending, got %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for delivered.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := delivered.Load(); got != 1 {
		t.Fatalf("expected one delivery, got %d", got)
	}
	if p.Computes() != 1 {
		t.Errorf("expected one computation, got %d", p.Computes())
	}
}

func TestCacheHitSupersedesPendingRequest(t *testing.T) {
	var (
		mu        sync.Mutex
		delivered []FitMode
	)
	p := NewPipeline(
		WithDebounce(20*time.Millisecond),
		WithHandler(func(_ Key, art *Artifact, err error) {
			if err != nil {
				t.Errorf("unexpected handler error: %v", err)
				return
			}
			mu.Lock()
			delivered = append(delivered, art.Mode)
			mu.Unlock()
		}),
	)
	img := testImage(64, 64, 0)
	snap := NewGrid(2, 2, 800, 600).Snapshot()

	// Warm the cache for single-stretch through the debounced path.
	if _, err := p.Apply(img, FitSingleStretch, snap); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(delivered)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Leave corner-stretch pending, then switch back to single-stretch.
	// The cache hit is the newest request; the pending corner-stretch
	// must not deliver after it.
	if _, err := p.Apply(img, FitCornerStretch, snap); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	art, err := p.Apply(img, FitSingleStretch, snap)
	if err != nil || art == nil {
		t.Fatalf("expected cached artifact, got (%v, %v)", art, err)
	}
	if art.Mode != FitSingleStretch {
		t.Fatalf("expected single-stretch artifact, got %s", art.Mode)
	}

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 || delivered[0] != FitSingleStretch {
		t.Fatalf("expected only the warm-up delivery, got %v", delivered)
	}
}

func TestDebouncedResultServedFromCacheNext(t *testing.T) {
	done := make(chan struct{})
	p := NewPipeline(
		WithDebounce(10*time.Millisecond),
		WithHandler(func(Key, *Artifact, error) { close(done) }),
	)
	img := testImage(64, 64, 0)
	snap := NewGrid(2, 2, 800, 600).Snapshot()

	if _, err := p.Apply(img, FitCornerStretch, snap); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced computation")
	}

	art, err := p.Apply(img, FitCornerStretch, snap)
	if err != nil {
		t.Fatalf("expected synchronous cache hit, got %v", err)
	}
	if art == nil || art.Nine == nil {
		t.Fatal("expected cached nine-slice artifact")
	}
	if p.Computes() != 1 {
		t.Errorf("expected single computation, got %d", p.Computes())
	}
}
