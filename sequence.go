package mosaic

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// FrameRate is the fixed sequence playback rate in frames per second.
const FrameRate = 30

// FrameInterval is the playback tick period.
const FrameInterval = time.Second / FrameRate

// preprocessYield is the short pause between frames during whole-sequence
// pre-processing, keeping the frame loop responsive.
const preprocessYield = time.Millisecond

// SeqKey identifies one processed sequence: a run of every frame through
// the pipeline under one mode and geometry.
type SeqKey struct {
	Mode     FitMode
	Geometry uint64
	Width    int
	Height   int
	Frames   int
}

// ProcessedSequence is an ordered list of artifacts aligned
// index-for-index with the loaded frames.
type ProcessedSequence struct {
	Key       SeqKey
	Artifacts []*Artifact
}

// Sequence manages an ordered list of source frames with fixed-rate
// looping playback, feeding the pipeline one frame at a time either live
// or as a whole-sequence pre-pass for the heavy fit modes.
//
// Sequence is safe for concurrent use: the playback timer advances it
// while SetMode may be running a pre-pass on another goroutine.
type Sequence struct {
	mu        sync.Mutex
	pipeline  *Pipeline
	frames    []*SourceImage
	index     int
	mode      FitMode
	playing   bool
	processed *ProcessedSequence
}

// NewSequence creates a sequence coordinator on top of the pipeline.
func NewSequence(p *Pipeline) *Sequence {
	return &Sequence{pipeline: p, mode: FitStretch}
}

// Load replaces the sequence with the given pre-decoded frames, discards
// any processed sequence, rewinds to frame 0 and starts playback.
func (s *Sequence) Load(frames []*SourceImage) error {
	if len(frames) == 0 {
		return fmt.Errorf("mosaic: load sequence: no frames")
	}
	s.mu.Lock()
	s.frames = append([]*SourceImage(nil), frames...)
	s.index = 0
	s.processed = nil
	s.playing = true
	s.mu.Unlock()
	Logger().Debug("mosaic: sequence loaded", slog.Int("frames", len(frames)))
	return nil
}

// Len returns the number of loaded frames.
func (s *Sequence) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Index returns the current frame index.
func (s *Sequence) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Mode returns the active fit mode.
func (s *Sequence) Mode() FitMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Playing reports whether playback is running (false while a heavy-mode
// pre-pass is in flight).
func (s *Sequence) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Advance moves to the next frame, wrapping past the last frame to 0.
// Playback never stops at the end. While paused, Advance is a no-op.
// It returns the resulting index.
func (s *Sequence) Advance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 || !s.playing {
		return s.index
	}
	s.index = (s.index + 1) % len(s.frames)
	return s.index
}

// Current returns the current frame and, when a processed sequence is
// active, its precomputed artifact.
func (s *Sequence) Current() (*SourceImage, *Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil, nil, ErrNoSequence
	}
	frame := s.frames[s.index]
	if s.processed != nil {
		return frame, s.processed.Artifacts[s.index], nil
	}
	return frame, nil, nil
}

// SetMode switches the playback fit mode.
//
// Simple modes take effect immediately: any processed sequence is
// discarded and live playback continues.
//
// Heavy modes pause playback and run every frame through the pipeline
// sequentially, yielding briefly between frames; on completion playback
// resumes stepping through the precomputed artifacts with no further
// recomputation. If processing fails partway the partial result is
// discarded and live playback resumes under FitStretch; if ctx is
// cancelled the partial result is discarded and the previous mode is
// kept.
func (s *Sequence) SetMode(ctx context.Context, mode FitMode, snap Snapshot) error {
	if !mode.Valid() {
		return ErrUnknownMode
	}

	s.mu.Lock()
	if len(s.frames) == 0 {
		s.mu.Unlock()
		return ErrNoSequence
	}
	if !mode.Heavy() {
		s.processed = nil
		s.mode = mode
		s.playing = true
		s.mu.Unlock()
		return nil
	}

	key := SeqKey{
		Mode:     mode,
		Geometry: snap.Signature(),
		Width:    roundPx(snap.Width()),
		Height:   roundPx(snap.Height()),
		Frames:   len(s.frames),
	}
	if s.processed != nil && s.processed.Key == key {
		s.mode = mode
		s.playing = true
		s.mu.Unlock()
		return nil
	}
	frames := append([]*SourceImage(nil), s.frames...)
	s.playing = false
	s.mu.Unlock()

	artifacts := make([]*Artifact, 0, len(frames))
	for i, frame := range frames {
		art, err := s.pipeline.Process(frame, mode, snap)
		if err != nil {
			s.resumeLive(FitStretch)
			Logger().Warn("mosaic: sequence pre-processing failed, resuming live playback",
				slog.Int("frame", i), slog.Any("error", err))
			return err
		}
		artifacts = append(artifacts, art)

		if i < len(frames)-1 {
			select {
			case <-ctx.Done():
				s.mu.Lock()
				prev := s.mode
				s.mu.Unlock()
				s.resumeLive(prev)
				return ctx.Err()
			case <-time.After(preprocessYield):
			}
		}
	}

	s.mu.Lock()
	s.processed = &ProcessedSequence{Key: key, Artifacts: artifacts}
	s.mode = mode
	s.playing = true
	s.mu.Unlock()
	Logger().Debug("mosaic: sequence pre-processed",
		slog.String("mode", mode.String()), slog.Int("frames", len(artifacts)))
	return nil
}

// resumeLive discards any processed sequence and resumes live playback
// under the given mode.
func (s *Sequence) resumeLive(mode FitMode) {
	s.mu.Lock()
	s.processed = nil
	s.mode = mode
	s.playing = true
	s.mu.Unlock()
}

// Run drives playback from an external fixed-rate timer until ctx is
// cancelled. It is a convenience for hosts without their own timing; the
// interactive viewer drives Advance from its own clock instead.
func (s *Sequence) Run(ctx context.Context) {
	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Advance()
		}
	}
}
