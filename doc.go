// Package mosaic implements a resizable fractional grid of image cells.
//
// # Overview
//
// mosaic models a rectangular surface subdivided into columns and rows by
// positive fractional weights, fills cells with image content under several
// fit modes, and can animate the cell proportions procedurally. It provides
// three cooperating subsystems:
//
//   - Grid: the constrained fractional layout model. Weights are mutated
//     through clamped operations that preserve a minimum cell size, and the
//     current layout is read as an immutable Snapshot.
//   - Animator: per-frame mutation of grid weights using a continuous noise
//     strategy or a discrete pulse state machine.
//   - Pipeline: converts a source image, a fit mode and a geometry snapshot
//     into a renderable artifact, with a content-addressed cache and a
//     debounce window for the expensive modes.
//
// A Sequence sits above the Pipeline and manages fixed-rate looping playback
// of ordered frames, including whole-sequence pre-processing for the heavy
// fit modes.
//
// # Quick Start
//
//	g := mosaic.NewGrid(3, 2, 900, 400)
//	g.ResizeColumn(0, 0.5)
//
//	p := mosaic.NewPipeline()
//	img, _ := mosaic.DecodeImage(data)
//	art, err := p.Apply(img, mosaic.FitCornerStretch, g.Snapshot())
//
// # Rendering
//
// mosaic never paints anything itself. It produces geometry snapshots,
// placements and processed artifacts; a renderer adapter (see cmd/mosaicview
// for an interactive viewer and cmd/mosaicrender for PNG export) consumes
// them and performs the actual drawing.
//
// # Logging
//
// By default mosaic produces no log output. Call [SetLogger] to enable
// structured logging via log/slog.
package mosaic
