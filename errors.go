package mosaic

import (
	"errors"
	"fmt"
)

// Sentinel errors for the mosaic package.
var (
	// ErrUnknownMode is returned when a request names a fit mode the
	// pipeline does not recognize. The request fails; the engine keeps
	// running.
	ErrUnknownMode = errors.New("mosaic: unknown fit mode")

	// ErrPending is returned by Pipeline.Apply when a heavy-mode request
	// missed the cache and entered the debounce window. The artifact is
	// delivered through the pipeline's handler once computed.
	ErrPending = errors.New("mosaic: processing pending")

	// ErrNoSequence is returned by sequence operations before Load.
	ErrNoSequence = errors.New("mosaic: no sequence loaded")
)

// ProcessingError reports a failed heavy-mode computation. The pipeline
// recovers locally: it logs the failure and names a cheaper fallback mode
// the caller should render with instead. A ProcessingError never halts the
// animation loop or playback.
type ProcessingError struct {
	Mode     FitMode // the mode that failed
	Fallback FitMode // the always-available mode to render with
	Err      error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("mosaic: %s processing failed (falling back to %s): %v",
		e.Mode, e.Fallback, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
