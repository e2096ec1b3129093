package mosaic

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// AnimationMode selects the procedural weight animation strategy.
type AnimationMode int

// Animation modes.
const (
	// AnimOff disables animation.
	AnimOff AnimationMode = iota

	// AnimNoise continuously modulates weights with a multi-octave sine
	// sum. Purely functional: deterministic given (index, animation time).
	AnimNoise

	// AnimPulse steps through discrete eased transitions toward randomly
	// generated target weights, holding between transitions.
	AnimPulse
)

// String returns the mode name.
func (m AnimationMode) String() string {
	switch m {
	case AnimOff:
		return "off"
	case AnimNoise:
		return "noise"
	case AnimPulse:
		return "pulse"
	}
	return "unknown"
}

// PulsePhase is the pulse state machine phase.
type PulsePhase int

// Pulse phases. The machine has no terminal state; it cycles until the
// animator is disabled.
const (
	// PulseTransitioning eases weights from start toward target.
	PulseTransitioning PulsePhase = iota

	// PulseHolding keeps weights at the reached targets for HoldTime.
	PulseHolding
)

// String returns the phase name.
func (p PulsePhase) String() string {
	if p == PulseHolding {
		return "holding"
	}
	return "transitioning"
}

// AnimationConfig is the animation surface consumed from outside the core.
type AnimationConfig struct {
	Mode AnimationMode
	Axis Axis

	// Frequency scales the animation speed: noise time advances by
	// dt*Frequency per step, and one pulse transition lasts 1/Frequency
	// seconds. Must be > 0.
	Frequency float64

	// Amplitude scales the weight deviation from baseline. Must be > 0.
	Amplitude float64

	// HoldTime is the pause between pulse transitions, in seconds.
	HoldTime float64
}

// Phase strides decorrelate the column and row noise fields: weight i
// samples the noise at i*stride + time, with a different stride per axis.
const (
	colPhaseStride = 1.7
	rowPhaseStride = 2.3
)

// minAnimWeight keeps animated weights positive when no container extent
// is available to derive a real floor from.
const minAnimWeight = 1e-6

// AnimatorOption configures an Animator during creation.
type AnimatorOption func(*Animator)

// WithRand sets the random source used to generate pulse targets.
// Primarily for deterministic tests.
func WithRand(rng *rand.Rand) AnimatorOption {
	return func(a *Animator) { a.rng = rng }
}

// Animator mutates a Grid's weights once per frame. While enabled it owns
// the grid's weights: the baseline captured at Enable is the reference for
// every frame, and Disable restores it on both axes.
//
// Animator is not safe for concurrent use; it is driven by a single frame
// loop (the host timing collaborator). Within one Step columns are fully
// recomputed before rows, and both are applied to the grid in one write.
type Animator struct {
	grid *Grid
	cfg  AnimationConfig
	rng  *rand.Rand

	enabled  bool
	noiseT   float64
	baseCols []float64
	baseRows []float64

	// pulse state
	phase       PulsePhase
	progress    float64
	elapsed     float64
	holdElapsed float64
	startCols   []float64
	targetCols  []float64
	startRows   []float64
	targetRows  []float64
}

// NewAnimator creates an animator for the given grid.
func NewAnimator(g *Grid, opts ...AnimatorOption) *Animator {
	a := &Animator{
		grid: g,
		rng:  rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Enable starts animating with the given configuration, capturing the
// grid's current weights as the baseline. Configuration is validated
// here, at the boundary: Step assumes a well-formed config.
func (a *Animator) Enable(cfg AnimationConfig) error {
	switch cfg.Mode {
	case AnimNoise, AnimPulse:
	case AnimOff:
		a.Disable()
		return nil
	default:
		return fmt.Errorf("mosaic: unknown animation mode %d", cfg.Mode)
	}
	if cfg.Axis != AxisX && cfg.Axis != AxisY && cfg.Axis != AxisXY {
		return fmt.Errorf("mosaic: unknown animation axis %d", cfg.Axis)
	}
	if cfg.Frequency <= 0 {
		return fmt.Errorf("mosaic: animation frequency must be > 0, got %g", cfg.Frequency)
	}
	if cfg.Amplitude <= 0 {
		return fmt.Errorf("mosaic: animation amplitude must be > 0, got %g", cfg.Amplitude)
	}
	if cfg.HoldTime < 0 {
		return fmt.Errorf("mosaic: animation hold time must be >= 0, got %g", cfg.HoldTime)
	}

	a.cfg = cfg
	a.enabled = true
	a.noiseT = 0
	a.baseCols = a.grid.columnWeights()
	a.baseRows = a.grid.rowWeights()

	if cfg.Mode == AnimPulse {
		w, h := a.grid.container()
		a.phase = PulseTransitioning
		a.progress = 0
		a.elapsed = 0
		a.holdElapsed = 0
		a.startCols = append([]float64(nil), a.baseCols...)
		a.startRows = append([]float64(nil), a.baseRows...)
		a.targetCols = a.nextTargets(a.startCols, a.baseCols, w)
		a.targetRows = a.nextTargets(a.startRows, a.baseRows, h)
	}

	Logger().Debug("mosaic: animation enabled",
		slog.String("mode", cfg.Mode.String()), slog.String("axis", cfg.Axis.String()))
	return nil
}

// Disable stops animating and restores the baseline weights on both axes.
func (a *Animator) Disable() {
	if !a.enabled {
		return
	}
	a.grid.setWeights(a.baseCols, a.baseRows)
	a.enabled = false
	Logger().Debug("mosaic: animation disabled")
}

// Enabled reports whether the animator is running.
func (a *Animator) Enabled() bool { return a.enabled }

// Phase returns the current pulse phase.
func (a *Animator) Phase() PulsePhase { return a.phase }

// Progress returns the current pulse transition progress in [0,1].
func (a *Animator) Progress() float64 { return a.progress }

// Step advances the animation by dt seconds and writes the resulting
// weights to the grid. The non-animated axis is re-held at its baseline
// every frame rather than left stale.
func (a *Animator) Step(dt float64) {
	if !a.enabled || dt <= 0 {
		return
	}
	switch a.cfg.Mode {
	case AnimNoise:
		a.stepNoise(dt)
	case AnimPulse:
		a.stepPulse(dt)
	}
}

// animateCols reports whether columns participate under the config axis.
func (a *Animator) animateCols() bool { return a.cfg.Axis == AxisX || a.cfg.Axis == AxisXY }

// animateRows reports whether rows participate under the config axis.
func (a *Animator) animateRows() bool { return a.cfg.Axis == AxisY || a.cfg.Axis == AxisXY }

func (a *Animator) stepNoise(dt float64) {
	a.noiseT += dt * a.cfg.Frequency
	w, h := a.grid.container()

	cols := append([]float64(nil), a.baseCols...)
	if a.animateCols() {
		cols = noiseWeights(a.baseCols, colPhaseStride, a.noiseT, a.cfg.Amplitude, w)
	}
	rows := append([]float64(nil), a.baseRows...)
	if a.animateRows() {
		rows = noiseWeights(a.baseRows, rowPhaseStride, a.noiseT, a.cfg.Amplitude, h)
	}
	a.grid.setWeights(cols, rows)
}

func (a *Animator) stepPulse(dt float64) {
	w, h := a.grid.container()

	switch a.phase {
	case PulseTransitioning:
		a.elapsed += dt
		a.progress = math.Min(a.elapsed*a.cfg.Frequency, 1)
		if a.progress >= 1 {
			// Snap exactly to the generated targets, then hold.
			a.progress = 1
			a.phase = PulseHolding
			a.holdElapsed = 0
			a.applyPulse(a.targetCols, a.targetRows)
			return
		}
		e := easeInOutCubic(a.progress)
		cols := lerpWeights(a.startCols, a.targetCols, e, w)
		rows := lerpWeights(a.startRows, a.targetRows, e, h)
		a.applyPulse(cols, rows)

	case PulseHolding:
		a.holdElapsed += dt
		a.applyPulse(a.targetCols, a.targetRows)
		if a.holdElapsed >= a.cfg.HoldTime {
			a.startCols = append([]float64(nil), a.targetCols...)
			a.startRows = append([]float64(nil), a.targetRows...)
			a.targetCols = a.nextTargets(a.startCols, a.baseCols, w)
			a.targetRows = a.nextTargets(a.startRows, a.baseRows, h)
			a.progress = 0
			a.elapsed = 0
			a.phase = PulseTransitioning
		}
	}
}

// applyPulse writes pulse weights to the grid, holding any non-animated
// axis at its baseline.
func (a *Animator) applyPulse(cols, rows []float64) {
	if !a.animateCols() {
		cols = a.baseCols
	}
	if !a.animateRows() {
		rows = a.baseRows
	}
	a.grid.setWeights(cols, rows)
}

// nextTargets generates pulse targets relative to the current weights:
// each target is the current weight plus a uniform signed offset bounded
// by ±1.5·amplitude·base, clamped into [0.2·base, 2.5·base] and then to
// the minimum-cell-size weight floor. Targets are fully clamped at
// generation time so the snap at progress 1 assigns them verbatim.
func (a *Animator) nextTargets(current, base []float64, extent float64) []float64 {
	floor := math.Max(weightFloor(weightSum(base), extent), minAnimWeight)
	out := make([]float64, len(current))
	for i, cur := range current {
		b := base[i]
		off := (a.rng.Float64()*2 - 1) * 1.5 * a.cfg.Amplitude * b
		t := clamp(cur+off, 0.2*b, 2.5*b)
		out[i] = math.Max(t, floor)
	}
	return out
}

// noiseValue is the 3-octave sine sum driving noise mode. Bounded to
// [-1, 1] (the octave amplitudes sum to 1).
func noiseValue(phase float64) float64 {
	return math.Sin(phase)*0.5 +
		math.Sin(2.1*phase+0.5)*0.3 +
		math.Sin(0.7*phase+1.2)*0.2
}

// noiseWeights modulates baseline weights by the noise field for one axis.
// The floor derives from the baseline weight total; the modulated total
// drifts from it, so a floored cell can sit marginally under the minimum
// pixel size when other weights grow. The strict invariant is enforced by
// the grid's resize path, not here.
func noiseWeights(base []float64, stride, t, amplitude, extent float64) []float64 {
	floor := math.Max(weightFloor(weightSum(base), extent), minAnimWeight)
	out := make([]float64, len(base))
	for i, b := range base {
		n := noiseValue(float64(i)*stride + t)
		out[i] = math.Max(b*(1+n*amplitude), floor)
	}
	return out
}

// lerpWeights interpolates between start and target, clamped to the
// weight floor derived from the current container extent. Endpoints are
// pre-clamped, so the floor only bites if the container shrank
// mid-transition.
func lerpWeights(start, target []float64, t, extent float64) []float64 {
	out := make([]float64, len(start))
	floor := math.Max(weightFloor(weightSum(start), extent), minAnimWeight)
	for i := range start {
		out[i] = math.Max(lerp(start[i], target[i], t), floor)
	}
	return out
}
