package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrPipelineBusy is returned when Run or Enqueue is called while a run
	// is already in progress on the same pipeline.
	ErrPipelineBusy = errors.New("pipeline busy: a run is already in progress")

	// ErrInvalidRule is returned by New when a fault rule can not be used.
	ErrInvalidRule = errors.New("invalid fault rule")
)

// DefaultTransformTag is applied to every directive during Transform.
const DefaultTransformTag = "[Optimized]"

// DefaultRule is used when a pipeline is created without rules.
var DefaultRule = FaultRule{
	Marker: "fault_risk",
	Tag:    "[Auto-Fixed]",
	Factor: 1.2,
}

// Mode selects how the Execute stage dispatches directives.
type Mode int

const (
	// Sequential writes one line per directive, in batch order.
	Sequential Mode = iota
	// Parallel writes one line per directive from concurrent tasks. Lines
	// are atomic but unordered.
	Parallel
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Outcome is the terminal state of a run.
type Outcome int

const (
	// Completed means every directive in the batch was executed.
	Completed Outcome = iota
	// EmptyBatch means the pipeline had no directives. Nothing was executed
	// and the accumulator is unchanged.
	EmptyBatch
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case EmptyBatch:
		return "empty_batch"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// FaultRule describes one fault marker and what happens when a directive's
// text contains it.
type FaultRule struct {
	Marker string
	Tag    string
	// Factor multiplies the accumulator on every match. Must be > 1.
	Factor float64
	// Diagnostic, when set, is recorded on every match and marks the
	// pipeline unstable.
	Diagnostic string
}

// Destabilizes reports whether a match of this rule clears the stability flag.
func (r FaultRule) Destabilizes() bool {
	return r.Diagnostic != ""
}

func (r FaultRule) validate() error {
	if r.Marker == "" {
		return fmt.Errorf("%w: marker must not be empty", ErrInvalidRule)
	}
	if r.Tag == "" {
		return fmt.Errorf("%w: rule %q: tag must not be empty", ErrInvalidRule, r.Marker)
	}
	if !(r.Factor > 1) {
		return fmt.Errorf("%w: rule %q: factor must be greater than 1, got %v", ErrInvalidRule, r.Marker, r.Factor)
	}
	return nil
}

// Result describes a finished run.
type Result struct {
	RunID   string
	Mode    Mode
	Outcome Outcome
	// Lines holds the emitted lines in emission order. For Parallel runs
	// this order is unspecified.
	Lines []string
	// Factor is the accumulator value after the run.
	Factor float64
	// AutoFixed is true when Stabilize had to restore the stability flag.
	AutoFixed bool
	// DiscardedDiagnostics counts the diagnostics dropped by Stabilize.
	DiscardedDiagnostics int
}
