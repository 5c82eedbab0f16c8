package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/microfix/internal/ctxlog"
	"github.com/specialistvlad/microfix/internal/directive"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRules replaces the default fault rule. Rules are applied in order.
func WithRules(rules ...FaultRule) Option {
	return func(p *Pipeline) {
		p.rules = append([]FaultRule(nil), rules...)
	}
}

// WithTransformTag overrides the tag applied to every directive.
func WithTransformTag(tag string) Option {
	return func(p *Pipeline) {
		p.transformTag = tag
	}
}

// WithWorkers bounds the number of concurrent execution tasks in Parallel
// mode. Zero or less means one task per directive, all at once.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		p.workers = n
	}
}

// WithInitialFactor sets the starting accumulator value.
func WithInitialFactor(f float64) Option {
	return func(p *Pipeline) {
		p.factor = f
	}
}

// Pipeline is a thread-safe directive-batch execution pipeline.
type Pipeline struct {
	out          io.Writer
	rules        []FaultRule
	transformTag string
	workers      int

	// mu guards every field below it.
	mu          sync.Mutex
	running     bool
	batch       []directive.Directive
	factor      float64
	stable      bool
	diagnostics []string

	// emitMu serializes line emission during Execute.
	emitMu sync.Mutex
}

// New creates a pipeline that writes executed lines to out. A nil out
// discards the lines; they are still returned on the Result.
func New(out io.Writer, opts ...Option) (*Pipeline, error) {
	if out == nil {
		out = io.Discard
	}
	p := &Pipeline{
		out:          out,
		rules:        []FaultRule{DefaultRule},
		transformTag: DefaultTransformTag,
		factor:       1.0,
		stable:       true,
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, r := range p.rules {
		if err := r.validate(); err != nil {
			return nil, err
		}
	}
	if p.transformTag == "" {
		return nil, fmt.Errorf("transform tag must not be empty")
	}
	if !(p.factor > 0) {
		return nil, fmt.Errorf("initial factor must be positive, got %v", p.factor)
	}
	return p, nil
}

// Enqueue appends a new untagged directive to the batch.
func (p *Pipeline) Enqueue(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrPipelineBusy
	}
	p.batch = append(p.batch, directive.New(text))
	return nil
}

// Len returns the number of directives in the batch.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batch)
}

// Directives returns a snapshot of the batch as of the last committed run.
func (p *Pipeline) Directives() []directive.Directive {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]directive.Directive(nil), p.batch...)
}

// Factor returns the accumulator value.
func (p *Pipeline) Factor() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.factor
}

// Stable reports the stability flag.
func (p *Pipeline) Stable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stable
}

// Diagnostics returns the recorded diagnostics. After a completed run this
// is always empty.
func (p *Pipeline) Diagnostics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.diagnostics...)
}

// runState is the private copy of the pipeline state a run works on.
type runState struct {
	batch       []directive.Directive
	factor      float64
	stable      bool
	diagnostics []string
}

// begin marks the pipeline as running and hands out a private copy of its
// state.
func (p *Pipeline) begin() (*runState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil, ErrPipelineBusy
	}
	p.running = true
	return &runState{
		batch:       append([]directive.Directive(nil), p.batch...),
		factor:      p.factor,
		stable:      p.stable,
		diagnostics: append([]string(nil), p.diagnostics...),
	}, nil
}

// commit publishes the run's state and releases the re-entrancy guard.
func (p *Pipeline) commit(st *runState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batch = st.batch
	p.factor = st.factor
	p.stable = st.stable
	p.diagnostics = st.diagnostics
	p.running = false
}

// Run classifies, transforms, stabilizes and executes the batch. The context
// only carries the logger; a run that has started always runs to completion.
func (p *Pipeline) Run(ctx context.Context, mode Mode) (*Result, error) {
	st, err := p.begin()
	if err != nil {
		return nil, err
	}
	defer p.commit(st)

	runID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("run_id", runID, "mode", mode.String())
	ctx = ctxlog.WithLogger(ctx, logger)

	res := &Result{RunID: runID, Mode: mode}

	if len(st.batch) == 0 {
		logger.Info("Batch is empty, nothing to execute.")
		res.Outcome = EmptyBatch
		res.Factor = st.factor
		return res, nil
	}

	logger.Debug("Run started.", "directives", len(st.batch), "factor", st.factor)
	p.classify(ctx, st)
	p.transform(st)
	res.DiscardedDiagnostics, res.AutoFixed = p.stabilize(ctx, st)
	res.Factor = st.factor
	res.Outcome = Completed

	switch mode {
	case Parallel:
		res.Lines, err = p.executeParallel(ctx, st)
	default:
		res.Lines, err = p.executeSequential(ctx, st)
	}
	if err != nil {
		return res, fmt.Errorf("execute: %w", err)
	}

	logger.Debug("Run finished.", "lines", len(res.Lines), "factor", res.Factor)
	return res, nil
}
