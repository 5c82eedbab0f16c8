package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/microfix/internal/ctxlog"
	"github.com/specialistvlad/microfix/internal/pipeline"
)

// Run builds a pipeline from the loaded model, enqueues the configured batch
// followed by the directives given on the command line, and runs it once.
func (a *App) Run(ctx context.Context) (*pipeline.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	p, err := a.newPipeline()
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	for _, text := range append(append([]string(nil), a.model.Directives...), a.config.Directives...) {
		if err := p.Enqueue(text); err != nil {
			return nil, fmt.Errorf("failed to enqueue directive: %w", err)
		}
	}

	mode := pipeline.Sequential
	if a.config.Parallel {
		mode = pipeline.Parallel
	}

	a.logger.Info("🚀 Starting directive execution...", "directives", p.Len(), "mode", mode.String())
	res, err := p.Run(ctx, mode)
	if err != nil {
		return res, fmt.Errorf("execution failed: %w", err)
	}

	switch res.Outcome {
	case pipeline.EmptyBatch:
		a.logger.Warn("No directives found, execution not required.", "run_id", res.RunID)
	default:
		a.logger.Info("🏁 Execution finished.",
			"run_id", res.RunID,
			"lines", len(res.Lines),
			"factor", fmt.Sprintf("%.2f", res.Factor),
			"auto_fixed", res.AutoFixed,
			"discarded_diagnostics", res.DiscardedDiagnostics,
		)
	}

	a.logger.Debug("App.Run method finished.")
	return res, nil
}

// newPipeline translates the config model into pipeline options.
func (a *App) newPipeline() (*pipeline.Pipeline, error) {
	rules := make([]pipeline.FaultRule, 0, len(a.model.Rules))
	for _, r := range a.model.Rules {
		rules = append(rules, pipeline.FaultRule{
			Marker:     r.Marker,
			Tag:        r.Tag,
			Factor:     r.Factor,
			Diagnostic: r.Diagnostic,
		})
	}

	workers := a.model.Pipeline.Workers
	if a.config.Workers > 0 {
		workers = a.config.Workers
	}

	return pipeline.New(a.outW,
		pipeline.WithRules(rules...),
		pipeline.WithTransformTag(a.model.Pipeline.TransformTag),
		pipeline.WithInitialFactor(a.model.Pipeline.InitialFactor),
		pipeline.WithWorkers(workers),
	)
}
