package pipeline

import (
	"context"
	"fmt"

	"github.com/specialistvlad/microfix/internal/ctxlog"
	"github.com/specialistvlad/microfix/internal/directive"
	"golang.org/x/sync/errgroup"
)

// FormatLine renders the execution line for a directive.
func FormatLine(d directive.Directive, factor float64) string {
	return fmt.Sprintf("Executing: %s [Factor: %.2f]", d.String(), factor)
}

// executionLog collects emitted lines. It is only touched while emitMu is
// held.
type executionLog struct {
	lines []string
}

// emit writes one line under the emission lock and records it.
func (p *Pipeline) emit(log *executionLog, line string) error {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	if _, err := fmt.Fprintln(p.out, line); err != nil {
		return err
	}
	log.lines = append(log.lines, line)
	return nil
}

func (p *Pipeline) executeSequential(ctx context.Context, st *runState) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	log := &executionLog{lines: make([]string, 0, len(st.batch))}
	for i, d := range st.batch {
		if err := p.emit(log, FormatLine(d, st.factor)); err != nil {
			return log.lines, fmt.Errorf("directive %d: %w", i, err)
		}
		logger.Debug("Directive executed.", "index", i)
	}
	return log.lines, nil
}

// executeParallel spawns one task per directive. Tasks only contend on the
// emission lock.
func (p *Pipeline) executeParallel(ctx context.Context, st *runState) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	log := &executionLog{lines: make([]string, 0, len(st.batch))}
	factor := st.factor

	var g errgroup.Group
	if p.workers > 0 {
		g.SetLimit(p.workers)
	}
	logger.Debug("Dispatching execution tasks.", "tasks", len(st.batch), "workers", p.workers)
	for i, d := range st.batch {
		g.Go(func() error {
			if err := p.emit(log, FormatLine(d, factor)); err != nil {
				return fmt.Errorf("directive %d: %w", i, err)
			}
			logger.Debug("Directive executed.", "index", i)
			return nil
		})
	}
	err := g.Wait()

	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	return log.lines, err
}
