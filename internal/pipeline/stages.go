package pipeline

import (
	"context"

	"github.com/specialistvlad/microfix/internal/ctxlog"
)

// classify tags directives that match a fault rule and multiplies the
// accumulator once per match.
func (p *Pipeline) classify(ctx context.Context, st *runState) {
	logger := ctxlog.FromContext(ctx)
	for i, d := range st.batch {
		for _, r := range p.rules {
			if !d.Contains(r.Marker) {
				continue
			}
			d = d.WithTag(r.Tag)
			st.factor *= r.Factor
			if r.Destabilizes() {
				st.diagnostics = append(st.diagnostics, r.Diagnostic)
				st.stable = false
			}
			logger.Debug("Fault marker matched.", "index", i, "marker", r.Marker, "factor", st.factor)
		}
		st.batch[i] = d
	}
}

// transform applies the transform tag to every directive. Running it twice
// tags twice.
func (p *Pipeline) transform(st *runState) {
	for i, d := range st.batch {
		st.batch[i] = d.WithTag(p.transformTag)
	}
}

// stabilize restores the stability flag by dropping every diagnostic. The
// underlying faults are not resolved.
func (p *Pipeline) stabilize(ctx context.Context, st *runState) (discarded int, fixed bool) {
	if st.stable {
		return 0, false
	}
	discarded = len(st.diagnostics)
	ctxlog.FromContext(ctx).Warn("Errors detected, applying auto-fix.", "discarded_diagnostics", discarded)
	st.diagnostics = nil
	st.stable = true
	return discarded, true
}
