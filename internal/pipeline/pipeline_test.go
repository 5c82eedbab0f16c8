package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/microfix/internal/pipeline"
	"github.com/specialistvlad/microfix/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// lineGrammar matches exactly one complete execution line.
var lineGrammar = regexp.MustCompile(`^Executing: [^\n]* \[Optimized\] \[Factor: \d+\.\d{2}\]$`)

func newPipeline(t *testing.T, out *testutil.SafeBuffer, opts ...pipeline.Option) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(out, opts...)
	require.NoError(t, err)
	return p
}

func enqueueAll(t *testing.T, p *pipeline.Pipeline, texts ...string) {
	t.Helper()
	for _, text := range texts {
		require.NoError(t, p.Enqueue(text))
	}
}

func TestRun_Example(t *testing.T) {
	out := &testutil.SafeBuffer{}
	p := newPipeline(t, out)
	enqueueAll(t, p, "init", "fault_risk_x", "go")

	res, err := p.Run(context.Background(), pipeline.Sequential)
	require.NoError(t, err)

	assert.Equal(t, pipeline.Completed, res.Outcome)
	assert.InDelta(t, 1.2, res.Factor, 1e-9)
	assert.InDelta(t, 1.2, p.Factor(), 1e-9)

	want := []string{
		"Executing: init [Optimized] [Factor: 1.20]",
		"Executing: fault_risk_x [Auto-Fixed] [Optimized] [Factor: 1.20]",
		"Executing: go [Optimized] [Factor: 1.20]",
	}
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Errorf("result lines mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, out.Lines()); diff != "" {
		t.Errorf("written lines mismatch (-want +got):\n%s", diff)
	}

	fixed := 0
	for _, line := range res.Lines {
		if strings.Contains(line, "[Auto-Fixed]") {
			fixed++
		}
	}
	assert.Equal(t, 1, fixed)
	assert.NotEmpty(t, res.RunID)
}

func TestRun_EmptyBatch(t *testing.T) {
	for _, mode := range []pipeline.Mode{pipeline.Sequential, pipeline.Parallel} {
		t.Run(mode.String(), func(t *testing.T) {
			out := &testutil.SafeBuffer{}
			p := newPipeline(t, out, pipeline.WithInitialFactor(1.5))

			res, err := p.Run(context.Background(), mode)
			require.NoError(t, err)

			assert.Equal(t, pipeline.EmptyBatch, res.Outcome)
			assert.Empty(t, res.Lines)
			assert.Empty(t, out.String())
			assert.Equal(t, 1.5, res.Factor)
			assert.Equal(t, 1.5, p.Factor())
			assert.False(t, res.AutoFixed)
		})
	}
}

func TestRun_OneLinePerDirective(t *testing.T) {
	for _, mode := range []pipeline.Mode{pipeline.Sequential, pipeline.Parallel} {
		for _, size := range []int{1, 2, 7, 64} {
			t.Run(fmt.Sprintf("%s/%d", mode, size), func(t *testing.T) {
				out := &testutil.SafeBuffer{}
				p := newPipeline(t, out)
				for i := 0; i < size; i++ {
					require.NoError(t, p.Enqueue(fmt.Sprintf("directive-%d", i)))
				}

				res, err := p.Run(context.Background(), mode)
				require.NoError(t, err)
				assert.Len(t, res.Lines, size)
				assert.Len(t, out.Lines(), size)
			})
		}
	}
}

func TestRun_AccumulatorIsFactorToTheMatchCount(t *testing.T) {
	tests := []struct {
		name    string
		texts   []string
		matches int
	}{
		{name: "no matches", texts: []string{"a", "b"}, matches: 0},
		{name: "one match", texts: []string{"a", "fault_risk"}, matches: 1},
		{name: "all match", texts: []string{"fault_risk_1", "fault_risk_2", "x fault_risk"}, matches: 3},
		{name: "interleaved", texts: []string{"fault_risk", "a", "fault_risk", "b", "fault_risk"}, matches: 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newPipeline(t, &testutil.SafeBuffer{})
			enqueueAll(t, p, tc.texts...)

			res, err := p.Run(context.Background(), pipeline.Sequential)
			require.NoError(t, err)
			assert.InDelta(t, math.Pow(1.2, float64(tc.matches)), res.Factor, 1e-9)
		})
	}
}

func TestRun_MultipleRules(t *testing.T) {
	out := &testutil.SafeBuffer{}
	p := newPipeline(t, out, pipeline.WithRules(
		pipeline.FaultRule{Marker: "latency_risk", Tag: "[Speed Optimized]", Factor: 1.25},
		pipeline.FaultRule{Marker: "performance_risk", Tag: "[Self-Optimized]", Factor: 1.5},
	))
	enqueueAll(t, p, "latency_risk", "performance_risk latency_risk", "fault_risk")

	res, err := p.Run(context.Background(), pipeline.Sequential)
	require.NoError(t, err)

	assert.InDelta(t, 1.25*1.25*1.5, res.Factor, 1e-9)
	want := []string{
		"Executing: latency_risk [Speed Optimized] [Optimized] [Factor: 2.34]",
		"Executing: performance_risk latency_risk [Speed Optimized] [Self-Optimized] [Optimized] [Factor: 2.34]",
		"Executing: fault_risk [Optimized] [Factor: 2.34]",
	}
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_SecondRunTagsAgain(t *testing.T) {
	p := newPipeline(t, &testutil.SafeBuffer{})
	enqueueAll(t, p, "fault_risk", "plain")

	_, err := p.Run(context.Background(), pipeline.Sequential)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), pipeline.Sequential)
	require.NoError(t, err)

	ds := p.Directives()
	require.Len(t, ds, 2)
	assert.Equal(t, []string{"[Auto-Fixed]", "[Optimized]", "[Auto-Fixed]", "[Optimized]"}, ds[0].Tags())
	assert.Equal(t, []string{"[Optimized]", "[Optimized]"}, ds[1].Tags())
	assert.InDelta(t, 1.2*1.2, res.Factor, 1e-9)
	assert.Equal(t, "Executing: plain [Optimized] [Optimized] [Factor: 1.44]", res.Lines[1])
}

func TestRun_SequentialPreservesEnqueueOrder(t *testing.T) {
	for _, size := range []int{0, 1, 2, 10, 1000} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			out := &testutil.SafeBuffer{}
			p := newPipeline(t, out)
			want := make([]string, 0, size)
			for i := 0; i < size; i++ {
				text := fmt.Sprintf("directive-%04d", i)
				require.NoError(t, p.Enqueue(text))
				want = append(want, fmt.Sprintf("Executing: %s [Optimized] [Factor: 1.00]", text))
			}

			res, err := p.Run(context.Background(), pipeline.Sequential)
			require.NoError(t, err)

			if size == 0 {
				assert.Empty(t, res.Lines)
				return
			}
			if diff := cmp.Diff(want, res.Lines); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(want, out.Lines()); diff != "" {
				t.Errorf("written order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun_ParallelLinesAreAtomic(t *testing.T) {
	for _, workers := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			const n = 256
			out := &testutil.SafeBuffer{}
			p := newPipeline(t, out, pipeline.WithWorkers(workers))

			want := make([]string, 0, n)
			for i := 0; i < n; i++ {
				text := fmt.Sprintf("task %d with a somewhat longer payload to widen the write", i)
				if i%3 == 0 {
					text += " fault_risk"
				}
				require.NoError(t, p.Enqueue(text))
			}

			res, err := p.Run(context.Background(), pipeline.Parallel)
			require.NoError(t, err)

			factor := res.Factor
			assert.InEpsilon(t, math.Pow(1.2, float64((n+2)/3)), factor, 1e-9)
			for i := 0; i < n; i++ {
				tags := " [Optimized]"
				text := fmt.Sprintf("task %d with a somewhat longer payload to widen the write", i)
				if i%3 == 0 {
					text += " fault_risk"
					tags = " [Auto-Fixed]" + tags
				}
				want = append(want, fmt.Sprintf("Executing: %s%s [Factor: %.2f]", text, tags, factor))
			}

			written := out.Lines()
			require.Len(t, written, n)
			for _, line := range written {
				assert.Regexp(t, lineGrammar, line)
			}
			// Order is unspecified in parallel mode; only the multiset is fixed.
			assert.ElementsMatch(t, want, written)
			assert.ElementsMatch(t, want, res.Lines)
		})
	}
}

func TestRun_FaultsNeverFailTheRun(t *testing.T) {
	out := &testutil.SafeBuffer{}
	p := newPipeline(t, out, pipeline.WithRules(
		pipeline.FaultRule{Marker: "invalid", Tag: "[Auto-Fixed]", Factor: 1.1, Diagnostic: "Directive Error Detected"},
	))
	enqueueAll(t, p, "Initialize Framework", "invalid_syntax", "invalid_token", "Activate Logic-Driven Mode")

	res, err := p.Run(context.Background(), pipeline.Sequential)
	require.NoError(t, err)

	assert.Equal(t, pipeline.Completed, res.Outcome)
	assert.True(t, res.AutoFixed)
	assert.Equal(t, 2, res.DiscardedDiagnostics)
	assert.True(t, p.Stable())
	assert.Empty(t, p.Diagnostics())
	assert.Len(t, res.Lines, 4)
	assert.InDelta(t, 1.1*1.1, res.Factor, 1e-9)
}

func TestRun_StableBatchIsNotAutoFixed(t *testing.T) {
	p := newPipeline(t, &testutil.SafeBuffer{})
	enqueueAll(t, p, "fault_risk")

	res, err := p.Run(context.Background(), pipeline.Sequential)
	require.NoError(t, err)
	assert.False(t, res.AutoFixed)
	assert.Zero(t, res.DiscardedDiagnostics)
	assert.True(t, p.Stable())
}

func TestRun_BusyWhileRunning(t *testing.T) {
	w := testutil.NewBlockingWriter()
	defer w.Release()

	p, err := pipeline.New(w)
	require.NoError(t, err)
	enqueueAll(t, p, "fault_risk", "b")

	type runResult struct {
		res *pipeline.Result
		err error
	}
	done := make(chan runResult, 1)
	go func() {
		res, err := p.Run(context.Background(), pipeline.Sequential)
		done <- runResult{res, err}
	}()
	<-w.Entered

	_, err = p.Run(context.Background(), pipeline.Parallel)
	assert.ErrorIs(t, err, pipeline.ErrPipelineBusy)
	assert.ErrorIs(t, p.Enqueue("late"), pipeline.ErrPipelineBusy)

	// The in-flight run works on a private copy.
	assert.Equal(t, 1.0, p.Factor())
	assert.Empty(t, p.Directives()[0].Tags())

	w.Release()
	got := <-done
	require.NoError(t, got.err)
	assert.Len(t, got.res.Lines, 2)
	assert.InDelta(t, 1.2, p.Factor(), 1e-9)
	assert.Equal(t, 2, p.Len())

	// The guard is released once the run commits.
	require.NoError(t, p.Enqueue("after"))
	assert.Equal(t, 3, p.Len())
}

func TestRun_IndependentPipelinesDoNotContend(t *testing.T) {
	w := testutil.NewBlockingWriter()
	defer w.Release()

	blocked, err := pipeline.New(w)
	require.NoError(t, err)
	require.NoError(t, blocked.Enqueue("a"))

	done := make(chan error, 1)
	go func() {
		_, err := blocked.Run(context.Background(), pipeline.Parallel)
		done <- err
	}()
	<-w.Entered

	other := newPipeline(t, &testutil.SafeBuffer{})
	enqueueAll(t, other, "x", "y", "z")
	res, err := other.Run(context.Background(), pipeline.Parallel)
	require.NoError(t, err)
	assert.Len(t, res.Lines, 3)

	w.Release()
	require.NoError(t, <-done)
}

func TestRun_WriteFailure(t *testing.T) {
	for _, mode := range []pipeline.Mode{pipeline.Sequential, pipeline.Parallel} {
		t.Run(mode.String(), func(t *testing.T) {
			p, err := pipeline.New(&testutil.FailingWriter{OK: 1})
			require.NoError(t, err)
			enqueueAll(t, p, "a", "fault_risk", "c")

			res, err := p.Run(context.Background(), mode)
			require.Error(t, err)
			assert.True(t, errors.Is(err, testutil.ErrWriteFailed))
			require.NotNil(t, res)
			assert.Len(t, res.Lines, 1)

			// Classification already happened and is committed.
			assert.InDelta(t, 1.2, p.Factor(), 1e-9)
			require.NoError(t, p.Enqueue("next"))
		})
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts []pipeline.Option
		rule bool
	}{
		{name: "empty marker", opts: []pipeline.Option{pipeline.WithRules(pipeline.FaultRule{Tag: "t", Factor: 1.2})}, rule: true},
		{name: "empty tag", opts: []pipeline.Option{pipeline.WithRules(pipeline.FaultRule{Marker: "m", Factor: 1.2})}, rule: true},
		{name: "factor of one", opts: []pipeline.Option{pipeline.WithRules(pipeline.FaultRule{Marker: "m", Tag: "t", Factor: 1})}, rule: true},
		{name: "shrinking factor", opts: []pipeline.Option{pipeline.WithRules(pipeline.FaultRule{Marker: "m", Tag: "t", Factor: 0.5})}, rule: true},
		{name: "NaN factor", opts: []pipeline.Option{pipeline.WithRules(pipeline.FaultRule{Marker: "m", Tag: "t", Factor: math.NaN()})}, rule: true},
		{name: "empty transform tag", opts: []pipeline.Option{pipeline.WithTransformTag("")}},
		{name: "zero initial factor", opts: []pipeline.Option{pipeline.WithInitialFactor(0)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pipeline.New(nil, tc.opts...)
			require.Error(t, err)
			assert.Equal(t, tc.rule, errors.Is(err, pipeline.ErrInvalidRule))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	p, err := pipeline.New(nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Factor())
	assert.True(t, p.Stable())
	assert.Zero(t, p.Len())

	require.NoError(t, p.Enqueue(""))
	res, err := p.Run(context.Background(), pipeline.Sequential)
	require.NoError(t, err)
	assert.Equal(t, []string{"Executing:  [Optimized] [Factor: 1.00]"}, res.Lines)
}

func TestRun_CustomTransformTag(t *testing.T) {
	p := newPipeline(t, &testutil.SafeBuffer{}, pipeline.WithTransformTag("[Tuned]"))
	enqueueAll(t, p, "a")

	res, err := p.Run(context.Background(), pipeline.Sequential)
	require.NoError(t, err)
	assert.Equal(t, []string{"Executing: a [Tuned] [Factor: 1.00]"}, res.Lines)
}
