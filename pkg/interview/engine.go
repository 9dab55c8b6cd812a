package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/arcflow-dev/bellwether/pkg/discovery"
	"github.com/arcflow-dev/bellwether/pkg/errs"
	"github.com/arcflow-dev/bellwether/pkg/fingerprint"
	"github.com/arcflow-dev/bellwether/pkg/testgen"
	"github.com/arcflow-dev/bellwether/pkg/transport"
)

// Engine runs a discovered tool surface through the generation and
// sampling pipeline.
type Engine struct {
	opts     Options
	logger   *zap.Logger
	progress chan<- Progress
}

// New constructs an Engine. progress may be nil; sends are always
// non-blocking regardless.
func New(opts Options, logger *zap.Logger, progress chan<- Progress) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts, logger: logger, progress: progress}
}

func (e *Engine) emit(p Progress) {
	if e.progress == nil {
		return
	}
	select {
	case e.progress <- p:
	default:
	}
}

// toolCallParams is the JSON-RPC tools/call request body.
type toolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Interview runs the full §4.F lifecycle over a discovery result and
// returns the aggregated per-tool results. session is the live transport
// connection; disc is the already-completed capability discovery.
func (e *Engine) Interview(ctx context.Context, session transport.Session, disc *discovery.Result) (*Result, error) {
	e.emit(Progress{Phase: PhaseStarting, Message: fmt.Sprintf("interviewing %d tools", len(disc.Tools))})

	globalCtx := ctx
	var cancel context.CancelFunc
	if e.opts.GlobalDeadline > 0 {
		globalCtx, cancel = context.WithTimeout(ctx, e.opts.GlobalDeadline)
		defer cancel()
	}

	result := &Result{Discovery: disc}
	toolSem := semaphore.NewWeighted(int64(maxInt(e.opts.MaxParallelTools, 1)))
	resultsCh := make(chan ToolResult, len(disc.Tools))

	e.emit(Progress{Phase: PhaseInterviewing})

	group, groupCtx := errgroup.WithContext(globalCtx)
	for _, tool := range disc.Tools {
		tool := tool
		if err := toolSem.Acquire(groupCtx, 1); err != nil {
			// Global deadline hit before this tool could even start;
			// record it as a partial, unexecuted result rather than
			// losing it silently.
			resultsCh <- ToolResult{Tool: tool, Partial: true, FailureReason: "global deadline exceeded before start"}
			continue
		}
		group.Go(func() (err error) {
			defer toolSem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("panic interviewing tool", zap.String("tool", tool.Name), zap.Any("recover", r))
					resultsCh <- ToolResult{Tool: tool, Failed: true, FailureReason: fmt.Sprintf("panic: %v", r)}
				}
			}()
			resultsCh <- e.interviewTool(groupCtx, session, tool)
			return nil
		})
	}

	// errgroup.Wait always returns nil here (tool bodies never return
	// non-nil); the real signal is groupCtx.Err() once every tool
	// goroutine has finished.
	_ = group.Wait()
	close(resultsCh)

	for tr := range resultsCh {
		result.Tools = append(result.Tools, tr)
		if tr.Partial || tr.Failed {
			result.Partial = true
		}
	}

	if globalCtx.Err() != nil {
		result.Partial = true
		result.Warnings = append(result.Warnings, "interview aborted by global deadline; baseline is partial")
	}

	e.emit(Progress{Phase: PhaseSynthesizing})
	e.emit(Progress{Phase: PhaseComplete})

	return result, nil
}

func (e *Engine) interviewTool(ctx context.Context, session transport.Session, tool discovery.ToolDescriptor) ToolResult {
	toolCtx := ctx
	var cancel context.CancelFunc
	if e.opts.PerToolDeadline > 0 {
		toolCtx, cancel = context.WithTimeout(ctx, e.opts.PerToolDeadline)
		defer cancel()
	}

	schema, err := testgen.ParseSchema(tool.InputSchema)
	var cases []testgen.TestCase
	if err != nil {
		e.logger.Warn("malformed input schema, skipping generation", zap.String("tool", tool.Name), zap.Error(err))
		return ToolResult{Tool: tool, Failed: true, FailureReason: errs.NewSchemaError(tool.Name, err).Error()}
	}

	cases, err = e.generateWithFallback(tool, schema)
	if err != nil {
		return ToolResult{Tool: tool, Failed: true, FailureReason: err.Error()}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        tool.Name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	serialize := tool.IdempotentHint != nil && !*tool.IdempotentHint
	aligned := e.runCases(toolCtx, session, tool, cases, breaker, serialize)

	samples := make([]fingerprint.Sample, 0, len(aligned))
	for _, s := range aligned {
		if s != nil {
			samples = append(samples, *s)
		}
	}

	partial := toolCtx.Err() != nil && len(samples) < len(cases)

	passRates := assessPassRates(cases, aligned, e.opts.Personas)

	tf, newHistory := fingerprint.ComputeToolFingerprint(samples, nil, e.opts.SchemaEvolutionCap, observedAtNow())

	return ToolResult{
		Tool:             tool,
		Samples:          samples,
		Fingerprint:      tf,
		SchemaHistory:    newHistory,
		PersonaPassRates: passRates,
		Partial:          partial,
	}
}

// generateWithFallback runs §4.C generation and, on a GenerationError,
// falls back to two minimal cases per §7: happy-path and missing-required.
func (e *Engine) generateWithFallback(tool discovery.ToolDescriptor, schema *testgen.Schema) (cases []testgen.TestCase, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("generation panicked, falling back to minimal cases", zap.String("tool", tool.Name), zap.Any("recover", r))
			cases, err = minimalFallbackCases(schema), nil
		}
	}()
	cases, genErr := testgen.Generate(tool.Name, schema, e.opts.TestgenOptions)
	if genErr != nil {
		fallback := minimalFallbackCases(schema)
		if len(fallback) == 0 {
			return nil, errs.NewGenerationError(tool.Name, genErr)
		}
		return fallback, nil
	}
	return cases, nil
}

func minimalFallbackCases(schema *testgen.Schema) []testgen.TestCase {
	if schema == nil {
		return nil
	}
	cases := []testgen.TestCase{
		{Description: "happy path fallback", Category: testgen.CategoryHappyPath, Args: map[string]interface{}{}, ExpectedOutcome: testgen.OutcomeSuccess},
	}
	if len(schema.Required) > 0 {
		cases = append(cases, testgen.TestCase{
			Description:     "missing required fallback",
			Category:        testgen.CategoryErrorHandling,
			Args:            map[string]interface{}{},
			ExpectedOutcome: testgen.OutcomeError,
		})
	}
	return cases
}

// runCases executes the generated test battery through a bounded
// per-tool worker pool, serialized when the tool is annotated
// idempotentHint=false.
// runCases executes cases through the bounded pool and returns a slice
// aligned with cases by index (nil where acquiring a worker slot failed,
// e.g. the tool deadline firing mid-batch), so callers can zip a case
// with its sample without the nondeterministic reordering that collecting
// results off a channel would introduce.
func (e *Engine) runCases(ctx context.Context, session transport.Session, tool discovery.ToolDescriptor, cases []testgen.TestCase, breaker *gobreaker.CircuitBreaker, serialize bool) []*fingerprint.Sample {
	width := maxInt(e.opts.MaxParallelPerTool, 1)
	if serialize {
		width = 1
	}
	sem := semaphore.NewWeighted(int64(width))

	samples := make([]*fingerprint.Sample, len(cases))

	var group errgroup.Group
	for i, tc := range cases {
		i, tc := i, tc
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer sem.Release(1)
			s := e.runOne(ctx, session, tool, tc, breaker)
			samples[i] = &s
			return nil
		})
	}
	_ = group.Wait()
	return samples
}

func (e *Engine) runOne(ctx context.Context, session transport.Session, tool discovery.ToolDescriptor, tc testgen.TestCase, breaker *gobreaker.CircuitBreaker) fingerprint.Sample {
	params := toolCallParams{Name: tool.Name, Arguments: tc.Args}
	start := time.Now()

	raw, err := breaker.Execute(func() (interface{}, error) {
		return session.Call(ctx, "tools/call", params, e.opts.PerCallTimeout)
	})
	duration := float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		return fingerprint.Sample{
			ToolName:     tool.Name,
			Args:         tc.Args,
			Outcome:      fingerprint.OutcomeError,
			DurationMs:   duration,
			ErrorMessage: err.Error(),
			ObservedAt:   observedAtNow(),
		}
	}

	return fingerprint.Sample{
		ToolName:        tool.Name,
		Args:            tc.Args,
		Outcome:         fingerprint.OutcomeSuccess,
		DurationMs:      duration,
		ResponseContent: raw.(json.RawMessage),
		ObservedAt:      observedAtNow(),
	}
}

// assessPassRates compares each sample's actual outcome to its case's
// expectedOutcome (either always passes), reported per persona for
// visibility but never gating baseline creation per §4.F. aligned is
// indexed by case position with nil entries for cases that never ran.
func assessPassRates(cases []testgen.TestCase, aligned []*fingerprint.Sample, personas []string) map[string]float64 {
	if len(personas) == 0 {
		personas = []string{"default"}
	}
	passed, ran := 0, 0
	for i, s := range aligned {
		if s == nil {
			continue
		}
		ran++
		want := cases[i].ExpectedOutcome
		if want == testgen.OutcomeEither || string(want) == string(s.Outcome) {
			passed++
		}
	}

	rate := 0.0
	if ran > 0 {
		rate = float64(passed) / float64(ran)
	}

	rates := make(map[string]float64, len(personas))
	for _, p := range personas {
		rates[p] = rate
	}
	return rates
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// observedAtNow stamps samples and schema-evolution entries with the wall
// clock time; fingerprint computation itself stays pure and never reads
// the clock directly.
func observedAtNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
