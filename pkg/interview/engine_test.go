package interview

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/arcflow-dev/bellwether/pkg/discovery"
	"github.com/arcflow-dev/bellwether/pkg/testgen"
)

type fakeCallSession struct {
	response    json.RawMessage
	err         error
	delay       time.Duration
	concurrency int32
	maxSeen     int32
}

func (f *fakeCallSession) Call(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error) {
	cur := atomic.AddInt32(&f.concurrency, 1)
	defer atomic.AddInt32(&f.concurrency, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, cur) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeCallSession) Disconnect() error { return nil }

func weatherTool() discovery.ToolDescriptor {
	return discovery.ToolDescriptor{
		Name:        "get_weather",
		Description: "fetch weather",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`),
	}
}

func TestInterviewProducesSamplesAndFingerprint(t *testing.T) {
	defer goleak.VerifyNone(t)

	session := &fakeCallSession{response: json.RawMessage(`{"temp":72,"unit":"F"}`)}
	disc := &discovery.Result{Tools: []discovery.ToolDescriptor{weatherTool()}}

	opts := DefaultOptions()
	progress := make(chan Progress, 16)
	engine := New(opts, nil, progress)

	result, err := engine.Interview(context.Background(), session, disc)
	require.NoError(t, err)
	require.Len(t, result.Tools, 1)
	tr := result.Tools[0]
	require.False(t, tr.Failed)
	require.NotEmpty(t, tr.Samples)
	require.Equal(t, "object", tr.Fingerprint.Response.ContentType)
	require.False(t, result.Partial)
}

func TestInterviewSerializesNonIdempotentTool(t *testing.T) {
	defer goleak.VerifyNone(t)

	session := &fakeCallSession{response: json.RawMessage(`{"ok":true}`), delay: 10 * time.Millisecond}
	notIdempotent := false
	tool := weatherTool()
	tool.IdempotentHint = &notIdempotent
	disc := &discovery.Result{Tools: []discovery.ToolDescriptor{tool}}

	opts := DefaultOptions()
	opts.MaxParallelPerTool = 8
	opts.TestgenOptions = testgen.Options{MinTestsPerTool: 5, MaxTestsPerTool: 10}
	engine := New(opts, nil, nil)

	_, err := engine.Interview(context.Background(), session, disc)
	require.NoError(t, err)
	require.LessOrEqual(t, atomic.LoadInt32(&session.maxSeen), int32(1))
}

func TestInterviewParallelizesIdempotentTool(t *testing.T) {
	defer goleak.VerifyNone(t)

	session := &fakeCallSession{response: json.RawMessage(`{"ok":true}`), delay: 20 * time.Millisecond}
	disc := &discovery.Result{Tools: []discovery.ToolDescriptor{weatherTool()}}

	opts := DefaultOptions()
	opts.MaxParallelPerTool = 4
	opts.TestgenOptions = testgen.Options{MinTestsPerTool: 8, MaxTestsPerTool: 12}
	engine := New(opts, nil, nil)

	_, err := engine.Interview(context.Background(), session, disc)
	require.NoError(t, err)
	require.Greater(t, atomic.LoadInt32(&session.maxSeen), int32(1))
}

func TestInterviewFlagsPartialOnToolDeadline(t *testing.T) {
	defer goleak.VerifyNone(t)

	session := &fakeCallSession{response: json.RawMessage(`{"ok":true}`), delay: 50 * time.Millisecond}
	disc := &discovery.Result{Tools: []discovery.ToolDescriptor{weatherTool()}}

	opts := DefaultOptions()
	opts.MaxParallelPerTool = 1
	opts.PerToolDeadline = 60 * time.Millisecond
	opts.TestgenOptions = testgen.Options{MinTestsPerTool: 10, MaxTestsPerTool: 20}
	engine := New(opts, nil, nil)

	result, err := engine.Interview(context.Background(), session, disc)
	require.NoError(t, err)
	require.True(t, result.Tools[0].Partial || result.Partial)
}

func TestInterviewSkipsMalformedSchema(t *testing.T) {
	defer goleak.VerifyNone(t)

	session := &fakeCallSession{response: json.RawMessage(`{}`)}
	tool := weatherTool()
	tool.InputSchema = json.RawMessage(`not-json`)
	disc := &discovery.Result{Tools: []discovery.ToolDescriptor{tool}}

	engine := New(DefaultOptions(), nil, nil)
	result, err := engine.Interview(context.Background(), session, disc)
	require.NoError(t, err)
	require.True(t, result.Tools[0].Failed)
	require.True(t, result.Partial)
}
