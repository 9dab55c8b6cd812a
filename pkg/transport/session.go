// Package transport implements §4.A: launching a target tool server as a
// stdio subprocess or connecting to it over streaming HTTP, framing
// JSON-RPC 2.0 requests/responses, enforcing per-call timeouts, and
// surfacing connection lifecycle as typed errors from pkg/errs.
package transport

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arcflow-dev/bellwether/pkg/errs"
	"go.uber.org/zap"
)

// Session is the contract every transport (stdio, remote HTTP) satisfies.
// Concurrent Call invocations are safe; responses are matched to requests
// by a monotonically increasing id, and a call whose deadline elapses
// abandons its waiter so a later, slow response is discarded rather than
// delivered to the wrong caller.
type Session interface {
	// Call invokes method with params and blocks until a matching response
	// arrives or timeout elapses. A zero timeout means "use the session's
	// default".
	Call(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error)
	// Disconnect tears down the underlying connection/process. On the stdio
	// transport, outstanding calls are aborted with a TransportError in
	// PhaseClosed; the remote transport's Disconnect does nothing, and its
	// in-flight HTTP calls run until their own timeout.
	Disconnect() error
}

// pendingCall is the waiter a Call registers while awaiting its response.
type pendingCall struct {
	resultCh chan Frame
	abandoned atomic.Bool
}

// router is the plumbing the stdio transport uses to match responses to
// requests by id; the remote transport pairs each HTTP response with its
// request directly and keeps its own id counter. The only critical
// section that spans a suspension point is this map, per spec.md §5.
type router struct {
	mu      sync.Mutex
	nextID  int64
	pending map[int64]*pendingCall
}

func newRouter() *router {
	return &router{pending: make(map[int64]*pendingCall)}
}

func (r *router) register() (int64, *pendingCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	call := &pendingCall{resultCh: make(chan Frame, 1)}
	r.pending[id] = call
	return id, call
}

func (r *router) abandon(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if call, ok := r.pending[id]; ok {
		call.abandoned.Store(true)
		delete(r.pending, id)
	}
}

// deliver routes an incoming response frame to its waiter, if any is still
// live. Responses for abandoned or unknown ids are silently dropped.
func (r *router) deliver(f Frame) {
	r.mu.Lock()
	call, ok := r.pending[f.ID]
	if ok {
		delete(r.pending, f.ID)
	}
	r.mu.Unlock()
	if !ok || call.abandoned.Load() {
		return
	}
	call.resultCh <- f
}

// abortAll delivers a synthetic protocol-closed error to every pending
// call, used when the underlying connection dies mid-request.
func (r *router) abortAll(cause error) {
	r.mu.Lock()
	pending := r.pending
	r.pending = make(map[int64]*pendingCall)
	r.mu.Unlock()
	for _, call := range pending {
		if call.abandoned.Load() {
			continue
		}
		call.resultCh <- Frame{Error: &RPCError{Code: -1, Message: cause.Error()}}
	}
}

func waitForResult(ctx context.Context, r *router, id int64, call *pendingCall, timeout time.Duration, method string, logger *zap.Logger) (json.RawMessage, error) {
	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		timeoutCh = timer.C
		defer timer.Stop()
	}

	select {
	case f := <-call.resultCh:
		if f.Error != nil {
			phase := errs.PhaseProtocol
			if f.ID == 0 {
				// Only abortAll delivers an id-less frame: the connection closed.
				phase = errs.PhaseClosed
			}
			return nil, errs.NewTransportError(phase, method, f.Error)
		}
		return f.Result, nil
	case <-timeoutCh:
		r.abandon(id)
		logger.Warn("call timed out", zap.String("method", method), zap.Duration("timeout", timeout))
		return nil, errs.NewTransportError(errs.PhaseTimeout, method, context.DeadlineExceeded)
	case <-ctx.Done():
		r.abandon(id)
		return nil, errs.NewTransportError(errs.PhaseTimeout, method, ctx.Err())
	}
}
