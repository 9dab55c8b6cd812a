package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/arcflow-dev/bellwether/pkg/errs"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// RemoteOptions configures a streaming-HTTP session. Falcon's own HTTP
// tool reaches for fasthttp for its request/response plumbing; bellwether
// reuses it here for the MCP streaming-HTTP client role (§4.A).
type RemoteOptions struct {
	DefaultTimeout time.Duration
	// SessionHeader, if set, is sent as a header on every request once a
	// server has returned a session id (e.g. "Mcp-Session-Id").
	SessionHeader string
	Logger        *zap.Logger
}

type remoteSession struct {
	url     string
	client  *fasthttp.Client
	opts    RemoteOptions
	logger  *zap.Logger

	mu        sync.Mutex
	nextID    int64
	sessionID string
}

// ConnectRemote connects to a target exposing JSON-RPC over streaming
// HTTP POST at url, with an optional session-id header threaded through
// subsequent requests once the server assigns one.
func ConnectRemote(url string, opts RemoteOptions) (Session, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultTimeout == 0 {
		opts.DefaultTimeout = 30 * time.Second
	}
	if opts.SessionHeader == "" {
		opts.SessionHeader = "Mcp-Session-Id"
	}
	return &remoteSession{
		url:    url,
		client: &fasthttp.Client{},
		opts:   opts,
		logger: opts.Logger,
	}, nil
}

func (s *remoteSession) Call(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error) {
	if timeout == 0 {
		timeout = s.opts.DefaultTimeout
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	sessionID := s.sessionID
	s.mu.Unlock()

	req, err := newRequest(id, method, params)
	if err != nil {
		return nil, errs.NewTransportError(errs.PhaseProtocol, method, err)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errs.NewTransportError(errs.PhaseProtocol, method, err)
	}

	httpReq := fasthttp.AcquireRequest()
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(httpReq)
	defer fasthttp.ReleaseResponse(httpResp)

	httpReq.SetRequestURI(s.url)
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	httpReq.Header.SetContentType("application/json")
	if sessionID != "" {
		httpReq.Header.Set(s.opts.SessionHeader, sessionID)
	}
	httpReq.SetBody(body)

	deadline, hasDeadline := ctx.Deadline()
	callTimeout := timeout
	if hasDeadline {
		if remaining := time.Until(deadline); remaining < callTimeout {
			callTimeout = remaining
		}
	}

	if err := s.client.DoTimeout(httpReq, httpResp, callTimeout); err != nil {
		if err == fasthttp.ErrTimeout {
			return nil, errs.NewTransportError(errs.PhaseTimeout, method, err)
		}
		return nil, errs.NewTransportError(errs.PhaseClosed, method, err)
	}

	if newSession := httpResp.Header.Peek(s.opts.SessionHeader); len(newSession) > 0 {
		s.mu.Lock()
		s.sessionID = string(newSession)
		s.mu.Unlock()
	}

	if httpResp.StatusCode() >= 500 {
		return nil, errs.NewTransportError(errs.PhaseProtocol, method, &RPCError{
			Code:    httpResp.StatusCode(),
			Message: string(httpResp.Body()),
		})
	}

	var f Frame
	if err := json.Unmarshal(httpResp.Body(), &f); err != nil {
		return nil, errs.NewTransportError(errs.PhaseProtocol, method, err)
	}
	if f.Error != nil {
		return nil, errs.NewTransportError(errs.PhaseProtocol, method, f.Error)
	}
	return f.Result, nil
}

func (s *remoteSession) Disconnect() error {
	return nil
}
