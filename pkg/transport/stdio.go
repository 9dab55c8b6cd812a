package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/arcflow-dev/bellwether/pkg/errs"
	"go.uber.org/zap"
)

// StdioOptions configures a subprocess-backed session.
type StdioOptions struct {
	// StartupGrace is waited out before the first call is allowed through,
	// giving the child process time to finish initializing stdio.
	StartupGrace time.Duration
	// DefaultTimeout is used when a Call passes a zero timeout.
	DefaultTimeout time.Duration
	Logger         *zap.Logger
}

type stdioSession struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	router *router
	logger *zap.Logger

	writeMu sync.Mutex
	defTO   time.Duration

	closedMu sync.Mutex
	closed   bool
}

// ConnectStdio launches cmd as a subprocess, writes newline-delimited
// JSON-RPC frames to its stdin, and routes responses read from its stdout
// by id. A TransportError in PhaseStartup is returned if the process exits
// before the startup grace window elapses.
func ConnectStdio(ctx context.Context, name string, args []string, env []string, opts StdioOptions) (Session, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultTimeout == 0 {
		opts.DefaultTimeout = 30 * time.Second
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = env
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errs.NewTransportError(errs.PhaseStartup, "", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errs.NewTransportError(errs.PhaseStartup, "", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errs.NewTransportError(errs.PhaseStartup, "", err)
	}

	s := &stdioSession{
		cmd:    cmd,
		stdin:  stdin,
		router: newRouter(),
		logger: opts.Logger,
		defTO:  opts.DefaultTimeout,
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	go s.readLoop(stdout, exited)

	if opts.StartupGrace > 0 {
		select {
		case err := <-exited:
			return nil, errs.NewTransportError(errs.PhaseStartup, "", err)
		case <-time.After(opts.StartupGrace):
		}
	}

	return s, nil
}

func (s *stdioSession) readLoop(stdout io.Reader, exited chan error) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(line, &f); err != nil {
			s.logger.Warn("malformed frame from child", zap.Error(err))
			continue
		}
		s.router.deliver(f)
	}
	cause := scanner.Err()
	if cause == nil {
		cause = <-exited
	}
	if cause == nil {
		cause = io.ErrClosedPipe
	}
	s.router.abortAll(errs.NewTransportError(errs.PhaseClosed, "", cause))
}

func (s *stdioSession) Call(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error) {
	s.closedMu.Lock()
	closed := s.closed
	s.closedMu.Unlock()
	if closed {
		return nil, errs.NewTransportError(errs.PhaseClosed, method, io.ErrClosedPipe)
	}

	if timeout == 0 {
		timeout = s.defTO
	}

	id, call := s.router.register()
	req, err := newRequest(id, method, params)
	if err != nil {
		s.router.abandon(id)
		return nil, errs.NewTransportError(errs.PhaseProtocol, method, err)
	}
	data, err := json.Marshal(req)
	if err != nil {
		s.router.abandon(id)
		return nil, errs.NewTransportError(errs.PhaseProtocol, method, err)
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	_, writeErr := s.stdin.Write(data)
	s.writeMu.Unlock()
	if writeErr != nil {
		s.router.abandon(id)
		return nil, errs.NewTransportError(errs.PhaseClosed, method, writeErr)
	}

	return waitForResult(ctx, s.router, id, call, timeout, method, s.logger)
}

func (s *stdioSession) Disconnect() error {
	s.closedMu.Lock()
	if s.closed {
		s.closedMu.Unlock()
		return nil
	}
	s.closed = true
	s.closedMu.Unlock()

	_ = s.stdin.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	s.router.abortAll(errs.NewTransportError(errs.PhaseClosed, "", io.EOF))
	return nil
}
