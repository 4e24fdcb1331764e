// Package runner runs a dprun session: it spawns dprun according to a launch
// plan, runs the callback server alongside it when the session relays
// messages, and shuts the server down once dprun has exited.
//
// A session moves through NotStarted, Starting, Running, Stopping and
// Terminated. The callback server is never stopped before dprun exits, and
// Run does not return before both the process and the server have released
// their resources.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/faize-ai/dplaunch/internal/callback"
	"github.com/faize-ai/dplaunch/internal/launch"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrAlreadyStarted is returned when Run is called on a used Session.
var ErrAlreadyStarted = errors.New("session already started")

// State is the lifecycle state of a Session.
type State int

// Session states.
const (
	NotStarted State = iota
	Starting
	Running
	Stopping
	Terminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	case Terminated:
		return "Terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ExitError reports that dprun ran but did not exit successfully.
type ExitError struct {
	// Code is the exit status. Only meaningful if HasCode is set; a process
	// killed by a signal has no status.
	Code    int
	HasCode bool
}

func (e *ExitError) Error() string {
	if !e.HasCode {
		return "dprun exited without a status code"
	}
	return fmt.Sprintf("dprun exited with status %d", e.Code)
}

// StartError reports that dprun or the callback server could not be
// started. Err holds every failure that occurred.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return "failed to start session: " + e.Err.Error()
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// Session is a single run of dprun. It is not reusable.
type Session struct {
	plan         launch.Plan
	handler      callback.Handler
	callbackHost string
	logger       *zap.SugaredLogger
	observer     func(Event)
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer

	mu    sync.Mutex
	state State

	emitMu sync.Mutex
}

// Option customizes a Session.
type Option func(*Session)

// WithHandler relays DirectPlay messages to h through a callback server
// listening on the plan's CallbackPort.
func WithHandler(h callback.Handler) Option {
	return func(s *Session) {
		s.handler = h
	}
}

// WithCallbackHost overrides the interface the callback server binds to.
func WithCallbackHost(host string) Option {
	return func(s *Session) {
		s.callbackHost = host
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithObserver registers a function receiving lifecycle events in order.
// Calls never overlap.
func WithObserver(fn func(Event)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// WithStdio connects dprun's standard streams. By default they are
// discarded.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(s *Session) {
		s.stdin = stdin
		s.stdout = stdout
		s.stderr = stderr
	}
}

// New creates a session for plan.
func New(plan launch.Plan, opts ...Option) *Session {
	s := &Session{
		plan:         plan,
		callbackHost: "127.0.0.1",
		logger:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run starts dprun and blocks until it has exited and the callback server,
// if any, has shut down. It returns nil if dprun exited with status 0, an
// *ExitError if it exited otherwise, or a *StartError if the session could
// not be started. Cancelling ctx kills dprun; the error then also matches
// ctx.Err().
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state != NotStarted {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = Starting
	s.mu.Unlock()
	s.emit(Event{Kind: EventStateChanged, State: Starting})

	cmd, running, stop, err := s.start(ctx)
	if err != nil {
		s.logger.Errorw("Session failed to start", "error", err)
		s.setState(Terminated)
		return err
	}

	s.setState(Running)
	waitErr := cmd.Wait()
	result := exitResult(cmd.ProcessState, waitErr)
	s.logger.Infow("dprun exited", "pid", cmd.Process.Pid, "result", resultString(result))
	s.emit(Event{Kind: EventProcessExited, Err: result})

	s.setState(Stopping)
	if stop != nil {
		s.stopServer(running, stop)
	}
	s.setState(Terminated)

	if result != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ctx.Err(), result)
	}
	return result
}

// start spawns dprun and, with a handler, starts the callback server at the
// same time. If either fails, whatever did start is released before the
// combined error is returned.
func (s *Session) start(ctx context.Context) (*exec.Cmd, *callback.Running, *callback.StopController, error) {
	var (
		g        errgroup.Group
		cmd      *exec.Cmd
		running  *callback.Running
		stop     *callback.StopController
		spawnErr error
		startErr error
	)

	if s.handler != nil {
		g.Go(func() error {
			server := callback.NewServer(s.callbackHost, s.plan.CallbackPort, s.handler, callback.WithLogger(s.logger))
			running, stop, startErr = server.Start()
			if startErr != nil {
				return startErr
			}
			s.logger.Infow("Callback server started", "addr", running.Addr().String())
			s.emit(Event{Kind: EventServerStarted, Addr: running.Addr().String()})
			return nil
		})
	}

	g.Go(func() error {
		cmd, spawnErr = s.spawn(ctx)
		if spawnErr != nil {
			return spawnErr
		}
		s.emit(Event{Kind: EventProcessSpawned, PID: cmd.Process.Pid})
		return nil
	})

	if g.Wait() == nil {
		return cmd, running, stop, nil
	}

	if spawnErr == nil {
		s.logger.Warnw("Killing dprun after failed start", "pid", cmd.Process.Pid)
		_ = cmd.Process.Kill()
		waitErr := cmd.Wait()
		result := exitResult(cmd.ProcessState, waitErr)
		s.emit(Event{Kind: EventProcessExited, Err: result})
	}
	if startErr == nil && stop != nil {
		s.stopServer(running, stop)
	}

	return nil, nil, nil, &StartError{Err: multierr.Combine(startErr, spawnErr)}
}

func (s *Session) spawn(ctx context.Context) (*exec.Cmd, error) {
	cmd := s.plan.Command(ctx)
	cmd.Stdin = s.stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	s.logger.Infow("Exec",
		"Path", cmd.Path,
		"Dir", cmd.Dir,
		"Args", s.plan.Redacted()[1:],
	)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to spawn %s: %w", s.plan.Program, err)
	}
	return cmd, nil
}

// stopServer signals the callback server and waits for it to release its
// listener and connections. Shutdown errors are reported, not returned.
func (s *Session) stopServer(running *callback.Running, stop *callback.StopController) {
	stop.Stop()
	s.emit(Event{Kind: EventServerStopSignalled})

	err := running.Wait()
	if err != nil {
		s.logger.Warnw("Callback server did not shut down cleanly", "error", err)
	} else {
		s.logger.Debugw("Callback server stopped")
	}
	s.emit(Event{Kind: EventServerStopped, Err: err})
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.logger.Debugw("Session state changed", "state", state.String())
	s.emit(Event{Kind: EventStateChanged, State: state})
}

func (s *Session) emit(ev Event) {
	if s.observer == nil {
		return
	}
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.observer(ev)
}

// exitResult maps the outcome of cmd.Wait to the session result.
func exitResult(state *os.ProcessState, waitErr error) error {
	if waitErr == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		state = exitErr.ProcessState
	}
	if state == nil {
		return fmt.Errorf("failed to wait for dprun: %w", waitErr)
	}

	code := state.ExitCode()
	switch {
	case code == 0:
		// Exited cleanly; waitErr came from copying its output.
		return nil
	case code < 0:
		return &ExitError{}
	default:
		return &ExitError{Code: code, HasCode: true}
	}
}

func resultString(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}
