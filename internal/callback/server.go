// Package callback implements the local server dprun's service provider
// connects to when a game runs with the DPRUN provider. Every message the
// game sends through DirectPlay is relayed over this connection and handed to
// a Handler.
package callback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultPort is the port dprun's service provider connects to unless the
// session address carries an INetPort part.
const DefaultPort = 2197

// Retry delays after a failed Accept, e.g. when out of file descriptors.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server accepts connections from dprun and dispatches their frames to a
// Handler. A Server can be started more than once; each Start binds a new
// listener.
type Server struct {
	addr    string
	handler Handler
	logger  *zap.SugaredLogger
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server that will listen on host:port. Port 0 picks a
// free port.
func NewServer(host string, port int, handler Handler, opts ...Option) *Server {
	s := &Server{
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		handler: handler,
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.addr
}

// StopController asks a running server to shut down.
type StopController struct {
	once sync.Once
	ch   chan struct{}
}

// Stop signals the server to shut down. It does not wait; use Running.Wait.
// Calling Stop more than once is harmless.
func (c *StopController) Stop() {
	c.once.Do(func() { close(c.ch) })
}

// Running is a started server.
type Running struct {
	addr net.Addr
	done chan struct{}
	err  error

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	closing bool
}

// Addr returns the bound listener address.
func (r *Running) Addr() net.Addr {
	return r.addr
}

// Done is closed once the listener and every connection have been released.
func (r *Running) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until Done is closed and returns any shutdown error.
func (r *Running) Wait() error {
	<-r.done
	return r.err
}

// track registers conn, or reports false if the server is already closing.
func (r *Running) track(conn net.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closing {
		return false
	}
	r.conns[conn] = struct{}{}
	return true
}

func (r *Running) untrack(conn net.Conn) {
	r.mu.Lock()
	delete(r.conns, conn)
	r.mu.Unlock()
}

func (r *Running) closeConns() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closing = true
	for conn := range r.conns {
		_ = conn.Close()
	}
}

// Start binds the listener and starts accepting connections. Bind errors are
// returned immediately.
func (s *Server) Start() (*Running, *StopController, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.logger.Debugw("Callback server listening", "addr", ln.Addr().String())

	running, stop := s.serve(ln)
	return running, stop, nil
}

// serve accepts connections on ln until stopped.
func (s *Server) serve(ln net.Listener) (*Running, *StopController) {
	running := &Running{
		addr:  ln.Addr(),
		done:  make(chan struct{}),
		conns: make(map[net.Conn]struct{}),
	}
	stop := &StopController{ch: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go s.acceptLoop(ctx, ln, running, stop, &wg)

	go func() {
		<-stop.ch
		s.logger.Debugw("Callback server stopping", "addr", running.addr.String())
		cancel()
		closeErr := ln.Close()
		running.closeConns()
		wg.Wait()
		if closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			running.err = fmt.Errorf("failed to close listener: %w", closeErr)
		}
		s.logger.Debugw("Callback server stopped", "addr", running.addr.String())
		close(running.done)
	}()

	return running, stop
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener, running *Running, stop *StopController, wg *sync.WaitGroup) {
	defer wg.Done()

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-stop.ch:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			delay = acceptDelay(delay)
			s.logger.Warnw("Accept error, retrying", "error", err, "delay", delay)
			timer := time.NewTimer(delay)
			select {
			case <-stop.ch:
				timer.Stop()
				return
			case <-timer.C:
			}
			continue
		}
		delay = 0

		if !running.track(conn) {
			_ = conn.Close()
			return
		}

		s.logger.Debugw("dprun connected", "remote", conn.RemoteAddr().String())
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer running.untrack(conn)
			defer conn.Close()
			s.serveConn(ctx, conn)
		}()
	}
}

// acceptDelay doubles the previous retry delay, starting at minAcceptDelay
// and capped at maxAcceptDelay.
func acceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptDelay
	}
	if next := prev * 2; next < maxAcceptDelay {
		return next
	}
	return maxAcceptDelay
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	c := &Controller{conn: conn}
	for {
		f, err := readFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && ctx.Err() == nil {
				s.logger.Warnw("Closing callback connection", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}
		if err := s.dispatch(ctx, c, f); err != nil {
			s.logger.Warnw("Handler failed", "kind", f.kind.String(), "error", err)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, c *Controller, f frame) error {
	switch f.kind {
	case KindEnumSessions:
		return s.handler.EnumSessions(ctx, c, &EnumSessions{Data: f.payload})
	case KindOpen:
		return s.handler.Open(ctx, c, &Open{Data: f.payload})
	case KindCreatePlayer:
		msg, err := decodeCreatePlayer(f.payload)
		if err != nil {
			return err
		}
		return s.handler.CreatePlayer(ctx, c, msg)
	case KindDeletePlayer:
		msg, err := decodeDeletePlayer(f.payload)
		if err != nil {
			return err
		}
		return s.handler.DeletePlayer(ctx, c, msg)
	case KindSend:
		msg, err := decodeSend(f.payload)
		if err != nil {
			return err
		}
		return s.handler.Send(ctx, c, msg)
	case KindReply:
		msg, err := decodeReply(f.payload)
		if err != nil {
			return err
		}
		return s.handler.Reply(ctx, c, msg)
	default:
		s.logger.Warnw("Skipping unknown message", "kind", f.kind.String(), "bytes", len(f.payload))
		return nil
	}
}

// Controller writes frames back to the connected game.
type Controller struct {
	mu   sync.Mutex
	conn net.Conn
}

// Send writes one frame to the game. Safe for concurrent use.
func (c *Controller) Send(kind Kind, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return writeFrame(c.conn, kind, payload)
}

// RemoteAddr returns the address of the connected game.
func (c *Controller) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
