package rtsp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrServerStarted is returned by Start on a server that was already started
	ErrServerStarted = errors.New("rtsp: server already started")
	// ErrServerClosed is returned by Start after Stop
	ErrServerClosed = errors.New("rtsp: server closed")
)

// RTSPConfig represents RTSP server configuration
type RTSPConfig struct {
	Address     string
	Port        int           // 0 lets the OS choose
	ReadTimeout time.Duration // idle time allowed between requests, 0 disables
	Events      chan<- interface{}
}

// Server accepts RTSP connections and runs one Session per connection
type Server struct {
	address     string
	port        int
	readTimeout time.Duration
	events      chan<- interface{}

	sessionCounter atomic.Uint64

	mu       sync.Mutex
	started  bool
	listener net.Listener
	sessions map[*Session]struct{}

	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewServer creates a new RTSP server
func NewServer(config RTSPConfig) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		address:     config.Address,
		port:        config.Port,
		readTimeout: config.ReadTimeout,
		events:      config.Events,
		sessions:    make(map[*Session]struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start binds the listening socket and starts accepting connections
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrServerStarted
	}
	if s.ctx.Err() != nil {
		return ErrServerClosed
	}

	ln, err := s.createListener()
	if err != nil {
		return err
	}
	s.listener = ln
	s.started = true

	s.wg.Add(1)
	go s.acceptConnections(ln)

	slog.Info("RTSP server listening", "addr", ln.Addr().String())
	return nil
}

// Port returns the bound port, or 0 before Start
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// ActiveSessions returns the number of connections currently being handled
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// NextSessionID allocates a session id that is never reused within the process
func (s *Server) NextSessionID() string {
	return strconv.FormatUint(s.sessionCounter.Add(1), 10)
}

// Stop cancels the accept loop and every live session, then waits for all of them to exit
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		slog.Info("RTSP Server stopping...")

		s.cancel()

		s.mu.Lock()
		ln := s.listener
		sessions := make([]*Session, 0, len(s.sessions))
		for session := range s.sessions {
			sessions = append(sessions, session)
		}
		s.mu.Unlock()

		if ln != nil {
			closeWithLog(ln)
		}

		slog.Info("Closing all RTSP sessions", "sessionCount", len(sessions))
		for _, session := range sessions {
			session.Stop()
		}

		s.wg.Wait()
		slog.Info("RTSP Server stopped successfully")
	})
}

// createListener creates a TCP listener
func (s *Server) createListener() (net.Listener, error) {
	addr := net.JoinHostPort(s.address, strconv.Itoa(s.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("Error starting RTSP server", "addr", addr, "err", err)
		return nil, err
	}

	return ln, nil
}

// acceptConnections accepts incoming connections
func (s *Server) acceptConnections(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				slog.Debug("RTSP accept loop stopped")
				return
			}
			slog.Error("RTSP accept failed", "err", err)
			return
		}

		s.newSession(conn)
	}
}

func (s *Server) newSession(conn net.Conn) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		closeWithLog(conn)
		return
	}

	session := NewSession(s.ctx, conn, s, s.readTimeout, s.events)
	s.sessions[session] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.removeSession(session)
		session.Run()
	}()
}

func (s *Server) removeSession(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, session)
}

// closeWithLog closes a resource with logging
func closeWithLog(c io.Closer) {
	if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		slog.Error("Error closing resource", "err", err)
	}
}
