package rtspd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"rtspd/pkg/rtsp"
)

const shutdownTimeout = 5 * time.Second

// Server wires the RTSP acceptor, the HTTP control plane and the metrics event loop
type Server struct {
	config   *Config
	rtsp     *rtsp.Server
	http     *http.Server
	httpLn   net.Listener
	metrics  *Metrics
	channel  chan interface{}
	done     chan struct{} // 종료 신호 채널
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewServer(config *Config) *Server {
	channel := make(chan interface{}, 100)

	s := &Server{
		config:  config,
		metrics: NewMetrics(),
		channel: channel,
		done:    make(chan struct{}),
		rtsp: rtsp.NewServer(rtsp.RTSPConfig{
			Address:     config.RTSP.Address,
			Port:        config.RTSP.Port,
			ReadTimeout: config.RTSP.ReadTimeout,
			Events:      channel,
		}),
	}
	s.http = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	slog.Info("Start Server")

	addr := net.JoinHostPort(s.config.HTTP.Address, strconv.Itoa(s.config.HTTP.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on http address %s: %w", addr, err)
	}

	if err := s.rtsp.Start(); err != nil {
		closeWithLog(ln)
		return fmt.Errorf("failed to start rtsp server: %w", err)
	}
	s.httpLn = ln

	s.wg.Add(2)
	go s.eventLoop()
	go s.serveHTTP(ln)

	slog.Info("HTTP server listening", "addr", ln.Addr().String())
	return nil
}

// RTSPPort returns the bound RTSP port
func (s *Server) RTSPPort() int {
	return s.rtsp.Port()
}

// HTTPAddr returns the bound HTTP address, empty before Start
func (s *Server) HTTPAddr() string {
	if s.httpLn == nil {
		return ""
	}
	return s.httpLn.Addr().String()
}

func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		slog.Info("Stopping Server...")

		// 1. RTSP 서버 종료, 모든 세션 종료 대기
		s.rtsp.Stop()

		// 2. HTTP 서버 종료
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			slog.Error("HTTP server shutdown failed", "err", err)
		}

		// 3. 이벤트 루프 종료
		close(s.done)
		s.wg.Wait()

		// 4. 남은 이벤트 처리
		s.drainEvents()

		slog.Info("Server stopped successfully")
	})
}

func (s *Server) serveHTTP(ln net.Listener) {
	defer s.wg.Done()

	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server failed", "err", err)
	}
}

func (s *Server) eventLoop() {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.channel:
			s.handleEvent(event)
		case <-s.done:
			slog.Debug("Event loop stopping...")
			return
		}
	}
}

func (s *Server) drainEvents() {
	for {
		select {
		case event := <-s.channel:
			s.handleEvent(event)
		default:
			return
		}
	}
}

// handleEvent feeds RTSP session events into the metrics
func (s *Server) handleEvent(event interface{}) {
	switch e := event.(type) {
	case rtsp.ConnectionOpened:
		s.metrics.connectionOpened()
	case rtsp.ConnectionClosed:
		s.metrics.connectionClosed()
	case rtsp.RequestHandled:
		s.metrics.requestHandled(e.Method, e.StatusCode)
	case rtsp.SessionCreated:
		s.metrics.sessionCreated()
	case rtsp.SessionTerminated:
		s.metrics.sessionTerminated()
	case rtsp.SessionStateChanged:
		s.metrics.stateChanged(e.From, e.To)
	default:
		slog.Warn("Unknown RTSP event type", "eventType", fmt.Sprintf("%T", e))
	}
}

func closeWithLog(c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		slog.Error("Error closing resource", "err", err)
	}
}
