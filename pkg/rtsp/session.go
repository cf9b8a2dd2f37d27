package rtsp

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// SessionIDAllocator hands out process-wide unique session identifiers
type SessionIDAllocator interface {
	NextSessionID() string
}

// SessionState represents the current state of an RTSP session
type SessionState int

const (
	StateInit SessionState = iota
	StateReady
	StatePlaying
)

// String returns the string representation of the session state
func (s SessionState) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateReady:
		return "Ready"
	case StatePlaying:
		return "Playing"
	default:
		return "Unknown"
	}
}

const (
	eventSetup    = "setup"
	eventPlay     = "play"
	eventTeardown = "teardown"
)

// Session terminates the RTSP protocol for one accepted connection.
// At most one RTSP session (SETUP to TEARDOWN) lives on a connection.
type Session struct {
	connId          string
	sessionId       string
	conn            net.Conn
	reader          *MessageReader
	writer          *MessageWriter
	machine         *fsm.FSM
	ids             SessionIDAllocator
	timeout         time.Duration
	externalChannel chan<- interface{}
	ctx             context.Context
	cancel          context.CancelFunc
	stopOnce        sync.Once
}

// NewSession creates a session handler for conn. A zero timeout disables the idle read deadline.
func NewSession(ctx context.Context, conn net.Conn, ids SessionIDAllocator, timeout time.Duration, externalChannel chan<- interface{}) *Session {
	ctx, cancel := context.WithCancel(ctx)

	session := &Session{
		connId:          uuid.NewString(),
		conn:            conn,
		reader:          NewMessageReader(conn),
		writer:          NewMessageWriter(conn),
		ids:             ids,
		timeout:         timeout,
		externalChannel: externalChannel,
		ctx:             ctx,
		cancel:          cancel,
	}
	session.initStateMachine()

	return session
}

func (s *Session) initStateMachine() {
	s.machine = fsm.NewFSM(
		StateInit.String(),
		fsm.Events{
			{Name: eventSetup, Src: []string{StateInit.String()}, Dst: StateReady.String()},
			{Name: eventPlay, Src: []string{StateReady.String()}, Dst: StatePlaying.String()},
			{Name: eventTeardown, Src: []string{StateReady.String(), StatePlaying.String()}, Dst: StateInit.String()},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				slog.Debug("RTSP session state changed", "connId", s.connId, "sessionId", s.sessionId, "from", e.Src, "to", e.Dst)
				s.emit(SessionStateChanged{ConnId: s.connId, From: e.Src, To: e.Dst})
			},
		},
	)
}

// ConnId returns the identity of the underlying connection
func (s *Session) ConnId() string {
	return s.connId
}

// SessionId returns the allocated session id, empty before a successful SETUP
func (s *Session) SessionId() string {
	return s.sessionId
}

// State returns the current state machine state
func (s *Session) State() SessionState {
	switch s.machine.Current() {
	case StateReady.String():
		return StateReady
	case StatePlaying.String():
		return StatePlaying
	default:
		return StateInit
	}
}

// Run processes requests until TEARDOWN, malformed input, end of stream or cancellation.
// The connection is closed before Run returns.
func (s *Session) Run() {
	defer s.cleanup()

	slog.Info("RTSP session started", "connId", s.connId, "remoteAddr", s.conn.RemoteAddr())
	s.emit(ConnectionOpened{ConnId: s.connId, RemoteAddr: s.conn.RemoteAddr().String()})

	for {
		if s.ctx.Err() != nil {
			return
		}

		if s.timeout > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
				slog.Debug("Failed to set read deadline", "connId", s.connId, "err", err)
			}
		}

		request, err := s.reader.ReadRequest()
		if err != nil {
			s.logReadError(err)
			return
		}

		slog.Debug("RTSP request received", "connId", s.connId, "method", request.MethodName, "uri", request.URI, "cseq", request.CSeq)

		response := s.handleRequest(request)
		if err := s.writer.WriteResponse(response); err != nil {
			if s.ctx.Err() == nil {
				slog.Warn("Failed to write RTSP response", "connId", s.connId, "method", request.MethodName, "err", err)
			}
			return
		}
		s.emit(RequestHandled{ConnId: s.connId, Method: request.Method.String(), StatusCode: response.StatusCode})

		if request.Method == MethodTeardown {
			return
		}
	}
}

// Stop cancels the session and closes its connection. Safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Debug("Error closing RTSP connection", "connId", s.connId, "err", err)
		}
	})
}

func (s *Session) cleanup() {
	s.Stop()
	if s.sessionId != "" {
		s.emit(SessionTerminated{ConnId: s.connId, SessionId: s.sessionId})
		s.sessionId = ""
	}
	s.emit(ConnectionClosed{ConnId: s.connId})
	slog.Info("RTSP session closed", "connId", s.connId)
}

func (s *Session) logReadError(err error) {
	var netErr net.Error
	switch {
	case s.ctx.Err() != nil:
		slog.Debug("RTSP session cancelled", "connId", s.connId)
	case errors.Is(err, ErrMalformedRequest):
		slog.Info("Malformed RTSP request, closing connection", "connId", s.connId, "err", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		slog.Info("RTSP session timed out", "connId", s.connId)
	default:
		slog.Debug("RTSP connection closed by peer", "connId", s.connId, "err", err)
	}
}

// handleRequest dispatches a request by method
func (s *Session) handleRequest(req *Request) *Response {
	switch req.Method {
	case MethodOptions:
		return s.handleOptions(req)
	case MethodDescribe:
		return s.handleDescribe(req)
	case MethodSetup:
		return s.handleSetup(req)
	case MethodPlay:
		return s.handlePlay(req)
	case MethodTeardown:
		return s.handleTeardown(req)
	default:
		slog.Debug("Unsupported RTSP method", "connId", s.connId, "method", req.MethodName)
		return NewResponse(StatusMethodNotAllowed, req.CSeq)
	}
}

func (s *Session) handleOptions(req *Request) *Response {
	response := NewResponse(StatusOK, req.CSeq)
	response.SetHeader(HeaderPublic, PublicMethods)
	return response
}

func (s *Session) handleDescribe(req *Request) *Response {
	body, err := placeholderSDP()
	if err != nil {
		slog.Error("Failed to build SDP", "connId", s.connId, "err", err)
		return NewResponse(StatusInternalServerError, req.CSeq)
	}

	response := NewResponse(StatusOK, req.CSeq)
	response.SetHeader(HeaderContentBase, DefaultContentBase)
	response.SetBody(ContentTypeSDP, body)
	return response
}

// handleSetup accepts only interleaved TCP delivery. A rejected SETUP leaves the session untouched.
func (s *Session) handleSetup(req *Request) *Response {
	transport := req.Header.Get(HeaderTransport)
	if !strings.Contains(strings.ToUpper(transport), TransportProtocolTCP) {
		slog.Info("Unsupported RTSP transport", "connId", s.connId, "transport", transport)
		return NewResponse(StatusUnsupportedTransport, req.CSeq)
	}

	if s.sessionId == "" {
		s.sessionId = s.ids.NextSessionID()
		slog.Info("RTSP session created", "connId", s.connId, "sessionId", s.sessionId)
		s.emit(SessionCreated{ConnId: s.connId, SessionId: s.sessionId})
	}
	s.transition(eventSetup)

	response := NewResponse(StatusOK, req.CSeq)
	response.SetHeader(HeaderTransport, TransportInterleaved)
	response.SetHeader(HeaderSession, s.sessionId)
	return response
}

// handlePlay tolerates PLAY without a prior SETUP; the Session header is only sent once a session exists.
func (s *Session) handlePlay(req *Request) *Response {
	response := NewResponse(StatusOK, req.CSeq)
	if s.sessionId != "" {
		response.SetHeader(HeaderSession, s.sessionId)
		s.transition(eventPlay)
	}
	return response
}

func (s *Session) handleTeardown(req *Request) *Response {
	if s.sessionId != "" {
		s.transition(eventTeardown)
		slog.Info("RTSP session torn down", "connId", s.connId, "sessionId", s.sessionId)
		s.emit(SessionTerminated{ConnId: s.connId, SessionId: s.sessionId})
		s.sessionId = ""
	}
	return NewResponse(StatusOK, req.CSeq)
}

// transition fires event when it is valid in the current state; otherwise the state is kept
func (s *Session) transition(event string) {
	if !s.machine.Can(event) {
		return
	}
	if err := s.machine.Event(context.Background(), event); err != nil {
		slog.Warn("RTSP state transition failed", "connId", s.connId, "event", event, "err", err)
	}
}

func (s *Session) emit(event interface{}) {
	if s.externalChannel == nil {
		return
	}
	select {
	case s.externalChannel <- event:
	default:
	}
}
