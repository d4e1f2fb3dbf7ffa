package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/minitelctl/internal/observability"
	"github.com/danmuck/minitelctl/internal/protocol"
	"github.com/danmuck/minitelctl/internal/protocol/frame"
	"github.com/danmuck/minitelctl/internal/protocol/sequence"
)

// DefaultSecret is the override-code payload served on a successful DUMP.
const DefaultSecret = "FLAG{MINITEL_MASTER_2025}"

// Config configures one dispatcher instance.
type Config struct {
	ListenAddr  string
	IdleTimeout time.Duration
	Secret      string
	Limits      frame.Limits
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:  ":8080",
		IdleTimeout: 2 * time.Second,
		Secret:      DefaultSecret,
		Limits:      frame.DefaultLimits(),
	}
}

// WithDefaults fills zero fields with dispatcher defaults.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = def.IdleTimeout
	}
	if c.Secret == "" {
		c.Secret = def.Secret
	}
	if c.Limits.MaxPayloadBytes <= 0 {
		c.Limits = def.Limits
	}
	return c
}

// Server accepts connections and runs one isolated protocol state machine
// per connection.
type Server struct {
	cfg     Config
	started time.Time

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup

	connSeq     atomic.Uint64
	activeConns atomic.Int64
}

func New(cfg Config) *Server {
	return &Server{
		cfg:     cfg.WithDefaults(),
		started: time.Now(),
	}
}

// Listen binds the configured address without accepting yet, so callers can
// read the resolved address before Serve.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ActiveConnections reports currently open protocol connections.
func (s *Server) ActiveConnections() int64 {
	return s.activeConns.Load()
}

// Uptime reports time since construction.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.started)
}

// Serve accepts connections until ctx is cancelled, then closes the listener
// and waits for in-flight handlers to drain.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		s.mu.Lock()
		ln = s.ln
		s.mu.Unlock()
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("minitel server listening")

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// handler state machine phases.
type connState int

const (
	stateExpectHello connState = iota
	stateAuthenticated
	stateTerminated
)

// connection close reasons for logs and metrics.
const (
	closeStop      = "stop"
	closeEOF       = "eof"
	closeTimeout   = "timeout"
	closeMalformed = "malformed_frame"
	closeSequence  = "sequence_error"
	closeViolation = "protocol_violation"
	closeTransport = "transport_error"
)

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	id := s.connSeq.Add(1)
	s.activeConns.Add(1)
	observability.RecordConnectionOpened()
	logger := log.With().
		Uint64("conn", id).
		Str("remote", conn.RemoteAddr().String()).
		Logger()
	logger.Info().Msg("connection accepted")

	reason := closeEOF
	defer func() {
		s.activeConns.Add(-1)
		observability.RecordConnectionClosed(reason)
		logger.Info().Str("reason", reason).Msg("connection closed")
	}()

	seq := sequence.NewConn()
	state := stateExpectHello
	dumpAttempts := 0

	for state != stateTerminated {
		// Idle timeout counts from the last successfully processed frame.
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		req, _, err := frame.ReadFrame(conn, s.cfg.Limits)
		if err != nil {
			reason = classifyReadError(err)
			if reason != closeEOF {
				logger.Warn().Err(err).Str("reason", reason).Msg("read failed")
			}
			return
		}
		observability.RecordFrame(req.Cmd.String())

		if err := seq.CheckInbound(req.Nonce); err != nil {
			reason = closeSequence
			logger.Warn().Err(err).Str("cmd", req.Cmd.String()).Msg("rejecting frame")
			return
		}

		resp, next, err := route(state, &dumpAttempts, req, seq.ReplyNonce(), s.cfg.Secret)
		if err != nil {
			reason = closeViolation
			logger.Warn().Err(err).Str("cmd", req.Cmd.String()).Uint32("nonce", req.Nonce).Msg("rejecting frame")
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.IdleTimeout))
		if _, err := frame.WriteFrame(conn, resp, s.cfg.Limits); err != nil {
			reason = closeTransport
			logger.Warn().Err(err).Msg("write failed")
			return
		}
		seq.Advance()
		state = next

		logger.Debug().
			Str("cmd", req.Cmd.String()).
			Uint32("nonce", req.Nonce).
			Str("resp", resp.Cmd.String()).
			Uint32("resp_nonce", resp.Nonce).
			Msg("round completed")
	}
	reason = closeStop
}

// route maps one validated request to its response and the next state. The
// dump attempt counter is connection-scoped: the first DUMP fails, every
// later one serves the secret.
func route(state connState, dumpAttempts *int, req frame.Frame, replyNonce uint32, secret string) (frame.Frame, connState, error) {
	switch state {
	case stateExpectHello:
		if req.Cmd != protocol.CmdHello {
			return frame.Frame{}, state, violation(req.Cmd, "expecting HELLO")
		}
		return frame.Frame{Cmd: protocol.CmdHelloAck, Nonce: replyNonce}, stateAuthenticated, nil

	case stateAuthenticated:
		switch req.Cmd {
		case protocol.CmdDump:
			*dumpAttempts++
			if *dumpAttempts == 1 {
				observability.RecordDumpResponse("failed")
				return frame.Frame{Cmd: protocol.CmdDumpFailed, Nonce: replyNonce}, stateAuthenticated, nil
			}
			observability.RecordDumpResponse("ok")
			return frame.Frame{Cmd: protocol.CmdDumpOK, Nonce: replyNonce, Payload: []byte(secret)}, stateAuthenticated, nil
		case protocol.CmdStop:
			return frame.Frame{Cmd: protocol.CmdStopOK, Nonce: replyNonce}, stateTerminated, nil
		}
		return frame.Frame{}, state, violation(req.Cmd, "expecting DUMP or STOP_CMD")
	}
	return frame.Frame{}, state, violation(req.Cmd, "connection terminated")
}

func violation(cmd protocol.Command, detail string) error {
	return fmt.Errorf("%w: got %s, %s", protocol.ErrProtocolViolation, cmd, detail)
}

func classifyReadError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF):
		return closeEOF
	case errors.Is(err, os.ErrDeadlineExceeded):
		return closeTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return closeTimeout
	case errors.Is(err, frame.ErrFrameTooShort),
		errors.Is(err, frame.ErrBase64Decode),
		errors.Is(err, frame.ErrFrameTooSmall),
		errors.Is(err, frame.ErrIntegrity),
		errors.Is(err, frame.ErrPayloadTooLarge):
		return closeMalformed
	}
	return closeTransport
}
