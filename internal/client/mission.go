package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/minitelctl/internal/protocol"
	"github.com/danmuck/minitelctl/internal/protocol/frame"
	"github.com/danmuck/minitelctl/internal/protocol/sequence"
	"github.com/danmuck/minitelctl/internal/session"
)

var (
	ErrAddressRequired = errors.New("client: server address required")
	ErrEmptyScript     = errors.New("client: empty mission script")
	errRecorder        = errors.New("client: session recorder append failed")
)

// Outcome is the terminal state of one mission run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeAborted   Outcome = "aborted"
)

// Result is the terminal report of one mission run.
type Result struct {
	Outcome      Outcome
	OverrideCode []byte
	Reason       string
	Attempts     int
}

// Recorder captures one completed round before the mission continues.
type Recorder interface {
	Append(session.Record) error
}

// Mission executes a script exactly once per Run, reconnecting with bounded
// exponential backoff when the connection fails mid-script.
type Mission struct {
	cfg Config
	rec Recorder
	rng *rand.Rand
}

// NewMission builds a mission runner. rec may be nil to disable recording.
func NewMission(cfg Config, rec Recorder) (*Mission, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	return &Mission{
		cfg: cfg.WithDefaults(),
		rec: rec,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Run executes script to completion exactly once. Connection-level failures
// restart the whole script on a fresh connection; exceeding the attempt
// budget yields a failed result rather than retrying forever.
func (m *Mission) Run(ctx context.Context, script Script) (Result, error) {
	if len(script) == 0 {
		return Result{}, ErrEmptyScript
	}

	var attempt int
	for {
		attempt++
		res, err := m.runOnce(ctx, script)
		if err == nil {
			res.Attempts = attempt
			return res, nil
		}
		if errors.Is(err, errRecorder) {
			// Storage failure, not a connection failure: reconnecting
			// cannot restore the recording contract.
			return Result{Outcome: OutcomeFailed, Reason: err.Error(), Attempts: attempt}, nil
		}
		if ctx.Err() != nil {
			return Result{Outcome: OutcomeAborted, Reason: ctx.Err().Error(), Attempts: attempt}, nil
		}

		log.Warn().
			Int("attempt", attempt).
			Int("max_attempts", m.cfg.MaxAttempts).
			Str("addr", m.cfg.Address).
			Err(err).
			Msg("mission attempt failed")

		if attempt >= m.cfg.MaxAttempts {
			return Result{
				Outcome:  OutcomeFailed,
				Reason:   fmt.Sprintf("attempt budget exhausted (%d): %v", attempt, err),
				Attempts: attempt,
			}, nil
		}
		if err := m.sleepBackoff(ctx, attempt); err != nil {
			return Result{Outcome: OutcomeAborted, Reason: err.Error(), Attempts: attempt}, nil
		}
	}
}

// Probe runs a single HELLO round without recording, for connection tests.
func (m *Mission) Probe(ctx context.Context) error {
	saved := m.rec
	m.rec = nil
	defer func() { m.rec = saved }()
	res, err := m.Run(ctx, ProbeScript())
	if err != nil {
		return err
	}
	if res.Outcome != OutcomeSucceeded {
		return fmt.Errorf("client: probe %s: %s", res.Outcome, res.Reason)
	}
	return nil
}

// runOnce drives the full script over one connection. Any returned error is
// fatal to that connection and leaves retry policy to the caller.
func (m *Mission) runOnce(ctx context.Context, script Script) (Result, error) {
	conn, err := m.dial(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("client: connect %s: %w", m.cfg.Address, err)
	}
	defer conn.Close()
	log.Debug().Str("addr", m.cfg.Address).Msg("connected, starting script")

	seq := sequence.NewClient()
	var override []byte
	for i, step := range script {
		rec, resp, err := m.round(conn, seq, step)
		if err != nil {
			return Result{}, fmt.Errorf("client: step %d (%s): %w", i, step.Cmd, err)
		}
		if m.rec != nil {
			if err := m.rec.Append(rec); err != nil {
				return Result{}, fmt.Errorf("%w: step %d: %v", errRecorder, i, err)
			}
		}
		if resp.Cmd == protocol.CmdDumpOK && override == nil {
			override = resp.Payload
		}
	}

	return Result{Outcome: OutcomeSucceeded, OverrideCode: override}, nil
}

func (m *Mission) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: m.cfg.ConnectTimeout}
	return dialer.DialContext(ctx, "tcp", m.cfg.Address)
}

// round performs one request/response exchange and builds its session record.
func (m *Mission) round(conn net.Conn, seq *sequence.Client, step Step) (session.Record, frame.Frame, error) {
	var payload []byte
	if step.Payload != nil {
		payload = step.Payload()
	}
	req := frame.Frame{Cmd: step.Cmd, Nonce: seq.RequestNonce(), Payload: payload}

	_ = conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	reqWire, err := frame.WriteFrame(conn, req, m.cfg.Limits)
	if err != nil {
		return session.Record{}, frame.Frame{}, err
	}

	_ = conn.SetReadDeadline(time.Now().Add(m.cfg.ReadTimeout))
	resp, respWire, err := frame.ReadFrame(conn, m.cfg.Limits)
	if err != nil {
		return session.Record{}, frame.Frame{}, err
	}

	if err := seq.CheckReply(resp.Nonce); err != nil {
		return session.Record{}, frame.Frame{}, err
	}
	if err := checkResponse(step.Cmd, resp.Cmd); err != nil {
		return session.Record{}, frame.Frame{}, err
	}
	seq.Advance()

	outcome := session.OutcomeSuccess
	if resp.Cmd == protocol.CmdDumpFailed {
		outcome = session.OutcomeFailed
	}
	rec := session.Record{
		Timestamp: time.Now().UTC(),
		Request:   session.NewFrameView(req, reqWire),
		Response:  session.NewFrameView(resp, respWire),
		Outcome:   outcome,
	}

	log.Debug().
		Str("cmd", req.Cmd.String()).
		Uint32("nonce", req.Nonce).
		Str("resp", resp.Cmd.String()).
		Uint32("resp_nonce", resp.Nonce).
		Str("outcome", outcome).
		Msg("round completed")
	return rec, resp, nil
}

// checkResponse validates the reply command against the request that was sent.
func checkResponse(req, resp protocol.Command) error {
	ok := false
	switch req {
	case protocol.CmdHello:
		ok = resp == protocol.CmdHelloAck
	case protocol.CmdDump:
		ok = resp == protocol.CmdDumpFailed || resp == protocol.CmdDumpOK
	case protocol.CmdStop:
		ok = resp == protocol.CmdStopOK
	}
	if !ok {
		return fmt.Errorf("%w: %s answered with %s", protocol.ErrProtocolViolation, req, resp)
	}
	return nil
}

func (m *Mission) sleepBackoff(ctx context.Context, attempt int) error {
	delay := NextBackoffDelay(m.cfg.Backoff, attempt, m.rng)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
