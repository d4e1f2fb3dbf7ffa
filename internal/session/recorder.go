package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// logFormat identifies the on-disk layout: one JSON header line followed by
// one JSON record per line.
const logFormat = "minitel-session/1"

// zstSuffix selects transparent zstd compression of the log stream.
const zstSuffix = ".zst"

var ErrRecorderClosed = errors.New("session: recorder closed")

type logHeader struct {
	Format    string    `json:"format"`
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
}

// Recorder appends session records to a log file, one synced line per round.
// It is single-writer: the mission session that owns it is the only caller.
type Recorder struct {
	file      *os.File
	zw        *zstd.Encoder
	enc       *json.Encoder
	sessionID string
	nextStep  int
	closed    bool
}

// Create opens a new session log at path, creating parent directories. A
// ".zst" suffix enables zstd compression of the stream.
func Create(path string) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("session: create recordings dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("session: create log: %w", err)
	}

	r := &Recorder{
		file:      f,
		sessionID: uuid.NewString(),
	}
	if strings.HasSuffix(path, zstSuffix) {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("session: init zstd writer: %w", err)
		}
		r.zw = zw
		r.enc = json.NewEncoder(zw)
	} else {
		r.enc = json.NewEncoder(f)
	}

	header := logHeader{
		Format:    logFormat,
		SessionID: r.sessionID,
		StartedAt: time.Now().UTC(),
	}
	if err := r.enc.Encode(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("session: write log header: %w", err)
	}
	if err := r.sync(); err != nil {
		_ = f.Close()
		return nil, err
	}

	log.Debug().Str("session_id", r.sessionID).Str("path", path).Msg("session recording started")
	return r, nil
}

// SessionID returns the identifier written into the log header.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Append writes one record and syncs it to storage before returning. Step
// numbering is owned by the recorder and strictly increases from 0; a zero
// timestamp is stamped at append time.
func (r *Recorder) Append(rec Record) error {
	if r.closed {
		return ErrRecorderClosed
	}
	rec.Step = r.nextStep
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if err := r.enc.Encode(rec); err != nil {
		return fmt.Errorf("session: append record: %w", err)
	}
	if err := r.sync(); err != nil {
		return err
	}
	r.nextStep++
	log.Debug().
		Int("step", rec.Step).
		Str("request", rec.Request.Command).
		Str("response", rec.Response.Command).
		Str("outcome", rec.Outcome).
		Msg("session record appended")
	return nil
}

// Steps returns the number of records appended so far.
func (r *Recorder) Steps() int {
	return r.nextStep
}

func (r *Recorder) sync() error {
	if r.zw != nil {
		if err := r.zw.Flush(); err != nil {
			return fmt.Errorf("session: flush log: %w", err)
		}
	}
	if err := r.file.Sync(); err != nil {
		return fmt.Errorf("session: sync log: %w", err)
	}
	return nil
}

// Close finalizes the log. Records already appended stay readable even if
// Close is never reached.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.zw != nil {
		if err := r.zw.Close(); err != nil {
			_ = r.file.Close()
			return fmt.Errorf("session: close zstd writer: %w", err)
		}
	}
	if err := r.file.Sync(); err != nil {
		_ = r.file.Close()
		return fmt.Errorf("session: sync log: %w", err)
	}
	return r.file.Close()
}
