package session

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ErrLogFormat marks a session log that fails structural parsing. A corrupt
// log is rejected whole; there is no best-effort partial load.
var ErrLogFormat = errors.New("session: malformed session log")

// LoadLog reads and parses a persisted session log. A ".zst" path suffix is
// decompressed transparently.
func LoadLog(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("session: open log: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, zstSuffix) {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLogFormat, err)
		}
		defer zr.Close()
		src = zr
	}
	return parseLog(src)
}

func parseLog(src io.Reader) (*Log, error) {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLogFormat, err)
		}
		return nil, fmt.Errorf("%w: missing header", ErrLogFormat)
	}
	var header logHeader
	if err := json.Unmarshal(sc.Bytes(), &header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrLogFormat, err)
	}
	if header.Format != logFormat {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrLogFormat, header.Format)
	}
	if header.SessionID == "" {
		return nil, fmt.Errorf("%w: header missing session_id", ErrLogFormat)
	}

	out := &Log{
		SessionID: header.SessionID,
		StartedAt: header.StartedAt,
	}
	line := 1
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrLogFormat, line, err)
		}
		if rec.Step != len(out.Records) {
			return nil, fmt.Errorf("%w: line %d: step %d out of order", ErrLogFormat, line, rec.Step)
		}
		out.Records = append(out.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogFormat, err)
	}
	return out, nil
}

// Replayer exposes a loaded log as a restartable, randomly addressable step
// sequence. Pure read: it never opens a connection or re-validates hashes.
type Replayer struct {
	log *Log
	idx int
}

func NewReplayer(log *Log) *Replayer {
	return &Replayer{log: log}
}

// Len returns the total step count.
func (r *Replayer) Len() int {
	return len(r.log.Records)
}

// Index returns the current zero-based step index.
func (r *Replayer) Index() int {
	return r.idx
}

// SessionID returns the identifier of the loaded log.
func (r *Replayer) SessionID() string {
	return r.log.SessionID
}

// Current returns the record at the current index, if any.
func (r *Replayer) Current() (Record, bool) {
	if r.idx < 0 || r.idx >= len(r.log.Records) {
		return Record{}, false
	}
	return r.log.Records[r.idx], true
}

// Next advances one step; it reports false at the end without moving.
func (r *Replayer) Next() bool {
	if r.idx+1 >= len(r.log.Records) {
		return false
	}
	r.idx++
	return true
}

// Previous steps back; it reports false at the start without moving.
func (r *Replayer) Previous() bool {
	if r.idx <= 0 {
		return false
	}
	r.idx--
	return true
}

// Jump moves to an absolute step index; out-of-range indexes report false
// without moving.
func (r *Replayer) Jump(idx int) bool {
	if idx < 0 || idx >= len(r.log.Records) {
		return false
	}
	r.idx = idx
	return true
}

// Rewind resets to the first step.
func (r *Replayer) Rewind() {
	r.idx = 0
}
