package session

import (
	"encoding/hex"
	"time"
	"unicode/utf8"

	"github.com/danmuck/minitelctl/internal/protocol"
	"github.com/danmuck/minitelctl/internal/protocol/frame"
)

// Round outcomes recorded per request/response exchange.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
)

// FrameView is the recorded shape of one frame: raw wire bytes as hex plus
// the decoded fields. PayloadText is best-effort; payloads that are not valid
// text are flagged binary instead.
type FrameView struct {
	Command       string `json:"command"`
	Nonce         uint32 `json:"nonce"`
	PayloadHex    string `json:"payload_hex"`
	PayloadText   string `json:"payload_text,omitempty"`
	PayloadBinary bool   `json:"payload_binary,omitempty"`
	FrameHex      string `json:"frame_hex"`
}

// NewFrameView captures a decoded frame and its raw wire bytes.
func NewFrameView(f frame.Frame, wire []byte) FrameView {
	v := FrameView{
		Command:    f.Cmd.String(),
		Nonce:      f.Nonce,
		PayloadHex: hex.EncodeToString(f.Payload),
		FrameHex:   hex.EncodeToString(wire),
	}
	if len(f.Payload) == 0 {
		return v
	}
	if utf8.Valid(f.Payload) {
		v.PayloadText = string(f.Payload)
	} else {
		v.PayloadBinary = true
	}
	return v
}

// Payload returns the raw payload bytes recovered from the hex view.
func (v FrameView) Payload() ([]byte, error) {
	return hex.DecodeString(v.PayloadHex)
}

// CommandCode returns the protocol code for the recorded command name.
func (v FrameView) CommandCode() (protocol.Command, bool) {
	return protocol.ParseCommand(v.Command)
}

// Record is one completed request/response round.
type Record struct {
	Step      int       `json:"step"`
	Timestamp time.Time `json:"timestamp"`
	Request   FrameView `json:"request"`
	Response  FrameView `json:"response"`
	Outcome   string    `json:"outcome"`
}

// Log is one fully loaded session recording.
type Log struct {
	SessionID string
	StartedAt time.Time
	Records   []Record
}
