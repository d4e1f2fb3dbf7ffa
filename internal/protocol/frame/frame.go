package frame

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"

	"github.com/danmuck/minitelctl/internal/protocol"
)

const (
	// LenPrefixLen is the envelope length prefix size.
	LenPrefixLen = 2
	// HashLen is the trailing SHA-256 digest size.
	HashLen = sha256.Size
	// MinFrameLen is CMD + NONCE + HASH, the smallest legal binary frame.
	MinFrameLen = 1 + 4 + HashLen
	// MaxEnvelopeLen is the largest base64 text a u16 prefix can describe.
	MaxEnvelopeLen = 0xFFFF
)

var (
	ErrFrameTooShort   = errors.New("frame: short envelope")
	ErrBase64Decode    = errors.New("frame: invalid base64 body")
	ErrFrameTooSmall   = errors.New("frame: binary frame below fixed-field minimum")
	ErrIntegrity       = errors.New("frame: integrity hash mismatch")
	ErrFrameTooLarge   = errors.New("frame: envelope exceeds length prefix range")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// Frame is one decoded MiniTel-Lite message.
type Frame struct {
	Cmd     protocol.Command
	Nonce   uint32
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 16 * 1024}
}

func digest(cmd protocol.Command, nonce uint32, payload []byte) [HashLen]byte {
	h := sha256.New()
	var head [5]byte
	head[0] = byte(cmd)
	binary.BigEndian.PutUint32(head[1:5], nonce)
	h.Write(head[:])
	h.Write(payload)
	var sum [HashLen]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// Encode builds the wire envelope:
//
//	LEN (u16 BE) || base64(CMD || NONCE (u32 BE) || PAYLOAD || SHA256)
func Encode(f Frame, limits Limits) ([]byte, error) {
	if limits.MaxPayloadBytes > 0 && len(f.Payload) > limits.MaxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}

	bin := make([]byte, 0, MinFrameLen+len(f.Payload))
	bin = append(bin, byte(f.Cmd))
	bin = binary.BigEndian.AppendUint32(bin, f.Nonce)
	bin = append(bin, f.Payload...)
	sum := digest(f.Cmd, f.Nonce, f.Payload)
	bin = append(bin, sum[:]...)

	b64Len := base64.StdEncoding.EncodedLen(len(bin))
	if b64Len > MaxEnvelopeLen {
		return nil, ErrFrameTooLarge
	}

	out := make([]byte, LenPrefixLen+b64Len)
	binary.BigEndian.PutUint16(out[0:LenPrefixLen], uint16(b64Len))
	base64.StdEncoding.Encode(out[LenPrefixLen:], bin)
	return out, nil
}

// Decode parses one complete wire envelope. The caller must supply at least
// the bytes the length prefix declares; fewer is ErrFrameTooShort and the
// caller should buffer and retry the read.
func Decode(wire []byte, limits Limits) (Frame, error) {
	if len(wire) < LenPrefixLen {
		return Frame{}, ErrFrameTooShort
	}
	b64Len := int(binary.BigEndian.Uint16(wire[0:LenPrefixLen]))
	if len(wire) < LenPrefixLen+b64Len {
		return Frame{}, ErrFrameTooShort
	}

	bin := make([]byte, base64.StdEncoding.DecodedLen(b64Len))
	n, err := base64.StdEncoding.Decode(bin, wire[LenPrefixLen:LenPrefixLen+b64Len])
	if err != nil {
		return Frame{}, ErrBase64Decode
	}
	bin = bin[:n]

	if len(bin) < MinFrameLen {
		return Frame{}, ErrFrameTooSmall
	}
	if limits.MaxPayloadBytes > 0 && len(bin)-MinFrameLen > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}

	f := Frame{
		Cmd:     protocol.Command(bin[0]),
		Nonce:   binary.BigEndian.Uint32(bin[1:5]),
		Payload: bytes.Clone(bin[5 : len(bin)-HashLen]),
	}
	sum := digest(f.Cmd, f.Nonce, f.Payload)
	if subtle.ConstantTimeCompare(sum[:], bin[len(bin)-HashLen:]) != 1 {
		return Frame{}, ErrIntegrity
	}
	return f, nil
}

// ReadFrame reads exactly one envelope from r and decodes it. It returns the
// raw wire bytes alongside the frame so callers can record the exchange
// byte-for-byte.
func ReadFrame(r io.Reader, limits Limits) (Frame, []byte, error) {
	var prefix [LenPrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, nil, ErrFrameTooShort
		}
		return Frame{}, nil, err
	}

	b64Len := int(binary.BigEndian.Uint16(prefix[:]))
	wire := make([]byte, LenPrefixLen+b64Len)
	copy(wire, prefix[:])
	if _, err := io.ReadFull(r, wire[LenPrefixLen:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, nil, ErrFrameTooShort
		}
		return Frame{}, nil, err
	}

	f, err := Decode(wire, limits)
	if err != nil {
		return Frame{}, nil, err
	}
	return f, wire, nil
}

// WriteFrame encodes f and writes the whole envelope to w, returning the raw
// wire bytes that went out.
func WriteFrame(w io.Writer, f Frame, limits Limits) ([]byte, error) {
	wire, err := Encode(f, limits)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(wire); err != nil {
		return nil, err
	}
	return wire, nil
}
