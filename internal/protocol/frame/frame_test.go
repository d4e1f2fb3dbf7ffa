package frame

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/danmuck/minitelctl/internal/protocol"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Frame{
		{Cmd: protocol.CmdHello, Nonce: 0},
		{Cmd: protocol.CmdDump, Nonce: 4},
		{Cmd: protocol.CmdDumpOK, Nonce: 5, Payload: []byte("FLAG{MINITEL_MASTER_2025}")},
		{Cmd: protocol.CmdStopOK, Nonce: 0xFFFFFFFF, Payload: []byte{0x00, 0xFF, 0x80}},
	}
	for _, in := range cases {
		wire, err := Encode(in, DefaultLimits())
		if err != nil {
			t.Fatalf("encode %v: %v", in.Cmd, err)
		}
		out, err := Decode(wire, DefaultLimits())
		if err != nil {
			t.Fatalf("decode %v: %v", in.Cmd, err)
		}
		if out.Cmd != in.Cmd || out.Nonce != in.Nonce || !bytes.Equal(out.Payload, in.Payload) {
			t.Fatalf("round trip mismatch: got=%+v want=%+v", out, in)
		}
	}
}

func TestEncodeEnvelopeShape(t *testing.T) {
	wire, err := Encode(Frame{Cmd: protocol.CmdHello, Nonce: 0}, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	declared := int(binary.BigEndian.Uint16(wire[0:2]))
	if declared != len(wire)-LenPrefixLen {
		t.Fatalf("length prefix %d does not match body %d", declared, len(wire)-LenPrefixLen)
	}
	bin, err := base64.StdEncoding.DecodeString(string(wire[2:]))
	if err != nil {
		t.Fatalf("body is not base64: %v", err)
	}
	if len(bin) != MinFrameLen {
		t.Fatalf("empty-payload frame should be %d bytes, got %d", MinFrameLen, len(bin))
	}
}

func TestDecodeShortEnvelope(t *testing.T) {
	if _, err := Decode([]byte{0x00}, DefaultLimits()); !errors.Is(err, ErrFrameTooShort) {
		t.Fatalf("expected ErrFrameTooShort, got %v", err)
	}

	wire, err := Encode(Frame{Cmd: protocol.CmdHello, Nonce: 0}, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(wire[:len(wire)-1], DefaultLimits()); !errors.Is(err, ErrFrameTooShort) {
		t.Fatalf("expected ErrFrameTooShort for truncated body, got %v", err)
	}
}

func TestDecodeInvalidBase64(t *testing.T) {
	body := []byte("!!!not-base64!!!")
	wire := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(wire[0:2], uint16(len(body)))
	copy(wire[2:], body)
	if _, err := Decode(wire, DefaultLimits()); !errors.Is(err, ErrBase64Decode) {
		t.Fatalf("expected ErrBase64Decode, got %v", err)
	}
}

func TestDecodeBinaryBelowMinimum(t *testing.T) {
	body := base64.StdEncoding.EncodeToString(make([]byte, MinFrameLen-1))
	wire := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(wire[0:2], uint16(len(body)))
	copy(wire[2:], body)
	if _, err := Decode(wire, DefaultLimits()); !errors.Is(err, ErrFrameTooSmall) {
		t.Fatalf("expected ErrFrameTooSmall, got %v", err)
	}
}

func TestDecodeIntegrityBitFlip(t *testing.T) {
	in := Frame{Cmd: protocol.CmdDumpOK, Nonce: 5, Payload: []byte("override-code")}
	wire, err := Encode(in, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	bin, err := base64.StdEncoding.DecodeString(string(wire[2:]))
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}

	// Flip one bit at every binary offset: command byte, nonce, payload,
	// and the hash itself must all be load-bearing.
	for i := range bin {
		mutated := bytes.Clone(bin)
		mutated[i] ^= 0x01
		body := base64.StdEncoding.EncodeToString(mutated)
		flipped := make([]byte, 2+len(body))
		binary.BigEndian.PutUint16(flipped[0:2], uint16(len(body)))
		copy(flipped[2:], body)

		if _, err := Decode(flipped, DefaultLimits()); !errors.Is(err, ErrIntegrity) {
			t.Fatalf("offset %d: expected ErrIntegrity, got %v", i, err)
		}
	}
}

func TestEncodePayloadTooLarge(t *testing.T) {
	limits := Limits{MaxPayloadBytes: 8}
	_, err := Encode(Frame{Cmd: protocol.CmdDumpOK, Nonce: 5, Payload: make([]byte, 9)}, limits)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestDecodePayloadTooLarge(t *testing.T) {
	wire, err := Encode(Frame{Cmd: protocol.CmdDumpOK, Nonce: 5, Payload: make([]byte, 64)}, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(wire, Limits{MaxPayloadBytes: 8}); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestReadFrameStream(t *testing.T) {
	var buf bytes.Buffer
	first := Frame{Cmd: protocol.CmdHello, Nonce: 0}
	second := Frame{Cmd: protocol.CmdDump, Nonce: 2}
	if _, err := WriteFrame(&buf, first, DefaultLimits()); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if _, err := WriteFrame(&buf, second, DefaultLimits()); err != nil {
		t.Fatalf("write second: %v", err)
	}

	got, wire, err := ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	if got.Cmd != first.Cmd || got.Nonce != first.Nonce {
		t.Fatalf("first frame mismatch: %+v", got)
	}
	if reDecoded, err := Decode(wire, DefaultLimits()); err != nil || reDecoded.Cmd != first.Cmd {
		t.Fatalf("raw wire bytes do not re-decode: %v", err)
	}

	got, _, err = ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if got.Cmd != second.Cmd || got.Nonce != second.Nonce {
		t.Fatalf("second frame mismatch: %+v", got)
	}
}

func TestReadFrameTruncatedStream(t *testing.T) {
	wire, err := Encode(Frame{Cmd: protocol.CmdHello, Nonce: 0}, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, _, err = ReadFrame(bytes.NewReader(wire[:len(wire)-4]), DefaultLimits())
	if !errors.Is(err, ErrFrameTooShort) {
		t.Fatalf("expected ErrFrameTooShort, got %v", err)
	}
}
