package protocol

import "errors"

var (
	ErrSequence          = errors.New("protocol: nonce sequence mismatch")
	ErrProtocolViolation = errors.New("protocol: unexpected command for state")
)
