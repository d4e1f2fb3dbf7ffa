// Package sequence tracks per-connection nonce state for both ends of a
// MiniTel-Lite connection. A value is owned by exactly one connection handler
// or client session and is never reused across connections.
package sequence

import (
	"fmt"

	"github.com/danmuck/minitelctl/internal/protocol"
)

// Conn is the server-side sequencer for one accepted connection. The first
// client frame must carry nonce 0; each accepted round consumes two nonces
// (request N, reply N+1).
type Conn struct {
	expectedInbound uint32
	replyNonce      uint32
}

// NewConn returns sequencer state for a freshly accepted connection.
func NewConn() *Conn {
	return &Conn{expectedInbound: 0, replyNonce: 1}
}

// CheckInbound validates a request nonce against the expected value. Any
// mismatch is fatal to the connection.
func (c *Conn) CheckInbound(nonce uint32) error {
	if nonce != c.expectedInbound {
		return fmt.Errorf("%w: expected %d, got %d", protocol.ErrSequence, c.expectedInbound, nonce)
	}
	return nil
}

// ReplyNonce returns the nonce the next reply must carry.
func (c *Conn) ReplyNonce() uint32 {
	return c.replyNonce
}

// Advance consumes one completed round.
func (c *Conn) Advance() {
	c.expectedInbound += 2
	c.replyNonce += 2
}

// Client is the client-side sequencer for one connection. Requests start at
// nonce 0, each reply must carry request+1, and the next request skips the
// nonce the server consumed.
type Client struct {
	next uint32
}

// NewClient returns sequencer state for a fresh connection.
func NewClient() *Client {
	return &Client{next: 0}
}

// RequestNonce returns the nonce for the next outbound request.
func (c *Client) RequestNonce() uint32 {
	return c.next
}

// CheckReply validates a reply nonce against the request it answers.
func (c *Client) CheckReply(replyNonce uint32) error {
	if replyNonce != c.next+1 {
		return fmt.Errorf("%w: expected %d, got %d", protocol.ErrSequence, c.next+1, replyNonce)
	}
	return nil
}

// Advance consumes one completed round.
func (c *Client) Advance() {
	c.next += 2
}
