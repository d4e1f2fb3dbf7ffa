// Package server runs the MiniTel-Lite dispatcher: one goroutine per
// accepted connection, each owning its nonce sequencer, protocol state, and
// dump attempt counter for the connection's lifetime. Nothing mutable is
// shared across connections.
package server
