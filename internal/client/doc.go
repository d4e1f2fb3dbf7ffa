// Package client drives one mission script against a MiniTel-Lite server.
//
// A mission run owns a single logical thread of control: rounds within one
// connection are strictly sequential, and any connection-level failure
// restarts the whole script from HELLO on a fresh connection, because nonce
// state never survives a reconnect.
package client
