// Package protocol owns the MiniTel-Lite wire contract.
//
// Ownership boundary:
// - command codes and names
// - protocol-level error taxonomy
// - frame/envelope primitives (frame subpackage)
// - nonce sequencing state (sequence subpackage)
package protocol
