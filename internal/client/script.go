package client

import "github.com/danmuck/minitelctl/internal/protocol"

// Step is one scripted request: a command plus an optional payload builder.
type Step struct {
	Cmd     protocol.Command
	Payload func() []byte
}

// Script is the ordered request sequence one mission executes. It is data:
// the retry/reconnect machinery never depends on a specific sequence.
type Script []Step

// DefaultScript is the override-code retrieval sequence: authenticate, let
// the first DUMP fail, collect the second, then stop cleanly.
func DefaultScript() Script {
	return Script{
		{Cmd: protocol.CmdHello},
		{Cmd: protocol.CmdDump},
		{Cmd: protocol.CmdDump},
		{Cmd: protocol.CmdStop},
	}
}

// ProbeScript is the connection test sequence: a single HELLO round.
func ProbeScript() Script {
	return Script{
		{Cmd: protocol.CmdHello},
	}
}
