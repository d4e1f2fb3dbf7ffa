package protocol

import "fmt"

// Command is one MiniTel-Lite command code.
type Command byte

// Command codes from the v3.0 wire contract.
const (
	CmdHello      Command = 0x01
	CmdDump       Command = 0x02
	CmdStop       Command = 0x04
	CmdHelloAck   Command = 0x81
	CmdDumpFailed Command = 0x82
	CmdDumpOK     Command = 0x83
	CmdStopOK     Command = 0x84
)

// IsRequest reports whether c is a client-originated command.
func (c Command) IsRequest() bool {
	switch c {
	case CmdHello, CmdDump, CmdStop:
		return true
	}
	return false
}

// IsResponse reports whether c is a server-originated command.
func (c Command) IsResponse() bool {
	switch c {
	case CmdHelloAck, CmdDumpFailed, CmdDumpOK, CmdStopOK:
		return true
	}
	return false
}

func (c Command) String() string {
	switch c {
	case CmdHello:
		return "HELLO"
	case CmdDump:
		return "DUMP"
	case CmdStop:
		return "STOP_CMD"
	case CmdHelloAck:
		return "HELLO_ACK"
	case CmdDumpFailed:
		return "DUMP_FAILED"
	case CmdDumpOK:
		return "DUMP_OK"
	case CmdStopOK:
		return "STOP_OK"
	}
	return fmt.Sprintf("UNKNOWN_0x%02x", byte(c))
}

// ParseCommand maps a recorded command name back to its code.
func ParseCommand(name string) (Command, bool) {
	switch name {
	case "HELLO":
		return CmdHello, true
	case "DUMP":
		return CmdDump, true
	case "STOP_CMD":
		return CmdStop, true
	case "HELLO_ACK":
		return CmdHelloAck, true
	case "DUMP_FAILED":
		return CmdDumpFailed, true
	case "DUMP_OK":
		return CmdDumpOK, true
	case "STOP_OK":
		return CmdStopOK, true
	}
	return 0, false
}
