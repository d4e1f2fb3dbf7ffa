package protocol

import "testing"

func TestCommandNamesRoundTrip(t *testing.T) {
	for _, cmd := range []Command{
		CmdHello, CmdDump, CmdStop,
		CmdHelloAck, CmdDumpFailed, CmdDumpOK, CmdStopOK,
	} {
		parsed, ok := ParseCommand(cmd.String())
		if !ok || parsed != cmd {
			t.Fatalf("parse %q: got (%v, %v)", cmd.String(), parsed, ok)
		}
	}
}

func TestUnknownCommandName(t *testing.T) {
	if got := Command(0x7F).String(); got != "UNKNOWN_0x7f" {
		t.Fatalf("unexpected name: %q", got)
	}
	if _, ok := ParseCommand("NOPE"); ok {
		t.Fatal("ParseCommand accepted garbage")
	}
}

func TestCommandDirection(t *testing.T) {
	if !CmdHello.IsRequest() || CmdHello.IsResponse() {
		t.Fatal("HELLO direction wrong")
	}
	if !CmdDumpOK.IsResponse() || CmdDumpOK.IsRequest() {
		t.Fatal("DUMP_OK direction wrong")
	}
}
