package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/danmuck/minitelctl/internal/session"
)

func main() {
	summary := flag.Bool("summary", false, "print every step and exit")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: replayctl [-summary] <session-log>")
		os.Exit(2)
	}

	logData, err := session.LoadLog(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "replayctl: %v\n", err)
		os.Exit(1)
	}
	replayer := session.NewReplayer(logData)
	fmt.Printf("session %s: %d steps\n", replayer.SessionID(), replayer.Len())

	if *summary {
		replayer.Rewind()
		for {
			rec, ok := replayer.Current()
			if !ok {
				break
			}
			printStep(rec, replayer.Len())
			if !replayer.Next() {
				break
			}
		}
		return
	}

	if rec, ok := replayer.Current(); ok {
		printStep(rec, replayer.Len())
	}
	fmt.Println("commands: n(ext) p(rev) g <step> r(ewind) q(uit)")

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			return
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "n", "next":
			if !replayer.Next() {
				fmt.Println("at last step")
			}
		case "p", "prev":
			if !replayer.Previous() {
				fmt.Println("at first step")
			}
		case "g", "goto":
			if len(fields) != 2 {
				fmt.Println("usage: g <step>")
				continue
			}
			idx, err := strconv.Atoi(fields[1])
			if err != nil || !replayer.Jump(idx) {
				fmt.Printf("no step %s\n", fields[1])
				continue
			}
		case "r", "rewind":
			replayer.Rewind()
		case "q", "quit":
			return
		default:
			fmt.Println("commands: n(ext) p(rev) g <step> r(ewind) q(uit)")
			continue
		}
		if rec, ok := replayer.Current(); ok {
			printStep(rec, replayer.Len())
		}
	}
}

func printStep(rec session.Record, total int) {
	fmt.Printf("step %d/%d  %s  outcome=%s\n",
		rec.Step+1, total, rec.Timestamp.Format("15:04:05.000"), rec.Outcome)
	fmt.Printf("  -> %s nonce=%d%s\n", rec.Request.Command, rec.Request.Nonce, payloadSuffix(rec.Request))
	fmt.Printf("  <- %s nonce=%d%s\n", rec.Response.Command, rec.Response.Nonce, payloadSuffix(rec.Response))
}

func payloadSuffix(v session.FrameView) string {
	switch {
	case v.PayloadText != "":
		return fmt.Sprintf(" %q", v.PayloadText)
	case v.PayloadBinary:
		return fmt.Sprintf(" [%s]", truncate(v.PayloadHex, 48))
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
