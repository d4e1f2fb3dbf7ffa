package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/minitelctl/internal/client"
	"github.com/danmuck/minitelctl/internal/observability"
	"github.com/danmuck/minitelctl/internal/session"
)

func main() {
	cfgPath := flag.String("config", "", "path to mission toml config")
	addr := flag.String("addr", "", "server address host:port (overrides config)")
	record := flag.Bool("record", false, "record the session to the recordings dir")
	compress := flag.Bool("compress", false, "zstd-compress the session log")
	probe := flag.Bool("test", false, "connection test only (single HELLO round)")
	flag.Parse()

	observability.InitLogger("minitelctl")

	cfg := defaultMissionConfig()
	if *cfgPath != "" {
		loaded, err := loadMissionConfig(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "minitelctl: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Client.Address = *addr
	}
	if *compress {
		cfg.Compress = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rec *session.Recorder
	if *record && !*probe {
		name := fmt.Sprintf("mission_%s.jsonl", time.Now().Format("20060102_150405"))
		if cfg.Compress {
			name += ".zst"
		}
		path := filepath.Join(cfg.RecordingsDir, name)
		r, err := session.Create(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "minitelctl: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			if err := r.Close(); err != nil {
				log.Error().Err(err).Msg("close recording")
			}
		}()
		rec = r
		log.Info().Str("path", path).Str("session_id", r.SessionID()).Msg("recording session")
	}

	var missionRec client.Recorder
	if rec != nil {
		missionRec = rec
	}
	mission, err := client.NewMission(cfg.Client, missionRec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "minitelctl: %v\n", err)
		os.Exit(1)
	}

	if *probe {
		if err := mission.Probe(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "minitelctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("connection test ok")
		return
	}

	res, err := mission.Run(ctx, client.DefaultScript())
	if err != nil {
		fmt.Fprintf(os.Stderr, "minitelctl: %v\n", err)
		os.Exit(1)
	}

	switch res.Outcome {
	case client.OutcomeSucceeded:
		log.Info().Int("attempts", res.Attempts).Msg("mission succeeded")
		fmt.Printf("override code: %s\n", res.OverrideCode)
	case client.OutcomeAborted:
		fmt.Fprintf(os.Stderr, "minitelctl: mission aborted: %s\n", res.Reason)
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "minitelctl: mission failed: %s\n", res.Reason)
		os.Exit(1)
	}
}
