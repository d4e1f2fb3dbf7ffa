package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/minitelctl/internal/config"
	"github.com/danmuck/minitelctl/internal/observability"
	"github.com/danmuck/minitelctl/internal/server"
)

func main() {
	cfgPath := flag.String("config", "", "path to joshuad toml config")
	addr := flag.String("addr", "", "protocol listen address (overrides config)")
	adminAddr := flag.String("admin", "", "admin HTTP listen address (overrides config)")
	flag.Parse()

	observability.InitLogger("joshuad")

	cfg := server.DefaultConfig()
	node := "joshua"
	admin := ""
	var corsOrigins []string

	if *cfgPath != "" {
		fileCfg, err := config.LoadServerConfig(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "joshuad: %v\n", err)
			os.Exit(1)
		}
		node = fileCfg.Node
		admin = fileCfg.AdminAddr
		corsOrigins = fileCfg.CorsOrigins
		cfg.ListenAddr = fileCfg.Addr
		if fileCfg.Secret != "" {
			cfg.Secret = fileCfg.Secret
		}
		if fileCfg.IdleTimeout != "" {
			d, err := time.ParseDuration(fileCfg.IdleTimeout)
			if err != nil {
				fmt.Fprintf(os.Stderr, "joshuad: idle_timeout: %v\n", err)
				os.Exit(1)
			}
			cfg.IdleTimeout = d
		}
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *adminAddr != "" {
		admin = *adminAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg)
	if err := srv.Listen(); err != nil {
		fmt.Fprintf(os.Stderr, "joshuad: %v\n", err)
		os.Exit(1)
	}

	if admin != "" {
		go func() {
			if err := srv.ServeAdmin(ctx, node, admin, corsOrigins); err != nil {
				log.Error().Err(err).Msg("admin server stopped")
			}
		}()
	}

	if err := srv.Serve(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "joshuad: %v\n", err)
		os.Exit(1)
	}
}
