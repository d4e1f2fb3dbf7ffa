package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/minitelctl/internal/observability"
)

// AdminRouter builds the observability HTTP surface for one dispatcher. It
// never touches protocol state beyond read-only counters.
func (s *Server) AdminRouter(node string, corsOrigins []string) *gin.Engine {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(node))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  s.Uptime().String(),
			"node":    node,
			"version": "0.0.1",
		})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":  s.Addr() != nil,
			"uptime": s.Uptime().String(),
			"node":   node,
		})
	})

	r.GET("/status", func(c *gin.Context) {
		addr := ""
		if a := s.Addr(); a != nil {
			addr = a.String()
		}
		c.JSON(http.StatusOK, gin.H{
			"node":               node,
			"listen_addr":        addr,
			"active_connections": s.ActiveConnections(),
			"idle_timeout":       s.cfg.IdleTimeout.String(),
			"uptime":             s.Uptime().String(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// ServeAdmin runs the admin surface until ctx is cancelled.
func (s *Server) ServeAdmin(ctx context.Context, node, addr string, corsOrigins []string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.AdminRouter(node, corsOrigins),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("minitel admin listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
