// Package statusserver exposes the worker's health and Prometheus metrics
// endpoints on a small dedicated HTTP surface, separate from the (out-of-
// scope) upload API.
package statusserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/snarg/audio-correct/internal/metrics"
	"github.com/snarg/audio-correct/internal/store"
)

// Server wraps a minimal gin engine with /healthz and /metrics.
type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// New builds the status server. st may be nil, in which case /healthz
// reports degraded without a store ping.
func New(addr string, st *store.Store, version string, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.InstrumentHandler())

	r.GET("/healthz", func(c *gin.Context) {
		if st == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "version": version})
			return
		}
		if err := st.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error(), "version": version})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log.With().Str("component", "statusserver").Logger(),
	}
}

// Start blocks, serving until Shutdown is called. Returns nil on a clean
// shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("status server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("status server shutting down")
	return s.http.Shutdown(ctx)
}
