// Package server exposes verification and solving over a REST API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"equix/internal/miner"
	"equix/pkg/oracle"
)

var log = logrus.WithField("prefix", "server")

// Config for the REST server
type Config struct {
	Listen string

	// ReplayCache is the number of redeemed challenges remembered
	ReplayCache int

	// MinDifficulty is the score a valid solution needs to be accepted
	MinDifficulty uint32

	// ChallengeTTL is how long an issued seed stays redeemable
	ChallengeTTL time.Duration

	// RequireIssued only accepts solutions for seeds handed out by
	// POST /api/v1/challenge
	RequireIssued bool
}

// Server serves the equix REST API
type Server struct {
	cfg     Config
	method  oracle.Method
	pool    *miner.Pool
	ledger  *Ledger
	router  *gin.Engine
	started time.Time
}

// New builds the server and its routes. pool is shared with solve requests.
func New(cfg Config, method oracle.Method, pool *miner.Pool) (*Server, error) {
	if cfg.ReplayCache <= 0 {
		cfg.ReplayCache = 4096
	}
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = 5 * time.Minute
	}
	ledger, err := NewLedger(cfg.ReplayCache, cfg.ChallengeTTL)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		method:  method,
		pool:    pool,
		ledger:  ledger,
		started: time.Now(),
	}
	s.router = s.routes()
	return s, nil
}

// Ledger returns the replay ledger, so other transports can share it
func (s *Server) Ledger() *Ledger {
	return s.ledger
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	api := router.Group("/api/v1")
	{
		api.GET("/health", s.handleHealth)
		api.POST("/challenge", s.handleChallenge)
		api.POST("/verify", s.handleVerify)
		api.POST("/solve", s.handleSolve)
		api.POST("/difficulty", s.handleDifficulty)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on cfg.Listen until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("address", s.cfg.Listen).Info("API server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "api server")
	case <-ctx.Done():
	}

	log.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "api server shutdown")
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("Request served")
	}
}
