package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the latest telemetry over HTTP.
type Server struct {
	engine  *gin.Engine
	latest  *Latest
	history *History
	log     zerolog.Logger
}

// NewServer creates the HTTP API. history may be nil to omit /api/history and
// gatherer may be nil to omit /metrics.
func NewServer(latest *Latest, history *History, gatherer prometheus.Gatherer, log zerolog.Logger) *Server {
	s := &Server{
		engine:  gin.New(),
		latest:  latest,
		history: history,
		log:     log,
	}
	s.engine.Use(gin.Recovery(), s.accessLog())

	s.engine.GET("/healthz", s.health)
	api := s.engine.Group("/api")
	api.GET("/latest", s.listLatest)
	api.GET("/latest/:address", s.getLatest)
	if history != nil {
		api.GET("/history/:address", s.getHistory)
	}
	if gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"devices": len(s.latest.All()),
	})
}

func (s *Server) listLatest(c *gin.Context) {
	c.JSON(http.StatusOK, s.latest.All())
}

func (s *Server) getLatest(c *gin.Context) {
	address, err := strconv.Atoi(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}
	m, ok := s.latest.Get(address)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no telemetry from address"})
		return
	}
	c.JSON(http.StatusOK, m)
}

// getHistory returns stored messages, decimated to ?points= (default 200).
func (s *Server) getHistory(c *gin.Context) {
	address, err := strconv.Atoi(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}
	points, err := strconv.Atoi(c.DefaultQuery("points", "200"))
	if err != nil || points < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid points"})
		return
	}
	msgs := s.history.Get(address, points)
	if msgs == nil {
		msgs = []Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
