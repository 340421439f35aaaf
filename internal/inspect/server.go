// Package inspect serves a small HTTP API for looking at and driving a running
// navigator during development.
package inspect

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/comalice/navigatorx/internal/core"
	"github.com/comalice/navigatorx/internal/primitives"
	"github.com/comalice/navigatorx/internal/production"
)

// Server exposes a navigator over HTTP.
type Server struct {
	nav      *core.Navigator
	router   *gin.Engine
	labeler  *production.Labeler
	metrics  http.Handler
	log      zerolog.Logger
	appeared time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLabeler localises breadcrumbs in /state responses.
func WithLabeler(l *production.Labeler) Option {
	return func(s *Server) { s.labeler = l }
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the request and server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

type navigateRequest struct {
	Path          string            `json:"path" binding:"required"`
	Params        primitives.Params `json:"params"`
	DismissModals bool              `json:"dismiss_modals"`
	Replace       bool              `json:"replace"`
}

type paramsRequest struct {
	Params primitives.Params `json:"params"`
}

type stackEntry struct {
	Position int             `json:"position"`
	Route    string          `json:"route"`
	Graph    string          `json:"graph"`
	Kind     primitives.Kind `json:"kind"`
	Current  bool            `json:"current"`
}

// New builds the server and registers its routes.
func New(nav *core.Navigator, opts ...Option) *Server {
	s := &Server{
		nav:      nav,
		log:      zerolog.Nop(),
		appeared: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.log))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	s.router = r
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("inspector listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		state := s.nav.State()
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"session": state.SessionID,
			"version": state.Version,
		})
	})

	s.router.GET("/metrics", func(c *gin.Context) {
		if s.metrics == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "metrics not enabled"})
			return
		}
		s.metrics.ServeHTTP(c.Writer, c.Request)
	})

	s.router.GET("/state", func(c *gin.Context) {
		state := s.nav.State()
		if lang := c.Query("lang"); lang != "" && s.labeler != nil {
			state.Derived.Breadcrumbs = s.labeler.Label(state.Derived.Breadcrumbs, lang)
		}
		c.JSON(http.StatusOK, state)
	})

	s.router.GET("/stack", func(c *gin.Context) {
		state := s.nav.State()
		entries := make([]stackEntry, 0, len(state.Triple.BackStack))
		for _, e := range state.Triple.BackStack {
			var kind primitives.Kind
			if e.Destination != nil {
				kind = e.Destination.Kind
			}
			entries = append(entries, stackEntry{
				Position: e.Position,
				Route:    e.Route(),
				Graph:    e.GraphID,
				Kind:     kind,
				Current:  e.Same(state.Triple.Current),
			})
		}
		c.JSON(http.StatusOK, gin.H{"version": state.Version, "entries": entries})
	})

	s.router.GET("/graph.dot", func(c *gin.Context) {
		dot := s.nav.Visualize()
		if strings.HasPrefix(dot, "ERROR:") {
			c.JSON(http.StatusNotImplemented, gin.H{"error": dot})
			return
		}
		c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(dot))
	})

	s.router.POST("/navigate", func(c *gin.Context) {
		var req navigateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		op := primitives.OpNavigate
		if req.Replace {
			op = primitives.OpReplace
		}
		step := primitives.Step{
			Op:            op,
			Target:        primitives.PathTarget(strings.Trim(req.Path, "/")),
			Params:        req.Params,
			DismissModals: req.DismissModals,
		}
		s.respond(c)(s.nav.Apply(step))
	})

	s.router.POST("/back", func(c *gin.Context) {
		s.respond(c)(s.nav.Back())
	})

	flows := s.router.Group("/flows")
	flows.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"flows": s.nav.Flows(), "active": s.nav.State().Flow})
	})
	flows.POST("/advance", func(c *gin.Context) {
		var req paramsRequest
		if !bindOptional(c, &req) {
			return
		}
		s.respond(c)(s.nav.AdvanceFlow(req.Params))
	})
	flows.POST("/exit", func(c *gin.Context) {
		s.respond(c)(s.nav.ExitFlow())
	})
	flows.POST("/:route/start", func(c *gin.Context) {
		route := c.Param("route")
		if _, ok := s.nav.EffectiveFlow(route); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": primitives.ErrFlowNotFound.Error(), "flow": route})
			return
		}
		var req paramsRequest
		if !bindOptional(c, &req) {
			return
		}
		s.respond(c)(s.nav.StartFlow(route, req.Params))
	})
}

// bindOptional binds a JSON body when one was sent.
func bindOptional(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (s *Server) respond(c *gin.Context) func(core.NavState, error) {
	return func(state core.NavState, err error) {
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error(), "version": state.Version})
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, primitives.ErrRouteNotFound), errors.Is(err, primitives.ErrFlowNotFound):
		return http.StatusNotFound
	case errors.Is(err, primitives.ErrInvalidOperation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, primitives.ErrNoActiveFlow):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
