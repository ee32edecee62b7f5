// Package server implements the reference legal-chat backend: the
// WebSocket chat endpoint plus the HTTP side channel the client expects.
package server

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/silsgah/Ghana-Legal-AI/internal/config"
	"github.com/silsgah/Ghana-Legal-AI/internal/expert"
	"github.com/silsgah/Ghana-Legal-AI/internal/memory"
)

// historyLimit caps how many stored turns feed one reply.
const historyLimit = 40

// Server wires the chat WebSocket and HTTP endpoints.
type Server struct {
	cfg       *config.Config
	log       *zap.Logger
	store     *memory.Store
	responder Responder
	echo      *echo.Echo
	upgrader  websocket.Upgrader
}

// New creates the server. responder generates the expert replies; store
// holds the conversation memory that /reset-memory discards.
func New(cfg *config.Config, store *memory.Store, responder Responder, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		cfg:       cfg,
		log:       log,
		store:     store,
		responder: responder,
		echo:      e,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The real deployment fronts this with CORS config; allow all here.
				return true
			},
		},
	}

	e.GET("/ws/chat", s.handleChat)
	e.POST("/reset-memory", s.handleResetMemory)
	e.GET("/experts", s.handleExperts)
	e.GET("/health", s.handleHealth)

	return s
}

// Start starts the server.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// handleResetMemory discards all server-held conversation state.
func (s *Server) handleResetMemory(c echo.Context) error {
	if err := s.store.Reset(c.Request().Context()); err != nil {
		s.log.Error("failed to reset conversation memory", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	s.log.Info("conversation memory reset")
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleExperts lists the available expert personas.
func (s *Server) handleExperts(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"experts": expert.All(),
	})
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
