// Package api exposes the workspace manager over HTTP. Callers identify
// their session with the X-Session-ID header; all workspace state is scoped
// to that session.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/caseroomhq/caseroom/internal/events"
	"github.com/caseroomhq/caseroom/internal/logger"
	"github.com/caseroomhq/caseroom/internal/workspace"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Server provides the HTTP interface for workspace operations
type Server struct {
	addr    string
	manager *workspace.Manager
	hub     *events.Hub
	router  *httprouter.Router
	server  *http.Server
	log     *logger.Logger
}

// NewServer creates a new API server
func NewServer(addr string, manager *workspace.Manager, hub *events.Hub, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Global()
	}
	s := &Server{
		addr:    addr,
		manager: manager,
		hub:     hub,
		router:  httprouter.New(),
		log:     log.WithPrefix("api"),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	s.router.POST("/workspace/enter", s.handleEnter)
	s.router.POST("/workspace/exit", s.handleExit)
	s.router.GET("/workspace/current", s.handleCurrent)

	s.router.GET("/ws", s.handleWebSocket)
}

// Handler returns the server's HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server in the background
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		s.log.Info("API server listening on %s", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// handleWebSocket upgrades a connection and subscribes it to workspace
// events
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("failed to upgrade WebSocket: %v", err)
		return
	}

	client := events.NewClient(s.hub, conn)
	s.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
