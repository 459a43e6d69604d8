package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"linkhub-gateway/internal/middleware"
)

// Server represents the HTTP server with configured middleware
type Server struct {
	Router *mux.Router
}

// New creates a new server instance and attaches middlewares
func New() *Server {
	router := mux.NewRouter()

	// Order matters: request id first so every log line carries it, then
	// logging, then panic recovery closest to the handlers.
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.ErrorHandlerMiddleware)

	return &Server{
		Router: router,
	}
}

// Handler is the root http.Handler. CORS sits outside the router so
// preflights are answered for paths whose routes lack OPTIONS.
func (s *Server) Handler() http.Handler {
	return middleware.CorsMiddleware(s.Router)
}
