package expense

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerConfig holds the HTTP adapter settings
type ServerConfig struct {
	// Environment is reported by /status
	Environment string
	Language    Language
	// BotConnected reports whether the chat listener is running; nil means never
	BotConnected func() bool
}

// Server handles HTTP requests for expenses
type Server struct {
	service    *Service
	cfg        ServerConfig
	messages   apiMessages
	mux        *http.ServeMux
	handler    http.Handler
	httpServer *http.Server
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, cfg ServerConfig) *Server {
	return NewServerWithMux(service, cfg, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, cfg ServerConfig, mux *http.ServeMux) *Server {
	if _, ok := apiCatalog[cfg.Language]; !ok {
		cfg.Language = English
	}
	s := &Server{
		service:  service,
		cfg:      cfg,
		messages: apiCatalog[cfg.Language],
		mux:      mux,
	}
	s.registerRoutes()
	s.handler = recovery(requestID(logRequests(corsMiddleware(s.mux))))
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /add_expense", s.handleAddExpense)
	s.mux.HandleFunc("POST /admin/reprobe", s.handleReprobe)

	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /help", s.handleHelp)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Exact match only, so unknown paths are 404
	s.mux.HandleFunc("GET /{$}", s.handleHome)
}

// Start starts the HTTP server and blocks until it stops. After Shutdown it returns
// http.ErrServerClosed, even when Shutdown ran first.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	slog.Info("Starting server", "address", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
