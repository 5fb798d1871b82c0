package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	// DefaultHTTPAddr is the default address of the MCP HTTP transport.
	DefaultHTTPAddr = ":8080"

	// MCPEndpointPath is where the streamable HTTP transport is served.
	MCPEndpointPath = "/mcp"
)

// HTTPServerConfig configures the streamable HTTP transport.
type HTTPServerConfig struct {
	Addr string

	// BearerToken, when set, is required in the Authorization header of
	// every MCP request. Health probes stay unauthenticated.
	BearerToken string

	// Health serves the probes next to the MCP endpoint when set.
	Health *HealthChecker
}

// HTTPServer serves an MCP server over the streamable HTTP transport.
type HTTPServer struct {
	mcpServer *mcpserver.MCPServer
	sc        *ServerContext
	config    HTTPServerConfig

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewHTTPServer creates the HTTP transport for mcpServer.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, fmt.Errorf("mcp server is required")
	}
	if sc == nil {
		return nil, fmt.Errorf("server context is required")
	}
	if config.Addr == "" {
		config.Addr = DefaultHTTPAddr
	}
	return &HTTPServer{mcpServer: mcpServer, sc: sc, config: config}, nil
}

// Handler returns the routed and instrumented handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpointPath),
	)
	var mcpHandler http.Handler = streamable
	if s.config.BearerToken != "" {
		mcpHandler = requireBearer(s.config.BearerToken, mcpHandler)
	}
	mux.Handle(MCPEndpointPath, mcpHandler)

	if s.config.Health != nil {
		s.config.Health.RegisterHealthEndpoints(mux)
	}

	return s.instrument(mux)
}

// Listen binds the socket so Addr reports the real port.
func (s *HTTPServer) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("http server listen on %s: %w", s.config.Addr, err)
	}
	s.listener = ln
	s.config.Addr = ln.Addr().String()
	return nil
}

// Start serves until Shutdown is called. It blocks.
func (s *HTTPServer) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	// No WriteTimeout: streamable responses may stay open for server events.
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv, ln := s.httpServer, s.listener
	s.mu.Unlock()

	s.sc.Logger().Info("starting MCP HTTP server", slog.String("addr", s.Addr()), slog.String("path", MCPEndpointPath))
	return srv.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, ln := s.httpServer, s.listener
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	if ln != nil {
		return ln.Close()
	}
	return nil
}

// Addr returns the listen address, with the bound port once listening.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Addr
}

// instrument records every request in the HTTP metrics.
func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.sc.Metrics().RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func requireBearer(token string, next http.Handler) http.Handler {
	want := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="autoagenda"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
