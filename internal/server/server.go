// Package server implements the development server: it serves the build
// output, injects a live-reload client into HTML pages, pushes reload
// notifications over a WebSocket after every rebuild and replaces the site
// with an error overlay while the last build is failing.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mtb-build/mtb/internal/build"
	"github.com/mtb-build/mtb/internal/config"
	"github.com/mtb-build/mtb/internal/logging"
	"github.com/mtb-build/mtb/internal/monitoring"
	"github.com/mtb-build/mtb/internal/validation"
)

// Server serves one project's output directory.
type Server struct {
	config     *config.Config
	builder    *build.Builder
	hub        *Hub
	health     *monitoring.HealthMonitor
	metrics    *monitoring.Metrics
	logger     logging.Logger
	version    string
	httpServer *http.Server
	mutex      sync.RWMutex

	shutdownOnce sync.Once
}

// New creates a server around builder. The server subscribes to the
// builder's results; metrics may be nil.
func New(cfg *config.Config, builder *build.Builder, logger logging.Logger, metrics *monitoring.Metrics, version string) *Server {
	logger = logging.OrNop(logger).WithComponent("server")

	health := monitoring.NewHealthMonitor(logger)
	health.RegisterCheck(monitoring.DirectoryHealthChecker("components", cfg.Directories.Components, false))
	health.RegisterCheck(monitoring.DirectoryHealthChecker("output", cfg.Directories.Output, true))

	s := &Server{
		config:  cfg,
		builder: builder,
		hub:     NewHub(logger, metrics),
		health:  health,
		metrics: metrics,
		logger:  logger,
		version: version,
	}
	health.RegisterCheck(monitoring.NewHealthCheckFunc("build", false, s.checkBuild))
	builder.AddCallback(s.handleBuildResult)

	return s
}

// Hub returns the live-reload hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(securityHeaders)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.health.HTTPHandler(s.version))
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/components", s.handleComponents)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/*", s.handleStatic)

	return r
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
}

// URL returns the address browsers should open.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Start listens until ctx is cancelled or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.mutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.mutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	if s.config.Server.Open {
		go s.openBrowser(s.URL())
	}

	s.logger.Info(ctx, "dev server listening", "url", s.URL(), "live_reload", s.config.Server.LiveReload)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server and disconnects clients.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down server")
		s.hub.Close()

		s.mutex.RLock()
		server := s.httpServer
		s.mutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

// allowedHosts lists the origins accepted on /ws.
func (s *Server) allowedHosts() []string {
	port := strconv.Itoa(s.config.Server.Port)
	hosts := []string{
		net.JoinHostPort(s.config.Server.Host, port),
		net.JoinHostPort("localhost", port),
		net.JoinHostPort("127.0.0.1", port),
	}
	return append(hosts, s.config.Server.AllowedOrigins...)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.config.Server.LiveReload {
		http.NotFound(w, r)
		return
	}
	s.hub.ServeWS(w, r, s.allowedHosts())
}

// handleBuildResult pushes a notification after every build.
func (s *Server) handleBuildResult(result *build.Result, err error) {
	if err != nil {
		s.hub.Broadcast(UpdateMessage{Type: MessageBuildError, Content: err.Error()})
		return
	}
	s.hub.Broadcast(UpdateMessage{Type: MessageReload})
	s.metrics.ReloadBroadcast()
}

func (s *Server) checkBuild(ctx context.Context) monitoring.HealthCheck {
	check := monitoring.HealthCheck{Name: "build", Status: monitoring.HealthStatusHealthy, Message: "last build succeeded"}

	result, err := s.builder.LastResult()
	switch {
	case result == nil:
		check.Message = "no build yet"
	case err != nil:
		check.Status = monitoring.HealthStatusDegraded
		check.Message = err.Error()
	}

	return check
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) openBrowser(url string) {
	time.Sleep(100 * time.Millisecond)

	if err := validation.ValidateURL(url); err != nil {
		s.logger.Warn(context.Background(), err, "browser open failed due to invalid URL")
		return
	}

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		s.logger.Warn(context.Background(), err, "failed to open browser")
	}
}
