// Package server exposes the extraction service over HTTP: auth, metadata,
// extraction submission, job polling, and result downloads.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lexakit/lexa/internal/auth"
	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/export"
	"github.com/lexakit/lexa/internal/jobs"
	"github.com/lexakit/lexa/internal/provider"
	"github.com/lexakit/lexa/internal/upload"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Server wires the HTTP surface to the tracker, exporter, uploader, and auth
// components.
type Server struct {
	cfg      *common.Config
	logger   *slog.Logger
	tracker  *jobs.Tracker
	exporter *export.Service
	uploader *upload.Handler
	users    *auth.UserStore
	issuer   *auth.TokenIssuer

	http *http.Server
}

func NewServer(
	cfg *common.Config,
	tracker *jobs.Tracker,
	exporter *export.Service,
	uploader *upload.Handler,
	users *auth.UserStore,
	issuer *auth.TokenIssuer,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		tracker:  tracker,
		exporter: exporter,
		uploader: uploader,
		users:    users,
		issuer:   issuer,
	}
	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.routes(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/token", s.handleToken)
	mux.HandleFunc("GET /health", s.handleHealth)

	protected := func(h http.HandlerFunc) http.Handler {
		return s.requireAuth(h, auth.RoleAdmin, "user")
	}
	mux.Handle("GET /models", protected(s.handleModels))
	mux.Handle("POST /extract", protected(s.handleExtract))
	mux.Handle("POST /extract/batch", protected(s.handleExtractBatch))
	mux.Handle("POST /extract/file", protected(s.handleExtractFile))
	mux.Handle("GET /extract/{id}/status", protected(s.handleStatus))
	mux.Handle("GET /extract/{id}/download", protected(s.handleDownload))

	var handler http.Handler = mux
	handler = s.withCORS(handler)
	handler = s.withLogging(handler)
	handler = s.withRequestID(handler)
	return handler
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server.listen", "addr", s.http.Addr, "version", Version)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server.shutdown")
	return s.http.Shutdown(ctx)
}

// availableModels lists the catalog filtered down to model ids, for /health.
func (s *Server) availableModels() []string {
	descriptors := provider.Catalog(s.hasKey)
	out := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		if d.Available {
			out = append(out, d.ModelID)
		}
	}
	return out
}

func (s *Server) hasKey(tag provider.Tag) bool {
	switch tag {
	case provider.OpenAI:
		return s.cfg.Providers.OpenAIAPIKey != ""
	case provider.Gemini:
		return s.cfg.Providers.GeminiAPIKey != ""
	case provider.Edge:
		return s.cfg.Providers.EdgeAPIToken != "" && s.cfg.Providers.EdgeAccountID != ""
	default:
		// Local inference needs no credential.
		return true
	}
}
