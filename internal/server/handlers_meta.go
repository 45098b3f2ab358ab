package server

import (
	"net/http"
	"time"

	"github.com/lexakit/lexa/internal/provider"
)

type healthResponse struct {
	Status          string   `json:"status"`
	Version         string   `json:"version"`
	Timestamp       string   `json:"timestamp"`
	AvailableModels []string `json:"available_models"`
}

// handleHealth is unauthenticated so load balancers can probe it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          "healthy",
		Version:         Version,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		AvailableModels: s.availableModels(),
	})
}

// handleModels returns the full catalog with availability flags.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, provider.Catalog(s.hasKey))
}
