// Package export persists completed extraction results and renders the
// download formats served by the API.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/extraction"
)

// Service writes the canonical artifacts (pretty JSON plus JSONL) as soon as
// a job completes; HTML and XLSX are rendered lazily per download.
type Service struct {
	dir    string
	logger *slog.Logger
}

func NewService(dir string, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create outputs dir: %w", err)
	}
	return &Service{dir: dir, logger: logger}, nil
}

// SaveResults writes <id>.json (indented array) and <id>.jsonl (one record
// per line, same order) for the completed job.
func (s *Service) SaveResults(jobID uuid.UUID, records []extraction.Record) error {
	start := time.Now()

	pretty, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(s.jsonPath(jobID), pretty, 0o644); err != nil {
		return fmt.Errorf("write json artifact: %w", err)
	}

	jsonl, err := MarshalJSONL(records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.jsonlPath(jobID), jsonl, 0o644); err != nil {
		return fmt.Errorf("write jsonl artifact: %w", err)
	}

	s.logger.Info("export.save.ok",
		"job_id", jobID.String(),
		"records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// LoadResults reads the canonical JSON artifact back.
func (s *Service) LoadResults(jobID uuid.UUID) ([]extraction.Record, error) {
	b, err := os.ReadFile(s.jsonPath(jobID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.NewAppError("RESULTS_NOT_FOUND", "no results stored for this job", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read json artifact: %w", err)
	}
	var records []extraction.Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("corrupt json artifact for job %s: %w", jobID, err)
	}
	return records, nil
}

// ReadJSON returns the raw bytes of the JSON artifact for streaming.
func (s *Service) ReadJSON(jobID uuid.UUID) ([]byte, error) {
	return s.readArtifact(s.jsonPath(jobID))
}

// ReadJSONL returns the raw bytes of the JSONL artifact for streaming.
func (s *Service) ReadJSONL(jobID uuid.UUID) ([]byte, error) {
	return s.readArtifact(s.jsonlPath(jobID))
}

// Delete removes every artifact belonging to the job. Used by the retention
// sweep; missing files are not an error.
func (s *Service) Delete(jobID uuid.UUID) {
	for _, p := range []string{s.jsonPath(jobID), s.jsonlPath(jobID)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("export.delete_failed", "path", p, "error", err)
		}
	}
}

func (s *Service) readArtifact(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.NewAppError("RESULTS_NOT_FOUND", "no results stored for this job", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return b, nil
}

func (s *Service) jsonPath(jobID uuid.UUID) string {
	return filepath.Join(s.dir, jobID.String()+".json")
}

func (s *Service) jsonlPath(jobID uuid.UUID) string {
	return filepath.Join(s.dir, jobID.String()+".jsonl")
}

// MarshalJSONL encodes records one compact JSON object per line, preserving
// order so the JSONL artifact round-trips against the JSON one.
func MarshalJSONL(records []extraction.Record) ([]byte, error) {
	var out []byte
	for i, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal record %d: %w", i, err)
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out, nil
}

// UnmarshalJSONL decodes a JSONL artifact back into ordered records.
func UnmarshalJSONL(data []byte) ([]extraction.Record, error) {
	var records []extraction.Record
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var rec extraction.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode jsonl record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	return records, nil
}
