package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lexakit/lexa/constants"
	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/extraction"
	"github.com/lexakit/lexa/internal/jobs"
)

type submitResponse struct {
	ExtractionID string `json:"extraction_id"`
	Status       string `json:"status"`
}

// handleExtract accepts a JSON extraction request and queues it.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extraction.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	s.submitOne(w, r, &req)
}

func (s *Server) submitOne(w http.ResponseWriter, r *http.Request, req *extraction.Request) {
	if req.RequestID == "" {
		req.RequestID = common.RequestIDFromContext(r.Context())
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	job, err := s.tracker.Submit(r.Context(), req)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{
		ExtractionID: job.ID.String(),
		Status:       string(job.Status),
	})
}

type batchRequest struct {
	Texts []string `json:"texts"`
	extraction.Request
}

type batchItem struct {
	Index        int    `json:"index"`
	ExtractionID string `json:"extraction_id,omitempty"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

type batchResponse struct {
	BatchID string      `json:"batch_id"`
	Jobs    []batchItem `json:"jobs"`
}

// batchFanOutLimit bounds concurrent submissions, not extraction itself;
// the worker pool already caps running jobs.
const batchFanOutLimit = 8

// handleExtractBatch creates one job per text under a shared batch id.
func (s *Server) handleExtractBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, r, s.logger, common.NewAppError(
			"VALIDATION_ERROR", "texts must contain at least one entry", common.ErrInvalidInput))
		return
	}

	batchID := uuid.NewString()
	items := make([]batchItem, len(req.Texts))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(batchFanOutLimit)
	for i, text := range req.Texts {
		g.Go(func() error {
			item := batchItem{Index: i}

			sub := req.Request
			sub.Text = text
			sub.RequestID = fmt.Sprintf("%s/%d", batchID, i)
			if err := sub.Validate(); err != nil {
				item.Status = "rejected"
				item.Error = err.Error()
			} else if job, err := s.tracker.Submit(ctx, &sub); err != nil {
				item.Status = "rejected"
				item.Error = err.Error()
			} else {
				item.ExtractionID = job.ID.String()
				item.Status = string(job.Status)
			}

			mu.Lock()
			items[i] = item
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("extract.batch", "batch_id", batchID, "jobs", len(items))
	writeJSON(w, http.StatusAccepted, batchResponse{BatchID: batchID, Jobs: items})
}

// handleExtractFile accepts a multipart upload plus form fields mirroring
// the JSON request, converts the file to text, and queues the job.
func (s *Server) handleExtractFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Uploads.MaxFileSizeBytes()+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, s.logger, common.NewAppError(
			"INVALID_MULTIPART", "request body is not a valid multipart form", common.ErrInvalidInput))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, s.logger, common.NewAppError(
			"MISSING_FILE", "multipart field \"file\" is required", common.ErrInvalidInput))
		return
	}
	defer file.Close()

	text, err := s.uploader.Accept(header.Filename, header.Size, file)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	req, err := requestFromForm(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	req.Text = text
	s.submitOne(w, r, req)
}

func requestFromForm(r *http.Request) (*extraction.Request, error) {
	req := &extraction.Request{
		PromptDescription: r.FormValue("prompt_description"),
		ModelID:           r.FormValue("model_id"),
		APIKey:            r.FormValue("api_key"),
		ModelURL:          r.FormValue("model_url"),
		AdditionalContext: r.FormValue("additional_context"),
		FormatType:        r.FormValue("format_type"),
		RequestID:         r.FormValue("request_id"),
	}
	if v := r.FormValue("examples"); v != "" {
		req.Examples = json.RawMessage(v)
	}
	if v := r.FormValue("schema"); v != "" {
		req.Schema = json.RawMessage(v)
	}
	if v := r.FormValue("temperature"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, common.NewAppError("VALIDATION_ERROR", "temperature must be a number", common.ErrInvalidInput)
		}
		req.Temperature = &f
	}
	for field, dst := range map[string]*int{
		"max_char_buffer":   &req.MaxCharBuffer,
		"extraction_passes": &req.ExtractionPasses,
		"max_tokens":        &req.MaxTokens,
	} {
		if v := r.FormValue(field); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, common.NewAppError("VALIDATION_ERROR", field+" must be an integer", common.ErrInvalidInput)
			}
			*dst = n
		}
	}
	return req, nil
}

type statusResponse struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	Progress         float64             `json:"progress"`
	ModelID          string              `json:"model_id,omitempty"`
	CreatedAt        string              `json:"created_at"`
	UpdatedAt        string              `json:"updated_at"`
	CompletedAt      string              `json:"completed_at,omitempty"`
	Error            string              `json:"error,omitempty"`
	Results          []extraction.Record `json:"results,omitempty"`
	ResultsAvailable bool                `json:"results_available"`
	Downloads        map[string]string   `json:"downloads,omitempty"`
}

// handleStatus returns the job snapshot. Failed jobs are 200 responses with
// the structured failure in the payload; only unknown ids are 404.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobFromPath(w, r)
	if !ok {
		return
	}

	resp := statusResponse{
		ID:        job.ID.String(),
		Status:    string(job.Status),
		Progress:  job.Progress,
		ModelID:   job.ModelID,
		CreatedAt: job.CreatedAt.Format(timeLayout),
		UpdatedAt: job.UpdatedAt.Format(timeLayout),
		Error:     job.Error,
	}
	if job.CompletedAt != nil {
		resp.CompletedAt = job.CompletedAt.Format(timeLayout)
	}
	if job.Status == constants.JobStatusCompleted {
		resp.Results = job.Results
		resp.ResultsAvailable = true
		resp.Downloads = make(map[string]string, len(constants.DownloadFormats))
		for format := range constants.DownloadFormats {
			resp.Downloads[format] = fmt.Sprintf("/extract/%s/download?format=%s", job.ID, format)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDownload streams the requested artifact format.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobFromPath(w, r)
	if !ok {
		return
	}
	if job.Status != constants.JobStatusCompleted {
		writeError(w, r, s.logger, common.NewAppError(
			"RESULTS_NOT_READY",
			fmt.Sprintf("job is %s; results are only downloadable once completed", job.Status),
			common.ErrInvalidInput))
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case "json":
		body, err = s.exporter.ReadJSON(job.ID)
		contentType = "application/json"
	case "jsonl":
		body, err = s.exporter.ReadJSONL(job.ID)
		contentType = "application/jsonl"
	case "html":
		body, err = s.renderFromArtifact(job.ID, s.exporter.RenderHTML)
		contentType = "text/html; charset=utf-8"
	case "xlsx":
		body, err = s.renderFromArtifact(job.ID, s.exporter.RenderXLSX)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		writeError(w, r, s.logger, common.NewAppError(
			"INVALID_FORMAT",
			fmt.Sprintf("unknown download format %q; expected json, jsonl, html, or xlsx", format),
			common.ErrInvalidInput))
		return
	}
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", job.ID.String()+"."+format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) renderFromArtifact(id uuid.UUID, render func(uuid.UUID, []extraction.Record) ([]byte, error)) ([]byte, error) {
	records, err := s.exporter.LoadResults(id)
	if err != nil {
		return nil, err
	}
	return render(id, records)
}

func (s *Server) jobFromPath(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, s.logger, common.NewAppError(
			"INVALID_JOB_ID", "extraction id must be a UUID", common.ErrInvalidInput))
		return nil, false
	}
	job, err := s.tracker.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return nil, false
	}
	return job, true
}

const timeLayout = time.RFC3339
