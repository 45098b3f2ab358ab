package extraction

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lexakit/lexa/constants"
	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/llm"
	"github.com/lexakit/lexa/internal/provider"
)

// Service runs one extraction end to end: resolve provider, assemble
// parameters, invoke the backend, normalize. Progress checkpoints are
// reported through the callback so the job tracker can expose them.
type Service struct {
	cfg     *common.Config
	invoker Invoker
	logger  *slog.Logger
}

func NewService(cfg *common.Config, invoker Invoker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, invoker: invoker, logger: logger}
}

// Run executes the pipeline for a single request. progress may be nil.
func (s *Service) Run(ctx context.Context, req *Request, progress func(float64)) ([]Record, error) {
	if progress == nil {
		progress = func(float64) {}
	}
	start := time.Now()

	tag := provider.Resolve(req.ModelID)
	params, err := BuildCallParams(req, tag, s.cfg)
	if err != nil {
		return nil, err
	}
	progress(constants.ProgressParamsReady)

	s.logger.Info("extract.start",
		"request_id", req.RequestID,
		"model", params.ModelID,
		"provider", string(params.Provider),
		"text_len", len(params.Text),
		"examples", len(params.Examples),
	)
	if req.Debug {
		// Per-request debug trace of the fully resolved parameters, minus
		// the credential itself.
		s.logger.Info("extract.debug",
			"request_id", req.RequestID,
			"model", params.ModelID,
			"provider", string(params.Provider),
			"temperature", params.Temperature,
			"max_char_buffer", params.MaxCharBuffer,
			"extraction_passes", params.ExtractionPasses,
			"max_tokens", params.MaxTokens,
			"base_url", params.BaseURL,
			"api_key_set", params.APIKey != "",
			"schema_set", len(params.Schema) > 0,
		)
	}

	result, err := s.invoker.Invoke(ctx, params)
	if err != nil {
		s.logger.Error("extract.backend_error",
			"request_id", req.RequestID,
			"model", params.ModelID,
			"provider", string(params.Provider),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	progress(constants.ProgressRawResult)

	records := Normalize(result)

	// A caller schema guides the model; parsed output is checked against it
	// after the fact. A mismatch is reported but never fails the job, since
	// model output is best-effort.
	if len(req.Schema) > 0 {
		if data, mErr := json.Marshal(records); mErr == nil {
			if vErr := llm.ValidateAgainstSchema(req.Schema, data); vErr != nil {
				s.logger.Warn("extract.schema_mismatch",
					"request_id", req.RequestID,
					"model", params.ModelID,
					"error", vErr,
				)
			}
		}
	}

	s.logger.Info("extract.ok",
		"request_id", req.RequestID,
		"model", params.ModelID,
		"results", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return records, nil
}
