package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/llm"
	"github.com/lexakit/lexa/internal/llm/edge"
	"github.com/lexakit/lexa/internal/llm/engine"
	"github.com/lexakit/lexa/internal/provider"
)

// Invoker dispatches a resolved call to its backend and returns the typed
// intermediate result.
type Invoker interface {
	Invoke(ctx context.Context, params llm.CallParams) (llm.Result, error)
}

// EdgeResponseClass is the synthetic class label wrapped around edge
// completions; the edge backend has no structured-extraction mode.
const EdgeResponseClass = "response"

// BackendInvoker routes extraction calls: the edge backend gets a raw
// prompt-and-parse HTTP call, everything else goes through the engine with
// the provider's completion client. No error escapes uncaught.
type BackendInvoker struct {
	engine     *engine.Engine
	completers map[provider.Tag]llm.Completer
	edge       *edge.Client
	timeout    time.Duration
	logger     *slog.Logger
}

func NewBackendInvoker(
	eng *engine.Engine,
	completers map[provider.Tag]llm.Completer,
	edgeClient *edge.Client,
	timeout time.Duration,
	logger *slog.Logger,
) *BackendInvoker {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &BackendInvoker{
		engine:     eng,
		completers: completers,
		edge:       edgeClient,
		timeout:    timeout,
		logger:     logger,
	}
}

// Invoke runs the backend call under the configured timeout ceiling.
func (b *BackendInvoker) Invoke(ctx context.Context, params llm.CallParams) (result llm.Result, err error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("invoke.panic", "provider", string(params.Provider), "panic", r)
			err = &common.BackendError{
				Provider: string(params.Provider),
				Cause:    fmt.Errorf("panic in backend call: %v", r),
			}
		}
	}()

	switch params.Provider {
	case provider.Edge:
		text, runErr := b.edge.Run(ctx, params)
		if runErr != nil {
			return llm.Result{}, b.mapError(params, runErr)
		}
		return llm.Result{
			Kind: llm.KindRecord,
			Extractions: []llm.Extraction{{
				Class:      EdgeResponseClass,
				Text:       text,
				Attributes: map[string]any{},
			}},
		}, nil

	default:
		completer, ok := b.completers[params.Provider]
		if !ok {
			return llm.Result{}, &common.BackendError{
				Provider: string(params.Provider),
				Cause:    fmt.Errorf("no client registered for provider"),
			}
		}
		extractions, exErr := b.engine.Extract(ctx, completer, params)
		if exErr != nil {
			return llm.Result{}, b.mapError(params, exErr)
		}
		return llm.Result{Kind: llm.KindRecords, Extractions: extractions}, nil
	}
}

// mapError folds every backend failure into the error taxonomy: deadline
// exhaustion becomes a timeout error naming the configured ceiling, backend
// errors pass through, anything else is wrapped.
func (b *BackendInvoker) mapError(params llm.CallParams, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewAppError(
			"BACKEND_TIMEOUT",
			fmt.Sprintf("backend call timed out after %s", b.timeout),
			common.ErrTimeout,
		)
	}

	var backendErr *common.BackendError
	if errors.As(err, &backendErr) {
		return err
	}
	return &common.BackendError{Provider: string(params.Provider), Cause: err}
}
