package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lexakit/lexa/internal/common"
)

// errorBody is the uniform error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps the error taxonomy onto an HTTP status and envelope.
// Internal details never leak: anything unrecognized becomes a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := common.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "internal server error"

	var appErr *common.AppError
	if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		code = appErr.Code
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Error("http.error", "path", r.URL.Path, "status", status, "error", err)
	}

	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:      code,
		Message:   message,
		RequestID: common.RequestIDFromContext(r.Context()),
	}})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return common.NewAppError("INVALID_JSON", "request body is not valid JSON", common.ErrInvalidInput)
	}
	return nil
}
