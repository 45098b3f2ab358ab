// Package upload accepts caller files, enforces the extension allow-list and
// size cap, and converts each format into plain text for extraction.
package upload

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/lexakit/lexa/constants"
	"github.com/lexakit/lexa/internal/common"
)

// Handler stages uploads on disk and extracts their text content.
type Handler struct {
	dir         string
	maxBytes    int64
	allowedExts map[string]struct{}
	logger      *slog.Logger
}

func NewHandler(dir string, maxBytes int64, allowedExts []string, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	exts := map[string]struct{}{}
	if len(allowedExts) == 0 {
		allowedExts = constants.DefaultAllowedExtensions
	}
	for _, e := range allowedExts {
		exts[constants.NormalizeExt(e)] = struct{}{}
	}
	return &Handler{dir: dir, maxBytes: maxBytes, allowedExts: exts, logger: logger}, nil
}

// Accept validates, stages, and converts one upload. The staged copy is
// removed before returning; only the extracted text survives.
func (h *Handler) Accept(filename string, size int64, r io.Reader) (string, error) {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if _, ok := h.allowedExts[ext]; !ok {
		return "", common.NewAppError(
			"UNSUPPORTED_FILE_TYPE",
			fmt.Sprintf("file type %q is not supported; allowed: %s", ext, strings.Join(h.allowed(), ", ")),
			common.ErrInvalidInput,
		)
	}
	if size > 0 && size > h.maxBytes {
		return "", h.tooLarge(size)
	}

	staged := filepath.Join(h.dir, uuid.NewString()+ext)
	f, err := os.Create(staged)
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(staged)
	}()

	// Limit one byte past the cap so an oversized stream is detectable even
	// when the client never declared a length.
	written, err := io.Copy(f, io.LimitReader(r, h.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if written > h.maxBytes {
		return "", h.tooLarge(written)
	}

	text, err := ConvertFile(staged, ext)
	if err != nil {
		return "", err
	}

	h.logger.Info("upload.accepted", "filename", filename, "ext", ext, "bytes", written, "text_len", len(text))
	return text, nil
}

func (h *Handler) tooLarge(size int64) error {
	return common.NewAppError(
		"FILE_TOO_LARGE",
		fmt.Sprintf("file size %d exceeds the %d byte limit", size, h.maxBytes),
		common.ErrTooLarge,
	)
}

func (h *Handler) allowed() []string {
	out := make([]string, 0, len(h.allowedExts))
	for e := range h.allowedExts {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
