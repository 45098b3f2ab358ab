package constants

import "strings"

// DefaultAllowedExtensions holds the default allowed upload extensions.
var DefaultAllowedExtensions = []string{".txt", ".md", ".json", ".pdf", ".docx"}

// DownloadFormats holds the supported result download formats.
var DownloadFormats = map[string]struct{}{
	"json":  {},
	"jsonl": {},
	"html":  {},
	"xlsx":  {},
}

// NormalizeExt lowercases a file extension and guarantees a leading dot.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ext
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
