package upload

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/lexakit/lexa/internal/common"
)

// ConvertFile extracts plain text from a staged upload based on its
// normalized extension.
func ConvertFile(path, ext string) (string, error) {
	switch ext {
	case ".txt", ".md":
		return convertText(path)
	case ".json":
		return convertJSON(path)
	case ".pdf":
		return convertPDF(path)
	case ".docx":
		return convertDOCX(path)
	default:
		return "", common.NewAppError(
			"UNSUPPORTED_FILE_TYPE",
			fmt.Sprintf("no converter for %q", ext),
			common.ErrInvalidInput,
		)
	}
}

func convertText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	// Tolerate a UTF-8 BOM from Windows editors.
	b = bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
	return string(b), nil
}

// convertJSON flattens the document into "path: value" lines so the model
// sees keys alongside their values instead of raw structure.
func convertJSON(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read json file: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return "", common.NewAppError("INVALID_FILE", "file is not valid JSON", common.ErrInvalidInput)
	}
	var sb strings.Builder
	flattenJSON("", doc, &sb)
	return sb.String(), nil
}

func flattenJSON(prefix string, v any, sb *strings.Builder) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenJSON(joinPath(prefix, k), val[k], sb)
		}
	case []any:
		for i, item := range val {
			flattenJSON(fmt.Sprintf("%s[%d]", prefix, i), item, sb)
		}
	default:
		fmt.Fprintf(sb, "%s: %v\n", prefix, val)
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func convertPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", common.NewAppError("INVALID_FILE", "file is not a readable PDF", common.ErrInvalidInput)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "--- page %d ---\n%s\n", i, text)
	}
	if sb.Len() == 0 {
		return "", common.NewAppError("INVALID_FILE", "no extractable text in PDF", common.ErrInvalidInput)
	}
	return sb.String(), nil
}

// docx body paragraphs: w:p elements containing w:t text runs.
type docxDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

func convertDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", common.NewAppError("INVALID_FILE", "file is not a readable DOCX archive", common.ErrInvalidInput)
	}
	defer zr.Close()

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", fmt.Errorf("open docx body: %w", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", fmt.Errorf("read docx body: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", common.NewAppError("INVALID_FILE", "DOCX archive has no document body", common.ErrInvalidInput)
	}

	var doc docxDocument
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return "", common.NewAppError("INVALID_FILE", "DOCX body is not parseable", common.ErrInvalidInput)
	}

	var sb strings.Builder
	for _, p := range doc.Body.Paragraphs {
		for _, r := range p.Runs {
			sb.WriteString(r.Text)
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
