// Package cv extracts plain text from uploaded CV files so the generator
// can cite the applicant's real background.
package cv

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/google/uuid"
)

// SupportedExtensions lists the upload formats the parser accepts.
var SupportedExtensions = []string{".pdf", ".docx", ".doc", ".rtf", ".odt", ".txt"}

type Parser struct {
	uploadsDir string
	logger     *slog.Logger
}

func NewParser(uploadsDir string, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{uploadsDir: uploadsDir, logger: logger}
}

// Supported reports whether the filename's extension can be parsed.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ExtractText stages the upload under a unique name and pulls the plain text
// out of it. The staging file is removed once converted; uploads from
// different users never share a path, whatever the client named the file.
func (p *Parser) ExtractText(filename string, reader io.Reader) (string, error) {
	if !Supported(filename) {
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	if err := os.MkdirAll(p.uploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(p.uploadsDir, uuid.NewString()+ext)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer os.Remove(path)

	size, err := io.Copy(file, reader)
	if err != nil {
		file.Close()
		return "", fmt.Errorf("save file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}

	var text string
	switch ext {
	case ".txt":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		text = string(content)
	default:
		res, err := docconv.ConvertPath(path)
		if err != nil {
			return "", fmt.Errorf("parse document: %w", err)
		}
		text = res.Body
	}

	text = strings.TrimSpace(text)
	p.logger.Info("cv.parsed", "filename", filename, "bytes", size, "text_len", len(text))
	return text, nil
}
