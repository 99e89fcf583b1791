// Package docparse turns course material and resume uploads into page or
// slide tagged text chunks.
package docparse

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrUnsupportedFormat = errors.New("unsupported document format")

const (
	TypePDF  = "pdf"
	TypePPTX = "pptx"
	TypeDOCX = "docx"
)

// Chunk is one page, slide or paragraph group of extracted text.
type Chunk struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Page    int    `json:"page"`
	Type    string `json:"type"`
}

// File is an in-memory upload.
type File struct {
	Name string
	Data []byte
}

// Parse dispatches on the file extension.
func Parse(name string, data []byte) ([]Chunk, error) {
	source := filepath.Base(name)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return ParsePDF(bytes.NewReader(data), int64(len(data)), source)
	case ".pptx":
		return ParsePPTX(bytes.NewReader(data), int64(len(data)), source)
	case ".docx":
		return ParseDOCX(bytes.NewReader(data), int64(len(data)), source)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Supported reports whether Parse understands the file extension.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".pptx", ".docx":
		return true
	}
	return false
}

// ExtractText returns the whole text of a resume or statement upload.
// Plain text and markdown are returned as is.
func ExtractText(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", "":
		return strings.TrimSpace(string(data)), nil
	}

	chunks, err := Parse(name, data)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}
