// Package extract turns uploaded documents (receipts, pantry lists, notes)
// into plain text plus lightweight metadata.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultMaxBytes bounds how much of a document is read.
const DefaultMaxBytes = 5 << 20

// Metadata is what could be recognised in the text.
type Metadata struct {
	ContentType string            `json:"content_type"`
	Values      map[string]string `json:"values,omitempty"`
	Dates       []string          `json:"dates,omitempty"`
	Items       []string          `json:"items,omitempty"`
	Sections    []string          `json:"sections,omitempty"`
}

// Document is an extracted document.
type Document struct {
	Name     string   `json:"name"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Extractor reads one document format.
type Extractor interface {
	Extract(ctx context.Context, name string, r io.Reader) (*Document, error)
}

var (
	// ErrUnsupportedFormat matches any UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument is returned when a document has no text.
	ErrEmptyDocument = errors.New("document has no text")

	// ErrTooLarge is returned when a document exceeds the size limit.
	ErrTooLarge = errors.New("document too large")
)

// UnsupportedFormatError is returned for formats without an extractor.
type UnsupportedFormatError struct {
	Name      string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return fmt.Sprintf("unsupported document format for %q: no file extension", e.Name)
	}
	return fmt.Sprintf("unsupported document format %q for %q", e.Extension, e.Name)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// Registry selects an extractor by file extension.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]Extractor
}

// NewRegistry returns a registry with the plain text and Markdown extractors.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	plain := NewPlainText(DefaultMaxBytes)
	md := NewMarkdown(DefaultMaxBytes)
	for _, ext := range []string{".txt", ".text", ".csv", ".log"} {
		r.Register(ext, plain)
	}
	for _, ext := range []string{".md", ".markdown"} {
		r.Register(ext, md)
	}
	return r
}

// Register maps ext (with or without the leading dot) to e.
func (r *Registry) Register(ext string, e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byExt[normalizeExt(ext)] = e
}

// Extensions lists the registered extensions.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	return out
}

// Extract implements Extractor by dispatching on the name's extension.
func (r *Registry) Extract(ctx context.Context, name string, rd io.Reader) (*Document, error) {
	ext := normalizeExt(filepath.Ext(name))
	r.mu.RLock()
	e, ok := r.byExt[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedFormatError{Name: name, Extension: ext}
	}
	return e.Extract(ctx, name, rd)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// readLimited reads at most limit bytes and fails when there is more.
func readLimited(ctx context.Context, r io.Reader, limit int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}
