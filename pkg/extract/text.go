package extract

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// PlainText extracts UTF-8 text files.
type PlainText struct {
	maxBytes int64
}

// NewPlainText creates a PlainText extractor. maxBytes <= 0 uses
// DefaultMaxBytes.
func NewPlainText(maxBytes int64) *PlainText {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &PlainText{maxBytes: maxBytes}
}

// Extract implements Extractor.
func (p *PlainText) Extract(ctx context.Context, name string, r io.Reader) (*Document, error) {
	data, err := readLimited(ctx, r, p.maxBytes)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: not valid UTF-8 text", name)
	}

	text := normalizeText(string(data))
	if text == "" {
		return nil, ErrEmptyDocument
	}

	meta := scanMetadata(text)
	meta.ContentType = "text/plain"
	return &Document{Name: name, Text: text, Metadata: meta}, nil
}

var (
	keyValueLine = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 _/.-]{0,40}?)\s*:\s*(\S.*)$`)
	bulletLine   = regexp.MustCompile(`^(?:[-*•+]|\d+[.)])\s+(.+)$`)
	datePattern  = regexp.MustCompile(`\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// normalizeText trims every line and collapses runs of blank lines.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

// scanMetadata finds key-value lines, bullet items and dates.
func scanMetadata(text string) Metadata {
	meta := Metadata{Values: map[string]string{}}
	for _, line := range strings.Split(text, "\n") {
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			meta.Items = append(meta.Items, strings.TrimSpace(m[1]))
			continue
		}
		if m := keyValueLine.FindStringSubmatch(line); m != nil {
			key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(m[1]), " ", "_"))
			if _, dup := meta.Values[key]; !dup {
				meta.Values[key] = strings.TrimSpace(m[2])
			}
		}
	}
	meta.Dates = uniqueStrings(datePattern.FindAllString(text, -1))
	if len(meta.Values) == 0 {
		meta.Values = nil
	}
	return meta
}

func uniqueStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
