package executor

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pantryplay/pantryplay/pkg/task"
)

var errNoJSONObject = errors.New("no JSON object in response")

// decodeFunc turns provider text into a result. It never fails: malformed
// output degrades to a fallback record.
type decodeFunc func(e *Executor, raw string) task.Result

// partialRecord is a generation-style record that can be marked as a best
// effort fill.
type partialRecord interface {
	task.Result
	markPartial(raw string)
}

// analysisDecoder decodes into T and falls back to RawResponse.
func analysisDecoder[T any, PT interface {
	*T
	task.Result
}]() decodeFunc {
	return func(e *Executor, raw string) task.Result {
		rec := PT(new(T))
		if err := decodeStrict(e.validate, raw, rec); err != nil {
			e.log.Debug("structured decode failed, keeping raw response", "error", err)
			return &RawResponse{Text: raw}
		}
		return rec
	}
}

// generationDecoder decodes into T and falls back to a partially filled T.
func generationDecoder[T any, PT interface {
	*T
	partialRecord
}]() decodeFunc {
	return func(e *Executor, raw string) task.Result {
		rec := PT(new(T))
		err := decodeStrict(e.validate, raw, rec)
		if err == nil {
			return rec
		}
		e.log.Debug("structured decode failed, keeping partial record", "error", err)

		rec = PT(new(T))
		if obj, objErr := extractJSON(raw); objErr == nil {
			// Type mismatches still fill every field that does match.
			_ = json.Unmarshal([]byte(obj), rec)
		}
		rec.markPartial(raw)
		return rec
	}
}

// decodeStrict isolates the JSON object in raw, decodes it into dst and
// validates the result.
func decodeStrict(v *validator.Validate, raw string, dst any) error {
	obj, err := extractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), dst); err != nil {
		return err
	}
	return v.Struct(dst)
}

// extractJSON strips Markdown code fences and returns the first balanced
// top-level JSON object.
func extractJSON(raw string) (string, error) {
	s := stripFences(raw)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", errNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errNoJSONObject
}

// stripFences returns the body of the first fenced code block, or the input
// unchanged when there is none.
func stripFences(s string) string {
	open := strings.Index(s, "```")
	if open < 0 {
		return s
	}
	body := s[open+3:]
	// Skip the info string, e.g. ```json.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return body
}
