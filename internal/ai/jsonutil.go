package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON strips markdown code fences and any prose around the outermost
// JSON value.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}

// DecodeJSON decodes a model reply into v after fence stripping.
func DecodeJSON(raw string, v interface{}) error {
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), v); err != nil {
		return fmt.Errorf("decode llm json failed: %w", err)
	}
	return nil
}

// DecodeJSONList accepts either a bare array or an object that carries the
// array under key.
func DecodeJSONList[T any](raw, key string) ([]T, error) {
	body := []byte(ExtractJSON(raw))

	var list []T
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode llm json list failed: %w", err)
	}
	inner, ok := wrapped[key]
	if !ok {
		return []T{}, nil
	}
	if err := json.Unmarshal(inner, &list); err != nil {
		return nil, fmt.Errorf("decode llm json list %q failed: %w", key, err)
	}
	return list, nil
}
