package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FlexString accepts a JSON string or any other value, which is kept as
// compact JSON text.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(flatten(data))
	return nil
}

// FlexStrings accepts a list of strings, a list of arbitrary values or a
// single string.
type FlexStrings []string

func (l *FlexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		var single FlexString
		if err := single.UnmarshalJSON(data); err != nil {
			return err
		}
		if single == "" {
			*l = FlexStrings{}
		} else {
			*l = FlexStrings{string(single)}
		}
		return nil
	}
	out := make(FlexStrings, 0, len(items))
	for _, item := range items {
		var s FlexString
		if err := s.UnmarshalJSON(item); err != nil {
			return err
		}
		if s != "" {
			out = append(out, string(s))
		}
	}
	*l = out
	return nil
}

// flatten renders an object as "k: v, k: v" and anything else as compact JSON.
func flatten(data []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err == nil {
		parts := make([]string, 0, len(obj))
		for _, key := range sortedKeys(obj) {
			parts = append(parts, fmt.Sprintf("%s: %v", key, obj[key]))
		}
		return strings.Join(parts, ", ")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return string(data)
	}
	return buf.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
