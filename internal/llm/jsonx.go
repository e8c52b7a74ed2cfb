package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Models do not reliably emit bare JSON. RecoverJSONObject applies a ladder of
// extraction strategies, in order, until one yields a parseable object:
//
//  1. direct parse of the trimmed response
//  2. fenced code block (```json ... ``` or ``` ... ```)
//  3. first balanced top-level {...} found anywhere in the text
//  4. content following a literal "JSON:" marker
//  5. best-effort cleanup: strip fences and newlines, slice between the first
//     '{' and the last '}'
//
// It returns ok=false when every strategy fails.
func RecoverJSONObject(raw string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(raw)
	if b, ok := tryParse(trimmed); ok {
		return b, true
	}
	if inner, ok := fencedBlock(trimmed); ok {
		if b, ok := tryParse(inner); ok {
			return b, true
		}
	}
	if obj, ok := firstBalancedObject(trimmed); ok {
		if b, ok := tryParse(obj); ok {
			return b, true
		}
	}
	if after, ok := afterJSONMarker(trimmed); ok {
		if b, ok := tryParse(after); ok {
			return b, true
		}
		if obj, ok := firstBalancedObject(after); ok {
			if b, ok := tryParse(obj); ok {
				return b, true
			}
		}
	}
	if b, ok := tryParse(cleanup(trimmed)); ok {
		return b, true
	}
	return nil, false
}

func tryParse(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return json.RawMessage(s), true
}

var reFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

func fencedBlock(s string) (string, bool) {
	m := reFence.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// firstBalancedObject scans for the first '{' and returns the substring up to
// its matching '}', tracking strings and escapes.
func firstBalancedObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

func afterJSONMarker(s string) (string, bool) {
	idx := strings.Index(strings.ToUpper(s), "JSON:")
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(s[idx+len("JSON:"):]), true
}

func cleanup(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.ReplaceAll(s, "\n", " ")
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first < 0 || last <= first {
		return s
	}
	return s[first : last+1]
}
