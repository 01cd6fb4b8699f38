package generation

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no balanced JSON value can be found in a response
var ErrNoJSON = errors.New("no JSON value found in response")

// ExtractJSON finds the first balanced JSON value opening with open ('[' or '{')
// in free-form model output. Brackets inside string literals are ignored.
// Each candidate start is tried in turn until one decodes as valid JSON.
func ExtractJSON(text string, open byte) (string, error) {
	var closer byte
	switch open {
	case '[':
		closer = ']'
	case '{':
		closer = '}'
	default:
		return "", ErrNoJSON
	}

	text = stripFences(text)

	for start := strings.IndexByte(text, open); start != -1; {
		if end := matchBracket(text, start, open, closer); end != -1 {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}

		next := strings.IndexByte(text[start+1:], open)
		if next == -1 {
			break
		}
		start += next + 1
	}

	return "", ErrNoJSON
}

// DecodeJSON extracts the first JSON value opening with open and decodes it into v
func DecodeJSON(text string, open byte, v any) error {
	raw, err := ExtractJSON(text, open)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

// matchBracket returns the index of the bracket closing text[start], or -1
func matchBracket(text string, start int, open, closer byte) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

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
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripFences removes markdown code fences so fenced JSON scans like bare JSON
func stripFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
