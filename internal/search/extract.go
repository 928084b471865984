package search

import "fmt"

// ExtractJSONObject returns the first balanced {...} span in text. The
// collaborator is told to respond with raw JSON but often wraps it in
// prose anyway. The scan is string-aware: braces inside JSON string
// literals and escaped quotes do not affect nesting depth.
func ExtractJSONObject(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if start == -1 {
			if r == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if escaped {
			escaped = false
			continue
		}

		switch r {
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
					return text[start : i+1], nil
				}
			}
		}
	}

	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return "", fmt.Errorf("unterminated JSON object in response")
}
