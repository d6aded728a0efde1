package quizparse

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	thinkBlock    = regexp.MustCompile(`(?is)<think>.*?</think>`)
	codeFence     = regexp.MustCompile("(?i)```(?:json)?")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

var errNoPayload = errors.New("no JSON object found in output")

// decodeQuizObject tries every '{' in s in order and returns the first object
// that decodes into a quiz with a title or questions. Prose before the
// payload, braces included, and anything after it are ignored. When no
// candidate qualifies the first decode error is returned.
func decodeQuizObject(s string) (*wireQuiz, error) {
	var firstErr error
	for off := 0; off < len(s); {
		i := strings.IndexByte(s[off:], '{')
		if i < 0 {
			break
		}
		start := off + i
		off = start + 1

		var w wireQuiz
		err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&w)
		if err == nil && (w.Title != nil || w.Questions != nil) {
			return &w, nil
		}
		if err == nil {
			// an object, but not the quiz (e.g. inside a reasoning block)
			err = errNoPayload
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = errNoPayload
	}
	return nil, firstErr
}

// normalize strips the wrapper markers models commonly emit around JSON:
// reasoning blocks, a byte order mark, markdown fences and trailing commas.
func normalize(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = thinkBlock.ReplaceAllString(s, "")
	s = codeFence.ReplaceAllString(s, "")
	s = trailingComma.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

func snippet(s string) string {
	clean := strings.Join(strings.Fields(s), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}

// isArray reports whether the whole normalized payload is a JSON array, which
// some models return instead of the quiz object. A bracketed lead-in such as
// "[1] Source" followed by prose is not an array.
func isArray(normalized string) bool {
	trimmed := []byte(strings.TrimSpace(normalized))
	return len(trimmed) > 0 && trimmed[0] == '[' && json.Valid(trimmed)
}
