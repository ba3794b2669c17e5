package quizbank

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoCandidates means a payload was found but held no question objects
var ErrNoCandidates = errors.New("no candidate objects in payload")

// Fence lines can only be structural: string values never hold raw newlines.
var fenceLine = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z0-9_+-]*[ \t]*\r?$\n?")

// StripCodeFences removes Markdown code-fence lines, language tag included
func StripCodeFences(text string) string {
	text = fenceLine.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.TrimSpace(text)
}

// IsolateArray slices text to the span between its first '[' and last ']'.
// Text without such a span is returned unchanged.
func IsolateArray(text string) string {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start == -1 || end == -1 || end <= start {
		return text
	}
	return text[start : end+1]
}

// StripOuterBrackets drops a leading '[' and trailing ']' if present
func StripOuterBrackets(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "[")
	return strings.TrimSuffix(text, "]")
}

// SplitObjects returns every top-level {...} span in text. Braces inside
// string literals do not move the depth at any level, and anything between
// objects is discarded. A trailing object or string that never closes ends
// the split.
func SplitObjects(text string) []string {
	var objects []string
	depth, start := 0, 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '"':
			end := FindClosingQuote(text, i+1)
			if end == NotFound {
				return objects
			}
			i = end
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				objects = append(objects, text[start:i+1])
			}
		}
	}
	return objects
}

// DecodeCandidates runs the array decoding steps over a located payload
func DecodeCandidates(payload string) []string {
	text := StripCodeFences(payload)
	text = IsolateArray(text)
	text = StripOuterBrackets(text)
	return SplitObjects(text)
}

// DecodeResponse turns one raw service response into validated questions.
// Individual malformed candidates are dropped; an error is returned only
// when nothing in the response could be a question.
func DecodeResponse(raw string, difficulty Difficulty, logger *LLMLogger) ([]Question, error) {
	payload, err := LocatePayload(raw)
	if err != nil {
		return nil, err
	}

	candidates := DecodeCandidates(payload)
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	VerboseLog("Decoded %d candidate objects", len(candidates))

	questions := AssembleQuestions(candidates, difficulty, logger)
	if len(questions) == 0 {
		return nil, fmt.Errorf("all %d candidates rejected: %w", len(candidates), ErrNoCandidates)
	}
	return questions, nil
}
