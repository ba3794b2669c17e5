package quizbank

import (
	"errors"
	"strings"
)

// ErrPayloadNotFound means the response carried no usable "text" field
var ErrPayloadNotFound = errors.New("payload not found in response")

// LocatePayload pulls the value of the first "text" field out of a raw
// service response and undoes its envelope escaping.
func LocatePayload(raw string) (string, error) {
	keyIdx := strings.Index(raw, `"text"`)
	if keyIdx == -1 {
		return "", ErrPayloadNotFound
	}
	colon := strings.IndexByte(raw[keyIdx+len(`"text"`):], ':')
	if colon == -1 {
		return "", ErrPayloadNotFound
	}
	afterColon := keyIdx + len(`"text"`) + colon + 1
	quote := strings.IndexByte(raw[afterColon:], '"')
	if quote == -1 {
		return "", ErrPayloadNotFound
	}
	open := afterColon + quote
	end := FindClosingQuote(raw, open+1)
	if end == NotFound {
		return "", ErrPayloadNotFound
	}
	return unescapeEnvelope(raw[open+1 : end]), nil
}

// unescapeEnvelope resolves the escapes the envelope adds around the payload
// in a single pass, so `\\\"` becomes `\"`. \uXXXX stays encoded until
// ExtractString reads the individual values.
func unescapeEnvelope(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte(c)
			continue
		}
		i++
	}
	return sb.String()
}
