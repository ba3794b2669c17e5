package quizbank

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// MissingInt is what ExtractInt returns when the key or its digits are absent
const MissingInt = -1

// valueStart returns the index just past the colon that follows "key", or
// NotFound. Whitespace between the key and the colon is tolerated.
func valueStart(text, key string) int {
	needle := `"` + key + `"`
	from := 0
	for {
		idx := strings.Index(text[from:], needle)
		if idx == -1 {
			return NotFound
		}
		i := skipSpace(text, from+idx+len(needle))
		if i < len(text) && text[i] == ':' {
			return i + 1
		}
		from += idx + len(needle)
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// ExtractString returns the unescaped string value of key, or "" when the key
// is absent or its value is not a complete string literal.
func ExtractString(text, key string) string {
	start := valueStart(text, key)
	if start == NotFound {
		return ""
	}
	open := skipSpace(text, start)
	if open >= len(text) || text[open] != '"' {
		return ""
	}
	end := FindClosingQuote(text, open+1)
	if end == NotFound {
		return ""
	}
	return UnescapeString(text[open+1 : end])
}

// ExtractArraySlice returns the raw "[...]" span bound to key, or "[]".
func ExtractArraySlice(text, key string) string {
	start := valueStart(text, key)
	if start == NotFound {
		return "[]"
	}
	open := skipSpace(text, start)
	end := FindMatchingBracket(text, open, Brackets)
	if end == NotFound {
		return "[]"
	}
	return text[open : end+1]
}

// ExtractInt returns the first run of digits after key, or MissingInt. A minus
// sign directly in front of the digits makes the value negative.
func ExtractInt(text, key string) int {
	start := valueStart(text, key)
	if start == NotFound {
		return MissingInt
	}
	i := start
	for i < len(text) && !isDigit(text[i]) {
		i++
	}
	j := i
	for j < len(text) && isDigit(text[j]) {
		j++
	}
	if i == j {
		return MissingInt
	}
	n, err := strconv.Atoi(text[i:j])
	if err != nil {
		return MissingInt
	}
	if i > start && text[i-1] == '-' {
		return -n
	}
	return n
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// SplitArrayElements splits a flat "[...]" span on top-level commas. String
// elements are unquoted and unescaped; empty slots left by stray commas are
// dropped.
func SplitArrayElements(array string) []string {
	array = strings.TrimSpace(array)
	array = strings.TrimPrefix(array, "[")
	array = strings.TrimSuffix(array, "]")

	var elements []string
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
			raw = UnescapeString(raw[1 : len(raw)-1])
		}
		elements = append(elements, raw)
	}

	depth, start := 0, 0
	for i := 0; i < len(array); i++ {
		switch array[i] {
		case '"':
			end := FindClosingQuote(array, i+1)
			if end == NotFound {
				// unterminated string: keep the rest as one element
				i = len(array)
				continue
			}
			i = end
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		case ',':
			if depth == 0 {
				add(array[start:i])
				start = i + 1
			}
		}
	}
	add(array[start:])
	return elements
}

// UnescapeString decodes JSON string escapes in one left-to-right pass.
// Unknown or truncated escapes are kept verbatim.
func UnescapeString(s string) string {
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
		i++
		switch s[i] {
		case '"', '\\', '/':
			sb.WriteByte(s[i])
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'u':
			if r, ok := decodeUnicodeEscape(s, i+1); ok {
				i += 4
				if utf16.IsSurrogate(r) && i+2 < len(s) && s[i+1] == '\\' && s[i+2] == 'u' {
					if r2, ok := decodeUnicodeEscape(s, i+3); ok {
						if pair := utf16.DecodeRune(r, r2); pair != utf8.RuneError {
							r = pair
							i += 6
						}
					}
				}
				sb.WriteRune(r)
			} else {
				sb.WriteString(`\u`)
			}
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func decodeUnicodeEscape(s string, at int) (rune, bool) {
	if at+4 > len(s) {
		return utf8.RuneError, false
	}
	n, err := strconv.ParseUint(s[at:at+4], 16, 32)
	if err != nil {
		return utf8.RuneError, false
	}
	return rune(n), true
}
