package quizbank

// NotFound is returned by the scanning helpers when no match exists
const NotFound = -1

// BracketKind selects which pair of delimiters FindMatchingBracket balances
type BracketKind int

const (
	Braces   BracketKind = iota // {}
	Brackets                    // []
)

func (k BracketKind) pair() (open, close byte) {
	if k == Brackets {
		return '[', ']'
	}
	return '{', '}'
}

// FindClosingQuote returns the index of the quote that terminates the string
// literal whose contents begin at start. A quote preceded by an odd run of
// backslashes is escaped and skipped.
func FindClosingQuote(s string, start int) int {
	if start < 0 {
		return NotFound
	}
	escaped := false
	for i := start; i < len(s); i++ {
		switch c := s[i]; {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			return i
		}
	}
	return NotFound
}

// FindMatchingBracket returns the index of the delimiter closing the one at
// open. Delimiters inside string literals do not count.
func FindMatchingBracket(s string, open int, kind BracketKind) int {
	opener, closer := kind.pair()
	if open < 0 || open >= len(s) || s[open] != opener {
		return NotFound
	}

	depth := 1
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '"':
			end := FindClosingQuote(s, i+1)
			if end == NotFound {
				return NotFound
			}
			i = end
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return NotFound
}

// MatchClose finds the structural partner of the delimiter at open, which
// may be '{', '[' or an opening quote.
func MatchClose(s string, open int) int {
	if open < 0 || open >= len(s) {
		return NotFound
	}
	switch s[open] {
	case '"':
		return FindClosingQuote(s, open+1)
	case '{':
		return FindMatchingBracket(s, open, Braces)
	case '[':
		return FindMatchingBracket(s, open, Brackets)
	}
	return NotFound
}
