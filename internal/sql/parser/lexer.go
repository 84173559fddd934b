package parser

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokSymbol
)

type token struct {
	kind tokenKind
	text string // identifiers keep their case; symbols are the operator text
	pos  int
}

// upper returns the identifier text upper-cased, used for keyword matching.
func (t token) upper() string { return strings.ToUpper(t.text) }

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of statement"
	}
	return fmt.Sprintf("%q", t.text)
}

// tokenize splits one statement. Single-quoted strings use '' as escape,
// double-quoted and backquoted identifiers are accepted.
func tokenize(src string) ([]token, error) {
	var out []token
	i := 0
	for i < len(src) {
		r := rune(src[i])
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '-' && i+1 < len(src) && src[i+1] == '-':
			for i < len(src) && src[i] != '\n' {
				i++
			}

		case r == '\'':
			start := i
			var b strings.Builder
			i++
			closed := false
			for i < len(src) {
				if src[i] == '\'' {
					if i+1 < len(src) && src[i+1] == '\'' {
						b.WriteByte('\'')
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				b.WriteByte(src[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string literal at %d", start)
			}
			out = append(out, token{kind: tokString, text: b.String(), pos: start})

		case r == '"' || r == '`':
			start := i
			end := strings.IndexByte(src[i+1:], src[i])
			if end < 0 {
				return nil, fmt.Errorf("unterminated quoted identifier at %d", start)
			}
			out = append(out, token{kind: tokIdent, text: src[i+1 : i+1+end], pos: start})
			i += end + 2

		case isDigit(src[i]) || (r == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && isDigit(src[j]) {
					i = j
					for i < len(src) && isDigit(src[i]) {
						i++
					}
				}
			}
			out = append(out, token{kind: tokNumber, text: src[start:i], pos: start})

		case isIdentByte(src[i]):
			start := i
			for i < len(src) && (isIdentByte(src[i]) || isDigit(src[i])) {
				i++
			}
			out = append(out, token{kind: tokIdent, text: src[start:i], pos: start})

		default:
			start := i
			two := ""
			if i+1 < len(src) {
				two = src[i : i+2]
			}
			switch two {
			case "<>", "!=", "<=", ">=", "||", "==":
				out = append(out, token{kind: tokSymbol, text: two, pos: start})
				i += 2
				continue
			}
			if !strings.ContainsRune("(),;*=<>+-/%.", r) {
				return nil, fmt.Errorf("unexpected character %q at %d", r, start)
			}
			out = append(out, token{kind: tokSymbol, text: string(r), pos: start})
			i++
		}
	}
	out = append(out, token{kind: tokEOF, pos: len(src)})
	return out, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// isIdentByte accepts ASCII letters, '_' and any non-ASCII byte so UTF-8
// identifiers pass through untouched.
func isIdentByte(b byte) bool {
	return b == '_' || b >= 0x80 || unicode.IsLetter(rune(b))
}
