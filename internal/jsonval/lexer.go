package jsonval

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tkEOF tokenKind = iota
	tkObjectOpen
	tkObjectClose
	tkArrayOpen
	tkArrayClose
	tkColon
	tkComma
	tkString
	tkLiteral
)

// token is a view into the lexer's input; it never owns memory.
type token struct {
	kind tokenKind
	text []byte
}

type lexer struct {
	data []byte
	pos  int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	switch c {
	case '"', ':', '{', '}', '[', ']', ',':
		return true
	}
	return false
}

// next scans one token. String tokens carry the raw contents between the
// quotes with escapes still encoded.
func (l *lexer) next() (token, error) {
	for l.pos < len(l.data) && isSpace(l.data[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.data) {
		return token{kind: tkEOF}, nil
	}

	c := l.data[l.pos]
	switch c {
	case '{':
		l.pos++
		return token{kind: tkObjectOpen}, nil
	case '}':
		l.pos++
		return token{kind: tkObjectClose}, nil
	case '[':
		l.pos++
		return token{kind: tkArrayOpen}, nil
	case ']':
		l.pos++
		return token{kind: tkArrayClose}, nil
	case ':':
		l.pos++
		return token{kind: tkColon}, nil
	case ',':
		l.pos++
		return token{kind: tkComma}, nil
	case '"':
		return l.scanString()
	}

	start := l.pos
	for l.pos < len(l.data) && !isSpace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	return token{kind: tkLiteral, text: l.data[start:l.pos]}, nil
}

// scanString advances past the opening quote to the next unescaped quote.
func (l *lexer) scanString() (token, error) {
	l.pos++ // opening quote
	start := l.pos
	for l.pos < len(l.data) {
		switch l.data[l.pos] {
		case '\\':
			l.pos += 2
		case '"':
			tok := token{kind: tkString, text: l.data[start:l.pos]}
			l.pos++
			return tok, nil
		default:
			l.pos++
		}
	}
	return token{}, fmt.Errorf("unterminated string at offset %d", start-1)
}

// unescape decodes the escape sequences of a raw string token.
func unescape(raw []byte) (string, error) {
	if !containsByte(raw, '\\') {
		return string(raw), nil
	}
	var sb strings.Builder
	sb.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(raw) {
			return "", fmt.Errorf("dangling escape")
		}
		switch raw[i] {
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		case '/':
			sb.WriteByte('/')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'u':
			r, consumed, err := decodeUnicodeEscape(raw[i-1:])
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
			i += consumed - 2
		default:
			return "", fmt.Errorf("unknown escape \\%c", raw[i])
		}
	}
	return sb.String(), nil
}

// decodeUnicodeEscape decodes \uXXXX starting at raw[0], combining
// surrogate pairs. consumed counts bytes of raw used.
func decodeUnicodeEscape(raw []byte) (rune, int, error) {
	if len(raw) < 6 {
		return 0, 0, fmt.Errorf("truncated unicode escape")
	}
	hi, err := strconv.ParseUint(string(raw[2:6]), 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid unicode escape: %w", err)
	}
	r := rune(hi)
	if !utf16.IsSurrogate(r) {
		return r, 6, nil
	}
	if len(raw) >= 12 && raw[6] == '\\' && raw[7] == 'u' {
		lo, err := strconv.ParseUint(string(raw[8:12]), 16, 32)
		if err == nil {
			if combined := utf16.DecodeRune(r, rune(lo)); combined != utf8.RuneError {
				return combined, 12, nil
			}
		}
	}
	return utf8.RuneError, 6, nil
}

func containsByte(b []byte, c byte) bool {
	for _, x := range b {
		if x == c {
			return true
		}
	}
	return false
}
