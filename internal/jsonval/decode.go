package jsonval

import (
	"fmt"
	"strconv"
)

// Decode parses a complete JSON document. The input must be a single
// top-level value; trailing non-whitespace input is an error.
func Decode(data []byte) (Value, error) {
	d := decoder{lex: &lexer{data: data}}
	tok, err := d.lex.next()
	if err != nil {
		return Null(), err
	}
	if tok.kind == tkEOF {
		return Null(), fmt.Errorf("empty input")
	}
	v, err := d.value(tok)
	if err != nil {
		return Null(), err
	}
	trailing, err := d.lex.next()
	if err != nil {
		return Null(), err
	}
	if trailing.kind != tkEOF {
		return Null(), fmt.Errorf("trailing input after top-level value")
	}
	return v, nil
}

type decoder struct {
	lex *lexer
}

func (d *decoder) value(tok token) (Value, error) {
	switch tok.kind {
	case tkObjectOpen:
		return d.object()
	case tkArrayOpen:
		return d.array()
	case tkString:
		s, err := unescape(tok.text)
		if err != nil {
			return Null(), err
		}
		return NewString(s), nil
	case tkLiteral:
		return decodeLiteral(tok.text)
	}
	return Null(), fmt.Errorf("unexpected token")
}

func (d *decoder) object() (Value, error) {
	obj := NewObject()
	first := true
	for {
		tok, err := d.lex.next()
		if err != nil {
			return Null(), err
		}
		if tok.kind == tkObjectClose && first {
			return obj, nil
		}
		if !first {
			if tok.kind == tkObjectClose {
				return obj, nil
			}
			if tok.kind != tkComma {
				return Null(), fmt.Errorf("expected ',' or '}' in object")
			}
			if tok, err = d.lex.next(); err != nil {
				return Null(), err
			}
		}
		first = false

		if tok.kind != tkString {
			return Null(), fmt.Errorf("expected object key")
		}
		key, err := unescape(tok.text)
		if err != nil {
			return Null(), err
		}

		tok, err = d.lex.next()
		if err != nil {
			return Null(), err
		}
		if tok.kind != tkColon {
			return Null(), fmt.Errorf("expected ':' after object key %q", key)
		}

		tok, err = d.lex.next()
		if err != nil {
			return Null(), err
		}
		val, err := d.value(tok)
		if err != nil {
			return Null(), err
		}
		obj.Set(key, val)
	}
}

func (d *decoder) array() (Value, error) {
	arr := NewArray()
	first := true
	for {
		tok, err := d.lex.next()
		if err != nil {
			return Null(), err
		}
		if tok.kind == tkArrayClose && first {
			return arr, nil
		}
		if !first {
			if tok.kind == tkArrayClose {
				return arr, nil
			}
			if tok.kind != tkComma {
				return Null(), fmt.Errorf("expected ',' or ']' in array")
			}
			if tok, err = d.lex.next(); err != nil {
				return Null(), err
			}
		}
		first = false

		val, err := d.value(tok)
		if err != nil {
			return Null(), err
		}
		arr.Push(val)
	}
}

func decodeLiteral(text []byte) (Value, error) {
	switch string(text) {
	case "true":
		return NewBool(true), nil
	case "false":
		return NewBool(false), nil
	case "null":
		return Null(), nil
	}
	if isFloatLiteral(text) {
		f, err := strconv.ParseFloat(string(text), 64)
		if err != nil {
			return Null(), fmt.Errorf("invalid number %q: %w", text, err)
		}
		return NewFloat(f), nil
	}
	i, err := strconv.ParseInt(string(text), 10, 64)
	if err != nil {
		return Null(), fmt.Errorf("invalid literal %q", text)
	}
	return NewInt(i), nil
}

func isFloatLiteral(text []byte) bool {
	for _, c := range text {
		if c == '.' || c == 'e' || c == 'E' {
			return true
		}
	}
	return false
}
