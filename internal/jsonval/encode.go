package jsonval

import "strconv"

const hexDigits = "0123456789abcdef"

// Encode serializes v to compact UTF-8 JSON. Object members keep their
// insertion order.
func Encode(v Value) []byte {
	return AppendEncode(nil, v)
}

// AppendEncode appends the serialized form of v to dst and returns the
// extended slice. Callers that recycle buffers pass pooled scratch space.
func AppendEncode(dst []byte, v Value) []byte {
	switch v.kind {
	case KindNull:
		return append(dst, "null"...)
	case KindBool:
		if v.b {
			return append(dst, "true"...)
		}
		return append(dst, "false"...)
	case KindInt:
		return strconv.AppendInt(dst, v.i, 10)
	case KindFloat:
		return strconv.AppendFloat(dst, v.f, 'g', -1, 64)
	case KindString:
		return appendQuoted(dst, v.s)
	case KindObject:
		dst = append(dst, '{')
		for i, m := range v.obj.members {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendQuoted(dst, m.key)
			dst = append(dst, ':')
			dst = AppendEncode(dst, m.val)
		}
		return append(dst, '}')
	case KindArray:
		dst = append(dst, '[')
		for i, item := range v.arr.items {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = AppendEncode(dst, item)
		}
		return append(dst, ']')
	}
	return dst
}

func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			} else {
				dst = append(dst, c)
			}
		}
	}
	return append(dst, '"')
}
