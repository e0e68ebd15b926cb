package protocol

import (
	"strings"

	"github.com/mdavisprog/lstalk/internal/jsonval"
)

// FlattenHover collapses a textDocument/hover contents payload into one
// string. The payload is one of: a plain string, a MarkupContent object, a
// MarkedString object ({language, value}), or an array of marked strings.
// Array variants join with newlines; empty or null results yield "".
func FlattenHover(result jsonval.Value) string {
	contents := result.Get("contents")
	switch contents.Kind() {
	case jsonval.KindString:
		return contents.Str()
	case jsonval.KindObject:
		return contents.Get("value").Str()
	case jsonval.KindArray:
		parts := make([]string, 0, contents.Len())
		for i := 0; i < contents.Len(); i++ {
			item := contents.At(i)
			switch item.Kind() {
			case jsonval.KindString:
				parts = append(parts, item.Str())
			case jsonval.KindObject:
				parts = append(parts, item.Get("value").Str())
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}
