package protocol

import (
	"fmt"

	"github.com/mdavisprog/lstalk/internal/jsonval"
)

// SemanticTokensLegend is the ordered token type and modifier vocabulary a
// server advertises during the handshake. The integer stream of a
// semanticTokens response is meaningless without it.
type SemanticTokensLegend struct {
	TokenTypes     []string `json:"tokenTypes"`
	TokenModifiers []string `json:"tokenModifiers"`
}

// LegendFromValue reads a legend out of the server's advertised
// capabilities. The second return is false when the server does not provide
// semantic tokens.
func LegendFromValue(caps jsonval.Value) (SemanticTokensLegend, bool) {
	legend := caps.Get("semanticTokensProvider").Get("legend")
	if legend.IsNull() {
		return SemanticTokensLegend{}, false
	}
	var out SemanticTokensLegend
	types := legend.Get("tokenTypes")
	for i := 0; i < types.Len(); i++ {
		out.TokenTypes = append(out.TokenTypes, types.At(i).Str())
	}
	modifiers := legend.Get("tokenModifiers")
	for i := 0; i < modifiers.Len(); i++ {
		out.TokenModifiers = append(out.TokenModifiers, modifiers.At(i).Str())
	}
	return out, true
}

// SemanticToken is one decoded token with absolute coordinates.
type SemanticToken struct {
	Line      int      `json:"line"`
	Character int      `json:"character"`
	Length    int      `json:"length"`
	Type      string   `json:"type"`
	Modifiers []string `json:"modifiers"`
}

// DecodeSemanticTokens decodes the packed integer stream of a
// textDocument/semanticTokens/full result. Each token is a 5-tuple
// (deltaLine, deltaStart, length, tokenType, tokenModifiers); deltas are
// relative to the previous token, deltaStart only within the same line.
// Modifiers decode from the bitmask in legend order.
func DecodeSemanticTokens(data jsonval.Value, legend SemanticTokensLegend) ([]SemanticToken, error) {
	if data.Len()%5 != 0 {
		return nil, fmt.Errorf("semantic token data length %d is not a multiple of 5", data.Len())
	}

	tokens := make([]SemanticToken, 0, data.Len()/5)
	line, character := 0, 0
	for i := 0; i < data.Len(); i += 5 {
		deltaLine := int(data.At(i).Int())
		deltaStart := int(data.At(i+1).Int())
		length := int(data.At(i+2).Int())
		tokenType := int(data.At(i+3).Int())
		modifierMask := data.At(i+4).Int()

		line += deltaLine
		if deltaLine > 0 {
			character = deltaStart
		} else {
			character += deltaStart
		}

		token := SemanticToken{
			Line:      line,
			Character: character,
			Length:    length,
			Modifiers: []string{},
		}
		if tokenType >= 0 && tokenType < len(legend.TokenTypes) {
			token.Type = legend.TokenTypes[tokenType]
		}
		for bit := 0; bit < len(legend.TokenModifiers); bit++ {
			if modifierMask&(1<<bit) != 0 {
				token.Modifiers = append(token.Modifiers, legend.TokenModifiers[bit])
			}
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}
