package lstalk

import "github.com/mdavisprog/lstalk/pkg/protocol"

// NotificationType tags a caller-facing notification variant.
type NotificationType int

const (
	NotificationNone NotificationType = iota
	NotificationDocumentSymbols
	NotificationHover
	NotificationSemanticTokens
)

func (t NotificationType) String() string {
	switch t {
	case NotificationDocumentSymbols:
		return "textDocument/documentSymbol"
	case NotificationHover:
		return "textDocument/hover"
	case NotificationSemanticTokens:
		return "textDocument/semanticTokens"
	}
	return "none"
}

// Notification is one decoded result dequeued via PollNotification. The
// populated fields depend on Type:
//
//   - NotificationDocumentSymbols: URI, Symbols
//   - NotificationHover: URI, Contents
//   - NotificationSemanticTokens: URI, ResultID, Tokens
type Notification struct {
	Type     NotificationType
	URI      string
	Symbols  []protocol.Symbol
	Contents string
	ResultID string
	Tokens   []protocol.SemanticToken
}
