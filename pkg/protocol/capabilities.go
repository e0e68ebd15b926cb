package protocol

import "github.com/mdavisprog/lstalk/internal/jsonval"

// ClientCapabilities holds the curated capability flags the client may
// advertise in initialize. Every flag defaults to false and is emitted only
// when true; the client never advertises a feature it cannot consume.
type ClientCapabilities struct {
	TextDocument TextDocumentCapabilities `json:"textDocument"`
	Window       WindowCapabilities       `json:"window"`
}

// TextDocumentCapabilities are the textDocument.* capability flags.
type TextDocumentCapabilities struct {
	Synchronization    bool `json:"synchronization"`
	Hover              bool `json:"hover"`
	DocumentSymbol     bool `json:"documentSymbol"`
	HierarchicalSymbol bool `json:"hierarchicalSymbol"`
	SemanticTokens     bool `json:"semanticTokens"`
	PublishDiagnostics bool `json:"publishDiagnostics"`
}

// WindowCapabilities are the window.* capability flags.
type WindowCapabilities struct {
	WorkDoneProgress bool `json:"workDoneProgress"`
}

// DefaultCapabilities advertises everything this client consumes.
func DefaultCapabilities() ClientCapabilities {
	return ClientCapabilities{
		TextDocument: TextDocumentCapabilities{
			Synchronization:    true,
			Hover:              true,
			DocumentSymbol:     true,
			HierarchicalSymbol: true,
			SemanticTokens:     true,
			PublishDiagnostics: true,
		},
	}
}

// ToValue builds the wire-form capabilities object. Absent flags are
// omitted entirely rather than sent as false.
func (c ClientCapabilities) ToValue() jsonval.Value {
	caps := jsonval.NewObject()

	td := jsonval.NewObject()
	if c.TextDocument.Synchronization {
		sync := jsonval.NewObject()
		sync.Set("openClose", jsonval.NewBool(true))
		sync.Set("change", jsonval.NewInt(1)) // full-document sync
		td.Set("synchronization", sync)
	}
	if c.TextDocument.Hover {
		hover := jsonval.NewObject()
		formats := jsonval.NewArray()
		formats.Push(jsonval.NewString("plaintext"))
		formats.Push(jsonval.NewString("markdown"))
		hover.Set("contentFormat", formats)
		td.Set("hover", hover)
	}
	if c.TextDocument.DocumentSymbol {
		symbol := jsonval.NewObject()
		if c.TextDocument.HierarchicalSymbol {
			symbol.Set("hierarchicalDocumentSymbolSupport", jsonval.NewBool(true))
		}
		valueSet := jsonval.NewArray()
		for _, kind := range AllSymbolKinds() {
			valueSet.Push(jsonval.NewInt(int64(kind)))
		}
		kindCap := jsonval.NewObject()
		kindCap.Set("valueSet", valueSet)
		symbol.Set("symbolKind", kindCap)
		td.Set("documentSymbol", symbol)
	}
	if c.TextDocument.SemanticTokens {
		tokens := jsonval.NewObject()
		requests := jsonval.NewObject()
		requests.Set("full", jsonval.NewBool(true))
		tokens.Set("requests", requests)
		tokens.Set("formats", jsonval.NewArray())
		td.Set("semanticTokens", tokens)
	}
	if c.TextDocument.PublishDiagnostics {
		td.Set("publishDiagnostics", jsonval.NewObject())
	}
	if td.Len() > 0 {
		caps.Set("textDocument", td)
	}

	if c.Window.WorkDoneProgress {
		window := jsonval.NewObject()
		window.Set("workDoneProgress", jsonval.NewBool(true))
		caps.Set("window", window)
	}

	return caps
}
