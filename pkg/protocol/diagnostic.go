package protocol

import (
	"strconv"

	"github.com/mdavisprog/lstalk/internal/jsonval"
)

// DiagnosticSeverity levels.
const (
	DiagnosticSeverityError       = 1
	DiagnosticSeverityWarning     = 2
	DiagnosticSeverityInformation = 3
	DiagnosticSeverityHint        = 4
)

// Diagnostic represents one code diagnostic.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity int    `json:"severity"`
	Code     string `json:"code,omitempty"`
	Source   string `json:"source,omitempty"`
	Message  string `json:"message"`
}

// DiagnosticsFromValue reads the diagnostics array of a
// textDocument/publishDiagnostics notification.
func DiagnosticsFromValue(params jsonval.Value) []Diagnostic {
	list := params.Get("diagnostics")
	diags := make([]Diagnostic, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		d := list.At(i)
		diag := Diagnostic{
			Range:    RangeFromValue(d.Get("range")),
			Severity: int(d.Get("severity").Int()),
			Source:   d.Get("source").Str(),
			Message:  d.Get("message").Str(),
		}
		// Codes arrive as either strings or numbers.
		code := d.Get("code")
		if code.Kind() == jsonval.KindString {
			diag.Code = code.Str()
		} else if code.Kind() == jsonval.KindInt {
			diag.Code = strconv.FormatInt(code.Int(), 10)
		}
		diags = append(diags, diag)
	}
	return diags
}
