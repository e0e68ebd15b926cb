// Package protocol defines the Language Server Protocol types and payload
// interpretation used by the client.
package protocol

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mdavisprog/lstalk/internal/jsonval"
)

// Position represents a position in a text document.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range represents a range in a text document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location represents a location in a document.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// ServerInfo identifies a server, reported by its initialize response.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Trace is the $/setTrace verbosity level.
type Trace string

const (
	TraceOff      Trace = "off"
	TraceMessages Trace = "messages"
	TraceVerbose  Trace = "verbose"
)

// ParseTrace validates a trace string.
func ParseTrace(s string) (Trace, error) {
	switch Trace(s) {
	case TraceOff, TraceMessages, TraceVerbose:
		return Trace(s), nil
	}
	return "", fmt.Errorf("unknown trace value %q", s)
}

// PositionFromValue reads a decoded {line, character} object.
func PositionFromValue(v jsonval.Value) Position {
	return Position{
		Line:      int(v.Get("line").Int()),
		Character: int(v.Get("character").Int()),
	}
}

// RangeFromValue reads a decoded {start, end} object.
func RangeFromValue(v jsonval.Value) Range {
	return Range{
		Start: PositionFromValue(v.Get("start")),
		End:   PositionFromValue(v.Get("end")),
	}
}

// PositionValue builds the wire form of a position.
func PositionValue(p Position) jsonval.Value {
	v := jsonval.NewObject()
	v.Set("line", jsonval.NewInt(int64(p.Line)))
	v.Set("character", jsonval.NewInt(int64(p.Character)))
	return v
}

// DetectLanguageID infers the LSP language identifier from a file path.
func DetectLanguageID(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".go":
		return "go"
	case ".ts":
		return "typescript"
	case ".tsx":
		return "typescriptreact"
	case ".js":
		return "javascript"
	case ".jsx":
		return "javascriptreact"
	case ".py":
		return "python"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	case ".c":
		return "c"
	case ".cpp", ".cc", ".cxx", ".h", ".hpp":
		return "cpp"
	case ".rb":
		return "ruby"
	case ".php":
		return "php"
	case ".cs":
		return "csharp"
	case ".swift":
		return "swift"
	case ".kt", ".kts":
		return "kotlin"
	case ".lua":
		return "lua"
	case ".sh", ".bash":
		return "shellscript"
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".xml":
		return "xml"
	case ".html", ".htm":
		return "html"
	case ".css":
		return "css"
	case ".md":
		return "markdown"
	case ".sql":
		return "sql"
	case ".proto":
		return "proto"
	default:
		return "plaintext"
	}
}
