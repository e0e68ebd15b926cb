// Package lstalk is a client library for the Language Server Protocol. It
// spawns language servers as child processes, speaks JSON-RPC 2.0 over
// their stdio, and surfaces language intelligence (document symbols, hover,
// semantic tokens, diagnostics) through a cooperative polling API.
//
// The library runs no background protocol work: callers drive it by
// invoking ProcessResponses periodically and draining results with
// PollNotification.
package lstalk

import (
	"errors"

	"github.com/mdavisprog/lstalk/internal/logging"
)

// Version is the library version.
const Version = "0.1.0"

// ServerID identifies one supervised language server within a Context.
// IDs are monotonic and never reused.
type ServerID int

// InvalidServerID is returned when a server cannot be connected.
const InvalidServerID ServerID = -1

// Status is the connection state of a server session.
type Status int

const (
	StatusNotConnected Status = iota
	StatusConnecting
	StatusConnected
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotConnected:
		return "not connected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// DebugFlags is a bitmask controlling wire-level logging.
type DebugFlags = logging.WireMask

const (
	// DebugPrintRequests logs every outgoing message body.
	DebugPrintRequests = logging.WireRequests
	// DebugPrintResponses logs every incoming message body.
	DebugPrintResponses = logging.WireResponses
)

// DebugNone clears all debug flags.
const DebugNone DebugFlags = 0

var (
	// ErrInvalidServer reports an unknown or closed ServerID.
	ErrInvalidServer = errors.New("invalid server id")
	// ErrNotConnected reports a feature call against a session that has
	// not completed its handshake.
	ErrNotConnected = errors.New("server is not connected")
	// ErrSessionFailed reports a call against a session whose transport
	// has broken down.
	ErrSessionFailed = errors.New("server session has failed")
	// ErrDocumentNotOpen reports an operation on a document the session
	// has not opened.
	ErrDocumentNotOpen = errors.New("document is not open")
)
