// Package logging configures the library's zerolog output and builds the
// per-session and wire-level loggers the client threads through its
// sessions. Every session logs under its server id and correlation key;
// wire logging of raw message bodies is gated by the context's debug mask.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Level aliases zerolog's level type.
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// Config describes the desired logger output.
type Config struct {
	// Level is the minimum level, parsed with ParseLevel. Empty means info.
	Level string
	// Writer receives log lines; defaults to os.Stderr.
	Writer io.Writer
	// Pretty switches to zerolog's human-readable console form.
	Pretty bool
	// Dir, when set, additionally writes to a timestamped
	// lstalk-<stamp>.log file inside it.
	Dir string
}

var (
	base    zerolog.Logger
	logFile *os.File
)

// Init replaces the package logger. Safe to call again to reconfigure.
func Init(cfg Config) {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	if cfg.Dir != "" {
		stamp := time.Now().Format("20060102-150405")
		f, err := os.OpenFile(filepath.Join(cfg.Dir, "lstalk-"+stamp+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			logFile = f
			w = zerolog.MultiLevelWriter(w, f)
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	base = zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to its zerolog level, defaulting to info.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// LogFilePath returns the active log file, or "" when logging only to the
// writer.
func LogFilePath() string {
	if logFile == nil {
		return ""
	}
	return logFile.Name()
}

// Close releases the log file, if any.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Warn starts a warn-level event on the package logger.
func Warn() *zerolog.Event {
	return base.Warn()
}

// Error starts an error-level event on the package logger.
func Error() *zerolog.Event {
	return base.Error()
}

// ForSession derives the logger one server session logs through: every
// line carries the numeric server id and the session's ulid correlation
// key, so interleaved multi-server output stays attributable.
func ForSession(serverID int, key string) zerolog.Logger {
	return base.With().Int("server", serverID).Str("session", key).Logger()
}

// WireMask selects which raw message bodies a WireLog emits.
type WireMask uint32

const (
	// WireRequests logs bodies written to the server.
	WireRequests WireMask = 1 << iota
	// WireResponses logs bodies read from the server.
	WireResponses
)

// WireLog emits raw JSON-RPC bodies for one session. The mask pointer is
// shared with the owning context so toggling debug flags takes effect on
// every live session at once.
type WireLog struct {
	log  zerolog.Logger
	mask *WireMask
}

// NewWireLog builds the wire logger for one session.
func NewWireLog(log zerolog.Logger, mask *WireMask) WireLog {
	return WireLog{log: log, mask: mask}
}

// Sent records one outgoing body when WireRequests is set.
func (w WireLog) Sent(body []byte) {
	if *w.mask&WireRequests == 0 {
		return
	}
	w.log.Debug().RawJSON("body", body).Msg("wire send")
}

// Received records one incoming body when WireResponses is set.
func (w WireLog) Received(body []byte) {
	if *w.mask&WireResponses == 0 {
		return
	}
	w.log.Debug().RawJSON("body", body).Msg("wire recv")
}

func init() {
	Init(Config{})
}
