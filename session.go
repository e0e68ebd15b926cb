package lstalk

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/mdavisprog/lstalk/internal/buffer"
	"github.com/mdavisprog/lstalk/internal/event"
	"github.com/mdavisprog/lstalk/internal/framing"
	"github.com/mdavisprog/lstalk/internal/jsonval"
	"github.com/mdavisprog/lstalk/internal/logging"
	"github.com/mdavisprog/lstalk/internal/mem"
	"github.com/mdavisprog/lstalk/internal/rpc"
	"github.com/mdavisprog/lstalk/pkg/protocol"
)

// transport abstracts the supervised child process so sessions can be
// driven by an in-memory fake in tests. process.Handle implements it.
type transport interface {
	Write(p []byte) error
	ReadAvailable() []byte
	Alive() bool
	Pid() int
	Terminate()
}

// pendingRequest tracks one in-flight request until its response arrives.
type pendingRequest struct {
	id     int64
	method string
	// uri is the caller-visible correlation target, e.g. the document a
	// hover was requested for.
	uri string
}

// session is the per-server state machine: connection status, pending
// request map, notification queue and handshake bookkeeping.
type session struct {
	id   ServerID
	key  string
	log  zerolog.Logger
	wire logging.WireLog

	proc transport
	dec  *framing.Decoder
	pool mem.Pool
	bus  *event.Bus

	status Status
	trace  protocol.Trace

	nextRequestID int64
	pending       map[int64]pendingRequest
	notifications buffer.Buffer[Notification]

	info      protocol.ServerInfo
	caps      jsonval.Value
	legend    protocol.SemanticTokensLegend
	hasLegend bool

	// openDocs maps document URI to its synced version.
	openDocs    map[string]int
	docPaths    map[string]string // path -> uri
	diagnostics map[string][]protocol.Diagnostic

	watch        bool
	shutdownDone bool
}

func newSession(id ServerID, proc transport, pool mem.Pool, bus *event.Bus, debug *DebugFlags) *session {
	key := ulid.Make().String()
	log := logging.ForSession(int(id), key)
	return &session{
		id:            id,
		key:           key,
		log:           log,
		wire:          logging.NewWireLog(log, debug),
		proc:          proc,
		dec:           framing.NewDecoder(pool),
		pool:          pool,
		bus:           bus,
		status:        StatusNotConnected,
		trace:         protocol.TraceOff,
		nextRequestID: 1,
		pending:       make(map[int64]pendingRequest),
		openDocs:      make(map[string]int),
		docPaths:      make(map[string]string),
		diagnostics:   make(map[string][]protocol.Diagnostic),
	}
}

// send frames and writes one encoded message.
func (s *session) send(msg jsonval.Value) error {
	body := jsonval.AppendEncode(s.pool.Get(256), msg)
	defer s.pool.Put(body)

	s.wire.Sent(body)

	framed := framing.AppendFrame(s.pool.Get(len(body)+32), body)
	defer s.pool.Put(framed)

	if err := s.proc.Write(framed); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// sendRequest allocates the next request id, records the pending entry and
// writes the request. Ids are strictly monotonic per session.
func (s *session) sendRequest(method string, params jsonval.Value, uri string) (int64, error) {
	id := s.nextRequestID
	s.nextRequestID++

	if err := s.send(rpc.NewRequest(id, method, params)); err != nil {
		return 0, err
	}
	s.pending[id] = pendingRequest{id: id, method: method, uri: uri}
	return id, nil
}

func (s *session) sendNotification(method string, params jsonval.Value) error {
	return s.send(rpc.NewNotification(method, params))
}

// pump drains available child output through the framing codec and routes
// each complete message. Invoked from ProcessResponses; never blocks.
func (s *session) pump() {
	if s.status == StatusFailed {
		return
	}

	alive := s.proc.Alive()
	if data := s.proc.ReadAvailable(); len(data) > 0 {
		s.dec.Feed(data)
	}

	for {
		body, err := s.dec.Next()
		if err != nil {
			s.fail(err)
			return
		}
		if body == nil {
			break
		}
		s.handleBody(body)
		s.dec.Release(body)
		if s.status == StatusFailed {
			return
		}
	}

	if !alive && s.dec.Buffered() == 0 {
		s.fail(ErrSessionFailed)
	}
}

// handleBody decodes and routes one complete message body.
func (s *session) handleBody(body []byte) {
	s.wire.Received(body)

	msg, err := rpc.Parse(body)
	if err != nil {
		// A corrupt body fails nothing beyond itself.
		s.log.Warn().Err(err).Msg("discarding undecodable message")
		return
	}

	switch msg.Kind {
	case rpc.KindResponse:
		s.handleResponse(msg)
	case rpc.KindNotification:
		s.handleServerNotification(msg)
	case rpc.KindServerRequest:
		s.log.Debug().Str("method", msg.Method).Msg("ignoring server-to-client request")
	}
}

func (s *session) handleResponse(msg rpc.Message) {
	req, ok := s.pending[msg.ID]
	if !ok {
		s.log.Warn().Int64("id", msg.ID).Msg("discarding unmatched response")
		return
	}
	delete(s.pending, msg.ID)

	if msg.Err != nil {
		s.log.Warn().Str("method", req.method).Int64("code", msg.Err.Code).
			Str("error", msg.Err.Message).Msg("request failed")
		return
	}

	switch req.method {
	case "initialize":
		s.completeHandshake(msg.Result)
	case "shutdown":
		s.shutdownDone = true
	case "textDocument/documentSymbol":
		s.notifications.Push(Notification{
			Type:    NotificationDocumentSymbols,
			URI:     req.uri,
			Symbols: protocol.FlattenSymbols(msg.Result),
		})
	case "textDocument/hover":
		s.notifications.Push(Notification{
			Type:     NotificationHover,
			URI:      req.uri,
			Contents: protocol.FlattenHover(msg.Result),
		})
	case "textDocument/semanticTokens/full":
		s.handleSemanticTokens(req, msg.Result)
	default:
		s.log.Debug().Str("method", req.method).Msg("response with no handler")
	}
}

// completeHandshake finishes CONNECTING -> CONNECTED: capture server info,
// capabilities and the semantic-tokens legend, then acknowledge with the
// initialized notification.
func (s *session) completeHandshake(result jsonval.Value) {
	info := result.Get("serverInfo")
	s.info = protocol.ServerInfo{
		Name:    info.Get("name").Str(),
		Version: info.Get("version").Str(),
	}
	s.caps = result.Get("capabilities")
	s.legend, s.hasLegend = protocol.LegendFromValue(s.caps)

	if err := s.sendNotification("initialized", jsonval.NewObject()); err != nil {
		return
	}
	s.status = StatusConnected
	s.log.Info().Str("name", s.info.Name).Str("version", s.info.Version).Msg("server connected")
	s.bus.Publish(event.Event{Type: event.ServerConnected, ServerID: int(s.id), Detail: s.info.Name})
}

func (s *session) handleSemanticTokens(req pendingRequest, result jsonval.Value) {
	if !s.hasLegend {
		s.log.Warn().Str("uri", req.uri).Msg("semantic tokens response without a server legend")
		return
	}
	tokens, err := protocol.DecodeSemanticTokens(result.Get("data"), s.legend)
	if err != nil {
		s.log.Warn().Err(err).Str("uri", req.uri).Msg("bad semantic token data")
		return
	}
	s.notifications.Push(Notification{
		Type:     NotificationSemanticTokens,
		URI:      req.uri,
		ResultID: result.Get("resultId").Str(),
		Tokens:   tokens,
	})
}

// handleServerNotification routes a server-initiated notification. Handled
// methods are consumed; the rest are discarded.
func (s *session) handleServerNotification(msg rpc.Message) {
	switch msg.Method {
	case "$/logTrace":
		if s.trace != protocol.TraceOff {
			s.log.Info().Str("message", msg.Params.Get("message").Str()).Msg("server trace")
		}
	case "window/logMessage":
		s.logWindowMessage(msg.Params)
	case "textDocument/publishDiagnostics":
		uri := msg.Params.Get("uri").Str()
		s.diagnostics[uri] = protocol.DiagnosticsFromValue(msg.Params)
	case "$/progress":
		// Acknowledged silently.
	default:
		s.log.Debug().Str("method", msg.Method).Msg("ignoring server notification")
	}
}

func (s *session) logWindowMessage(params jsonval.Value) {
	text := params.Get("message").Str()
	switch params.Get("type").Int() {
	case 1:
		s.log.Error().Msg(text)
	case 2:
		s.log.Warn().Msg(text)
	default:
		s.log.Info().Msg(text)
	}
}

// fail moves the session to its terminal failed state: every pending
// request is cancelled, queued notifications are dropped and the child is
// terminated.
func (s *session) fail(err error) {
	if s.status == StatusFailed {
		return
	}
	s.log.Warn().Err(err).Msg("session failed")
	s.status = StatusFailed
	for id, req := range s.pending {
		s.log.Debug().Int64("id", id).Str("method", req.method).Msg("pending request cancelled")
	}
	s.pending = make(map[int64]pendingRequest)
	s.notifications.Reset()
	s.proc.Terminate()
	s.bus.Publish(event.Event{Type: event.ServerFailed, ServerID: int(s.id), Detail: err.Error()})
}

// shutdownWait bounds how long close polls for the shutdown response
// before terminating the child unconditionally.
const shutdownWait = time.Second

// close runs the shutdown -> exit handshake and tears the session down.
// Pending requests never complete and queued notifications are dropped.
func (s *session) close() {
	if s.status == StatusConnected {
		if _, err := s.sendRequest("shutdown", jsonval.Null(), ""); err == nil {
			wait := backoff.NewExponentialBackOff()
			wait.InitialInterval = 10 * time.Millisecond
			wait.MaxInterval = 100 * time.Millisecond
			wait.MaxElapsedTime = shutdownWait
			for !s.shutdownDone && s.status != StatusFailed {
				next := wait.NextBackOff()
				if next == backoff.Stop {
					break
				}
				time.Sleep(next)
				s.pump()
			}
		}
		if s.status != StatusFailed {
			s.sendNotification("exit", jsonval.Null())
		}
	}

	s.pending = make(map[int64]pendingRequest)
	s.notifications.Reset()
	s.proc.Terminate()
	if s.status != StatusFailed {
		s.log.Info().Msg("server closed")
		s.bus.Publish(event.Event{Type: event.ServerClosed, ServerID: int(s.id)})
	}
}
