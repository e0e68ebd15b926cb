package lstalk

import (
	"fmt"
	"strings"

	"github.com/mdavisprog/lstalk/internal/config"
	"github.com/mdavisprog/lstalk/internal/event"
	"github.com/mdavisprog/lstalk/internal/jsonval"
	"github.com/mdavisprog/lstalk/internal/logging"
	"github.com/mdavisprog/lstalk/internal/mem"
	"github.com/mdavisprog/lstalk/internal/process"
	"github.com/mdavisprog/lstalk/internal/watcher"
	"github.com/mdavisprog/lstalk/pkg/protocol"
)

// ConnectParams configures one server connection.
type ConnectParams struct {
	// Args are passed to the server executable.
	Args []string
	// RootURI is the workspace root advertised in initialize; empty means
	// no workspace.
	RootURI string
	// Trace is the initial $/setTrace level; defaults to off.
	Trace protocol.Trace
	// SeekPathEnv resolves a bare executable name against the PATH
	// environment before spawning.
	SeekPathEnv bool
	// Capabilities controls what the client advertises. The zero value
	// advertises nothing; DefaultCapabilities() advertises everything the
	// library consumes.
	Capabilities protocol.ClientCapabilities
	// WatchDocuments re-syncs open documents when they change on disk.
	WatchDocuments bool
}

// Context owns the session registry, the buffer pool and the lifecycle
// event bus. All methods must be called from a single goroutine; the
// library does no background protocol work.
type Context struct {
	pool mem.Pool
	bus  *event.Bus

	clientName    string
	clientVersion string
	locale        string
	debug         DebugFlags

	nextServerID ServerID
	sessions     map[ServerID]*session

	cfg   *config.Config
	watch *watcher.Watcher
}

// New creates a Context with a recycling (sync.Pool-backed) buffer pool.
func New() *Context {
	return NewWithPool(mem.NewRecycling())
}

// NewWithPool creates a Context using a caller-supplied buffer pool.
func NewWithPool(pool mem.Pool) *Context {
	if pool == nil {
		pool = mem.Heap{}
	}
	return &Context{
		pool:       pool,
		bus:        event.NewBus(),
		clientName: "lstalk",
		sessions:   make(map[ServerID]*session),
	}
}

// Shutdown closes every session and releases the Context's resources.
func (c *Context) Shutdown() {
	for id, s := range c.sessions {
		s.close()
		delete(c.sessions, id)
	}
	if c.watch != nil {
		c.watch.Close()
		c.watch = nil
	}
	c.bus.Close()
}

// SetClientInfo sets the clientInfo advertised in initialize.
func (c *Context) SetClientInfo(name, version string) {
	if name != "" {
		c.clientName = name
	}
	c.clientVersion = version
}

// SetLocale sets the locale advertised in initialize.
func (c *Context) SetLocale(locale string) {
	c.locale = locale
}

// SetDebugFlags replaces the wire-logging mask for all sessions.
func (c *Context) SetDebugFlags(flags DebugFlags) {
	c.debug = flags
}

// Events returns the lifecycle event bus.
func (c *Context) Events() *event.Bus {
	return c.bus
}

// Connect spawns a language server and starts its handshake. The returned
// server reaches StatusConnected only after ProcessResponses has seen the
// initialize response; poll ConnectionStatus to observe it.
func (c *Context) Connect(uri string, params ConnectParams) (ServerID, error) {
	trace := params.Trace
	if trace == "" {
		trace = protocol.TraceOff
	} else if _, err := protocol.ParseTrace(string(trace)); err != nil {
		return InvalidServerID, err
	}

	path := strings.TrimPrefix(uri, "file://")
	proc, err := process.Spawn(path, params.Args, params.SeekPathEnv)
	if err != nil {
		logging.Error().Err(err).Str("uri", uri).Msg("spawn failed")
		return InvalidServerID, err
	}

	id := c.register(proc, params, trace)
	return id, nil
}

// register wires a spawned transport into a new session and sends the
// initialize request. Split from Connect so tests can drive sessions over
// an in-memory transport.
func (c *Context) register(proc transport, params ConnectParams, trace protocol.Trace) ServerID {
	id := c.nextServerID
	c.nextServerID++

	s := newSession(id, proc, c.pool, c.bus, &c.debug)
	s.trace = trace
	s.watch = params.WatchDocuments
	c.sessions[id] = s

	if err := s.initialize(c.clientName, c.clientVersion, c.locale, params.RootURI, params.Capabilities); err != nil {
		// The session is already failed; keep it registered so the caller
		// observes StatusFailed.
		logging.Error().Err(err).Msg("initialize send failed")
	}
	return id
}

// ConnectForFile resolves the language server responsible for path from
// the workspace configuration and connects it. The workspace directory is
// where config files and .env are looked up.
func (c *Context) ConnectForFile(path, workDir string, params ConnectParams) (ServerID, error) {
	if c.cfg == nil {
		cfg, err := config.Load(workDir)
		if err != nil {
			return InvalidServerID, err
		}
		if cfg.LogLevel != "" {
			logging.Init(logging.Config{Level: cfg.LogLevel})
		}
		if cfg.Trace != "" {
			if trace, err := protocol.ParseTrace(cfg.Trace); err == nil && params.Trace == "" {
				params.Trace = trace
			}
		}
		c.cfg = cfg
	}

	def := c.cfg.ServerFor(path)
	if def == nil {
		return InvalidServerID, fmt.Errorf("no language server configured for %s", path)
	}

	params.Args = append(append([]string(nil), def.Command[1:]...), params.Args...)
	params.SeekPathEnv = true
	return c.Connect(def.Command[0], params)
}

// ConnectionStatus reports the state of a session. Unknown ids report
// StatusNotConnected.
func (c *Context) ConnectionStatus(id ServerID) Status {
	s, ok := c.sessions[id]
	if !ok {
		return StatusNotConnected
	}
	return s.status
}

// ServerInfo returns the name and version the server reported during the
// handshake.
func (c *Context) ServerInfo(id ServerID) (protocol.ServerInfo, bool) {
	s, ok := c.sessions[id]
	if !ok || s.status != StatusConnected {
		return protocol.ServerInfo{}, false
	}
	return s.info, true
}

// ServerCapabilities returns the capability snapshot the server sent in
// its initialize response, or false before the handshake completes.
func (c *Context) ServerCapabilities(id ServerID) (jsonval.Value, bool) {
	s, ok := c.sessions[id]
	if !ok || s.status != StatusConnected {
		return jsonval.Null(), false
	}
	return s.caps, true
}

// Close runs the shutdown handshake for one session and destroys it.
// Pending requests are cancelled and never complete.
func (c *Context) Close(id ServerID) bool {
	s, ok := c.sessions[id]
	if !ok {
		return false
	}
	c.unwatchSession(s)
	s.close()
	delete(c.sessions, id)
	return true
}

// SetTraceFromString updates the trace level from its string form, one of
// "off", "messages" or "verbose".
func (c *Context) SetTraceFromString(id ServerID, value string) error {
	trace, err := protocol.ParseTrace(value)
	if err != nil {
		return err
	}
	s, err := c.connected(id)
	if err != nil {
		return err
	}
	return s.setTrace(trace)
}

// TextDocumentDidOpen opens a document from disk and announces it.
func (c *Context) TextDocumentDidOpen(id ServerID, path string) error {
	s, err := c.connected(id)
	if err != nil {
		return err
	}
	if err := s.didOpen(path); err != nil {
		return err
	}
	if s.watch {
		if err := c.watchPath(path); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("cannot watch document")
		}
	}
	return nil
}

// TextDocumentDidChange re-syncs an open document's content from disk.
func (c *Context) TextDocumentDidChange(id ServerID, path string) error {
	s, err := c.connected(id)
	if err != nil {
		return err
	}
	return s.didChange(path)
}

// TextDocumentDidClose retracts an open document.
func (c *Context) TextDocumentDidClose(id ServerID, path string) error {
	s, err := c.connected(id)
	if err != nil {
		return err
	}
	if c.watch != nil {
		c.watch.Remove(path)
	}
	return s.didClose(path)
}

// TextDocumentSymbol requests a document's symbol outline; the result
// arrives as a NotificationDocumentSymbols.
func (c *Context) TextDocumentSymbol(id ServerID, path string) error {
	s, err := c.connected(id)
	if err != nil {
		return err
	}
	return s.documentSymbol(path)
}

// TextDocumentHover requests hover information; the result arrives as a
// NotificationHover.
func (c *Context) TextDocumentHover(id ServerID, path string, line, character int) error {
	s, err := c.connected(id)
	if err != nil {
		return err
	}
	return s.hover(path, line, character)
}

// TextDocumentSemanticTokens requests the full semantic-token stream; the
// result arrives as a NotificationSemanticTokens.
func (c *Context) TextDocumentSemanticTokens(id ServerID, path string) error {
	s, err := c.connected(id)
	if err != nil {
		return err
	}
	return s.semanticTokens(path)
}

// Diagnostics returns the most recent published diagnostics for a
// document.
func (c *Context) Diagnostics(id ServerID, path string) []protocol.Diagnostic {
	s, ok := c.sessions[id]
	if !ok {
		return nil
	}
	return s.diagnostics[uriForPath(path)]
}

// ProcessResponses drains every session: reads available child output,
// decodes complete messages, completes pending requests and enqueues
// caller notifications. It never blocks and returns immediately when no
// session exists.
func (c *Context) ProcessResponses() {
	c.drainWatcher()
	for _, s := range c.sessions {
		s.pump()
	}
}

// PollNotification dequeues one notification for a session in FIFO order.
func (c *Context) PollNotification(id ServerID) (Notification, bool) {
	s, ok := c.sessions[id]
	if !ok {
		return Notification{}, false
	}
	return s.notifications.Shift()
}

// connected validates that a session exists and has finished its
// handshake.
func (c *Context) connected(id ServerID) (*session, error) {
	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrInvalidServer
	}
	switch s.status {
	case StatusConnected:
		return s, nil
	case StatusFailed:
		return nil, ErrSessionFailed
	default:
		return nil, ErrNotConnected
	}
}

func (c *Context) watchPath(path string) error {
	if c.watch == nil {
		w, err := watcher.New()
		if err != nil {
			return err
		}
		c.watch = w
	}
	return c.watch.Add(path)
}

func (c *Context) unwatchSession(s *session) {
	if c.watch == nil {
		return
	}
	for path := range s.docPaths {
		c.watch.Remove(path)
	}
}

// drainWatcher forwards accumulated file changes as didChange
// notifications on every session holding the document open.
func (c *Context) drainWatcher() {
	if c.watch == nil {
		return
	}
	for _, path := range c.watch.Drain() {
		uri := uriForPath(path)
		for _, s := range c.sessions {
			if !s.watch || s.status != StatusConnected {
				continue
			}
			if _, open := s.openDocs[uri]; open {
				if err := s.didChange(path); err != nil {
					s.log.Warn().Err(err).Str("path", path).Msg("watched re-sync failed")
				}
			}
		}
	}
}

// SymbolKindToString maps a numeric LSP symbol kind to its name.
func SymbolKindToString(kind protocol.SymbolKind) string {
	return kind.String()
}
