package lstalk

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mdavisprog/lstalk/internal/event"
	"github.com/mdavisprog/lstalk/internal/jsonval"
	"github.com/mdavisprog/lstalk/pkg/protocol"
)

// uriForPath converts a filesystem path to a file://-scheme URI.
func uriForPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs)
}

// initialize sends the handshake request and moves the session to
// CONNECTING. The client advertises only capabilities it can consume.
func (s *session) initialize(clientName, clientVersion, locale, rootURI string, caps protocol.ClientCapabilities) error {
	params := jsonval.NewObject()
	params.Set("processId", jsonval.NewInt(int64(os.Getpid())))

	clientInfo := jsonval.NewObject()
	clientInfo.Set("name", jsonval.NewString(clientName))
	if clientVersion != "" {
		clientInfo.Set("version", jsonval.NewString(clientVersion))
	}
	params.Set("clientInfo", clientInfo)

	if locale != "" {
		params.Set("locale", jsonval.NewString(locale))
	}
	if rootURI != "" {
		params.Set("rootUri", jsonval.NewString(rootURI))
	} else {
		params.Set("rootUri", jsonval.Null())
	}
	params.Set("trace", jsonval.NewString(string(s.trace)))
	params.Set("capabilities", caps.ToValue())

	if _, err := s.sendRequest("initialize", params, ""); err != nil {
		return err
	}
	s.status = StatusConnecting
	s.bus.Publish(event.Event{Type: event.ServerConnecting, ServerID: int(s.id)})
	return nil
}

// didOpen reads the document from disk and announces it to the server with
// version 1. Opening an already-open document is a no-op.
func (s *session) didOpen(path string) error {
	uri := uriForPath(path)
	if _, open := s.openDocs[uri]; open {
		return nil
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	doc := jsonval.NewObject()
	doc.Set("uri", jsonval.NewString(uri))
	doc.Set("languageId", jsonval.NewString(protocol.DetectLanguageID(path)))
	doc.Set("version", jsonval.NewInt(1))
	doc.Set("text", jsonval.NewString(string(text)))

	params := jsonval.NewObject()
	params.Set("textDocument", doc)

	if err := s.sendNotification("textDocument/didOpen", params); err != nil {
		return err
	}
	s.openDocs[uri] = 1
	s.docPaths[path] = uri
	s.bus.Publish(event.Event{Type: event.DocumentOpened, ServerID: int(s.id), URI: uri})
	return nil
}

// didChange re-reads the document and syncs its full text with a bumped
// version.
func (s *session) didChange(path string) error {
	uri := uriForPath(path)
	version, open := s.openDocs[uri]
	if !open {
		return ErrDocumentNotOpen
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	version++

	doc := jsonval.NewObject()
	doc.Set("uri", jsonval.NewString(uri))
	doc.Set("version", jsonval.NewInt(int64(version)))

	change := jsonval.NewObject()
	change.Set("text", jsonval.NewString(string(text)))
	changes := jsonval.NewArray()
	changes.Push(change)

	params := jsonval.NewObject()
	params.Set("textDocument", doc)
	params.Set("contentChanges", changes)

	if err := s.sendNotification("textDocument/didChange", params); err != nil {
		return err
	}
	s.openDocs[uri] = version
	s.bus.Publish(event.Event{Type: event.DocumentEdited, ServerID: int(s.id), URI: uri})
	return nil
}

// didClose retracts the document and forgets its cached state.
func (s *session) didClose(path string) error {
	uri := uriForPath(path)
	if _, open := s.openDocs[uri]; !open {
		return ErrDocumentNotOpen
	}

	params := jsonval.NewObject()
	doc := jsonval.NewObject()
	doc.Set("uri", jsonval.NewString(uri))
	params.Set("textDocument", doc)

	if err := s.sendNotification("textDocument/didClose", params); err != nil {
		return err
	}
	delete(s.openDocs, uri)
	delete(s.docPaths, path)
	delete(s.diagnostics, uri)
	s.bus.Publish(event.Event{Type: event.DocumentClosed, ServerID: int(s.id), URI: uri})
	return nil
}

// documentSymbol requests the symbol outline of a document.
func (s *session) documentSymbol(path string) error {
	uri := uriForPath(path)
	params := jsonval.NewObject()
	doc := jsonval.NewObject()
	doc.Set("uri", jsonval.NewString(uri))
	params.Set("textDocument", doc)

	_, err := s.sendRequest("textDocument/documentSymbol", params, uri)
	return err
}

// hover requests hover information at a position.
func (s *session) hover(path string, line, character int) error {
	uri := uriForPath(path)
	params := jsonval.NewObject()
	doc := jsonval.NewObject()
	doc.Set("uri", jsonval.NewString(uri))
	params.Set("textDocument", doc)
	params.Set("position", protocol.PositionValue(protocol.Position{Line: line, Character: character}))

	_, err := s.sendRequest("textDocument/hover", params, uri)
	return err
}

// semanticTokens requests the full semantic-token stream of a document.
func (s *session) semanticTokens(path string) error {
	uri := uriForPath(path)
	params := jsonval.NewObject()
	doc := jsonval.NewObject()
	doc.Set("uri", jsonval.NewString(uri))
	params.Set("textDocument", doc)

	_, err := s.sendRequest("textDocument/semanticTokens/full", params, uri)
	return err
}

// setTrace toggles the server-side trace verbosity.
func (s *session) setTrace(trace protocol.Trace) error {
	params := jsonval.NewObject()
	params.Set("value", jsonval.NewString(string(trace)))

	if err := s.sendNotification("$/setTrace", params); err != nil {
		return err
	}
	s.trace = trace
	return nil
}
