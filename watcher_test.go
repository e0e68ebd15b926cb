package lstalk

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchedDocumentResyncs(t *testing.T) {
	ctx := New()
	defer ctx.Shutdown()
	id, ft := connectFake(t, ctx, ConnectParams{WatchDocuments: true})

	doc := writeTempDoc(t, "main.go", "v1\n")
	require.NoError(t, ctx.TextDocumentDidOpen(id, doc))

	require.NoError(t, os.WriteFile(doc, []byte("v2\n"), 0644))

	require.Eventually(t, func() bool {
		ctx.ProcessResponses()
		msgs := ft.sentMessages(t)
		last := msgs[len(msgs)-1]
		return last.Get("method").Str() == "textDocument/didChange"
	}, 2*time.Second, 10*time.Millisecond)

	msgs := ft.sentMessages(t)
	change := msgs[len(msgs)-1]
	assert.Equal(t, "v2\n", change.Get("params").Get("contentChanges").At(0).Get("text").Str())
	assert.Equal(t, int64(2), change.Get("params").Get("textDocument").Get("version").Int())
}

func TestUnwatchedDocumentDoesNotResync(t *testing.T) {
	ctx := New()
	defer ctx.Shutdown()
	id, ft := connectFake(t, ctx, ConnectParams{})

	doc := writeTempDoc(t, "main.go", "v1\n")
	require.NoError(t, ctx.TextDocumentDidOpen(id, doc))
	before := len(ft.sentMessages(t))

	require.NoError(t, os.WriteFile(doc, []byte("v2\n"), 0644))
	time.Sleep(50 * time.Millisecond)
	ctx.ProcessResponses()

	assert.Equal(t, before, len(ft.sentMessages(t)))
}
