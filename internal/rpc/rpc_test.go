package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdavisprog/lstalk/internal/jsonval"
)

func TestNewRequest(t *testing.T) {
	params := jsonval.NewObject()
	params.Set("uri", jsonval.NewString("file:///main.go"))

	encoded := string(jsonval.Encode(NewRequest(7, "textDocument/hover", params)))
	assert.Equal(t, `{"jsonrpc":"2.0","id":7,"method":"textDocument/hover","params":{"uri":"file:///main.go"}}`, encoded)
}

func TestNewRequest_NullParamsOmitted(t *testing.T) {
	encoded := string(jsonval.Encode(NewRequest(1, "shutdown", jsonval.Null())))
	assert.Equal(t, `{"jsonrpc":"2.0","id":1,"method":"shutdown"}`, encoded)
}

func TestNewNotification(t *testing.T) {
	encoded := string(jsonval.Encode(NewNotification("exit", jsonval.Null())))
	assert.Equal(t, `{"jsonrpc":"2.0","method":"exit"}`, encoded)
}

func TestParse_ResponseResult(t *testing.T) {
	msg, err := Parse([]byte(`{"jsonrpc":"2.0","id":3,"result":{"ok":true}}`))
	require.NoError(t, err)

	assert.Equal(t, KindResponse, msg.Kind)
	assert.Equal(t, int64(3), msg.ID)
	assert.True(t, msg.Result.Get("ok").Bool())
	assert.Nil(t, msg.Err)
}

func TestParse_ResponseError(t *testing.T) {
	msg, err := Parse([]byte(`{"jsonrpc":"2.0","id":4,"error":{"code":-32601,"message":"method not found"}}`))
	require.NoError(t, err)

	assert.Equal(t, KindResponse, msg.Kind)
	require.NotNil(t, msg.Err)
	assert.Equal(t, int64(-32601), msg.Err.Code)
	assert.Equal(t, "method not found", msg.Err.Message)
	assert.Contains(t, msg.Err.Error(), "method not found")
}

func TestParse_Notification(t *testing.T) {
	msg, err := Parse([]byte(`{"jsonrpc":"2.0","method":"$/logTrace","params":{"message":"hi"}}`))
	require.NoError(t, err)

	assert.Equal(t, KindNotification, msg.Kind)
	assert.Equal(t, "$/logTrace", msg.Method)
	assert.Equal(t, "hi", msg.Params.Get("message").Str())
}

func TestParse_ServerRequest(t *testing.T) {
	msg, err := Parse([]byte(`{"jsonrpc":"2.0","id":1,"method":"workspace/configuration","params":{}}`))
	require.NoError(t, err)

	assert.Equal(t, KindServerRequest, msg.Kind)
	assert.Equal(t, "workspace/configuration", msg.Method)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"jsonrpc":`},
		{"not an object", `[1,2]`},
		{"no id no method", `{"jsonrpc":"2.0"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}
