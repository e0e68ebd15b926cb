// Package rpc builds and classifies JSON-RPC 2.0 envelopes as used by the
// Language Server Protocol.
package rpc

import (
	"errors"
	"fmt"

	"github.com/mdavisprog/lstalk/internal/jsonval"
)

// Version is the protocol version stamped on every outbound message.
const Version = "2.0"

// ErrNotObject reports a body whose top-level value is not a JSON object.
var ErrNotObject = errors.New("message body is not an object")

// Error is a JSON-RPC error payload.
type Error struct {
	Code    int64
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Kind classifies an inbound message by shape.
type Kind uint8

const (
	// KindResponse carries an id with a result or error.
	KindResponse Kind = iota
	// KindNotification carries a method and no id.
	KindNotification
	// KindServerRequest carries both a method and an id; servers use these
	// for round trips like workspace/configuration.
	KindServerRequest
)

// Message is a classified inbound message.
type Message struct {
	Kind   Kind
	ID     int64
	Method string
	Params jsonval.Value
	Result jsonval.Value
	Err    *Error
}

// NewRequest builds a request envelope. A null params value is omitted.
func NewRequest(id int64, method string, params jsonval.Value) jsonval.Value {
	msg := jsonval.NewObject()
	msg.Set("jsonrpc", jsonval.NewString(Version))
	msg.Set("id", jsonval.NewInt(id))
	msg.Set("method", jsonval.NewString(method))
	if !params.IsNull() {
		msg.Set("params", params)
	}
	return msg
}

// NewNotification builds a notification envelope without an id.
func NewNotification(method string, params jsonval.Value) jsonval.Value {
	msg := jsonval.NewObject()
	msg.Set("jsonrpc", jsonval.NewString(Version))
	msg.Set("method", jsonval.NewString(method))
	if !params.IsNull() {
		msg.Set("params", params)
	}
	return msg
}

// Parse decodes a message body and classifies its shape.
func Parse(body []byte) (Message, error) {
	v, err := jsonval.Decode(body)
	if err != nil {
		return Message{}, err
	}
	if v.Kind() != jsonval.KindObject {
		return Message{}, ErrNotObject
	}

	msg := Message{
		Method: v.Get("method").Str(),
		Params: v.Get("params"),
	}

	hasID := v.Has("id")
	if hasID {
		msg.ID = v.Get("id").Int()
	}

	switch {
	case hasID && msg.Method != "":
		msg.Kind = KindServerRequest
	case hasID:
		msg.Kind = KindResponse
		msg.Result = v.Get("result")
		if errVal := v.Get("error"); !errVal.IsNull() {
			msg.Err = &Error{
				Code:    errVal.Get("code").Int(),
				Message: errVal.Get("message").Str(),
			}
		}
	case msg.Method != "":
		msg.Kind = KindNotification
	default:
		return Message{}, fmt.Errorf("message with neither id nor method")
	}
	return msg, nil
}
