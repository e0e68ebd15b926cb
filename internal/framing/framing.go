// Package framing implements the Content-Length message framing used by
// LSP stdio transports:
//
//	Content-Length: <N>\r\n
//	\r\n
//	<N bytes of JSON body>
package framing

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/mdavisprog/lstalk/internal/buffer"
	"github.com/mdavisprog/lstalk/internal/mem"
)

var (
	// ErrMalformedHeader reports a header block without a parseable
	// Content-Length.
	ErrMalformedHeader = errors.New("malformed frame header")
	// ErrEmptyBody reports a frame advertising a zero-length body.
	ErrEmptyBody = errors.New("frame with empty body")
)

var headerSeparator = []byte("\r\n\r\n")

// AppendFrame appends a framed message for body to dst.
func AppendFrame(dst []byte, body []byte) []byte {
	dst = append(dst, "Content-Length: "...)
	dst = strconv.AppendInt(dst, int64(len(body)), 10)
	dst = append(dst, headerSeparator...)
	return append(dst, body...)
}

type decodeState uint8

const (
	stateHeaders decodeState = iota
	stateBody
)

// Decoder deframes a rolling byte stream. Bytes arrive in arbitrary chunks
// via Feed; Next emits each complete body in order.
type Decoder struct {
	buf   buffer.Buffer[byte]
	pool  mem.Pool
	state decodeState
	need  int
}

// NewDecoder creates a decoder drawing body buffers from pool.
func NewDecoder(pool mem.Pool) *Decoder {
	if pool == nil {
		pool = mem.Heap{}
	}
	return &Decoder{pool: pool}
}

// Feed appends raw bytes read from the transport.
func (d *Decoder) Feed(p []byte) {
	d.buf.Append(p...)
}

// Buffered returns the number of pending undecoded bytes.
func (d *Decoder) Buffered() int { return d.buf.Len() }

// Next returns the next complete message body, or nil when more bytes are
// needed. The returned slice comes from the decoder's pool; callers release
// it with Release once decoded. A non-nil error means the stream is corrupt
// and the transport must be torn down.
func (d *Decoder) Next() ([]byte, error) {
	if d.state == stateHeaders {
		data := d.buf.Items()
		end := bytes.Index(data, headerSeparator)
		if end < 0 {
			return nil, nil
		}
		length, err := parseHeaders(data[:end])
		if err != nil {
			return nil, err
		}
		d.buf.Discard(end + len(headerSeparator))
		if length == 0 {
			return nil, ErrEmptyBody
		}
		d.need = length
		d.state = stateBody
	}

	if d.buf.Len() < d.need {
		return nil, nil
	}

	body := append(d.pool.Get(d.need), d.buf.Items()[:d.need]...)
	d.buf.Discard(d.need)
	d.need = 0
	d.state = stateHeaders
	return body, nil
}

// Release returns a body obtained from Next to the decoder's pool.
func (d *Decoder) Release(body []byte) {
	d.pool.Put(body)
}

// parseHeaders scans a \r\n-separated header block for Content-Length. The
// field name matches case-insensitively; other headers are ignored.
func parseHeaders(block []byte) (int, error) {
	for _, line := range bytes.Split(block, []byte("\r\n")) {
		name, value, found := bytes.Cut(line, []byte(":"))
		if !found {
			continue
		}
		if !bytes.EqualFold(bytes.TrimSpace(name), []byte("Content-Length")) {
			continue
		}
		length, err := strconv.ParseUint(string(bytes.TrimSpace(value)), 10, 31)
		if err != nil {
			return 0, fmt.Errorf("%w: bad Content-Length %q", ErrMalformedHeader, value)
		}
		return int(length), nil
	}
	return 0, fmt.Errorf("%w: no Content-Length", ErrMalformedHeader)
}
