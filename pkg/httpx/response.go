package httpx

import (
	"encoding/json"
	"sync"

	"crosshttp/pkg/logger"
)

// Transport is the contract a host runtime's adapter implements so the
// canonical response can reach the wire. WriteHead must emit the status
// line and all headers exactly once; WriteBody appends raw bytes to the
// response body stream. Buffering and backpressure, if any, live behind
// this interface.
type Transport interface {
	WriteHead(status int, header Header) error
	WriteBody(p []byte) (int, error)
}

// Response is the transport-independent view of an outbound response.
// Its lifecycle is one-directional: headers are mutable until WriteHead
// flushes them, body writes follow, and the completion signal resolves
// when the transport tears the connection down.
type Response struct {
	Header Header

	tr       Transport
	status   int
	headSent bool
	writer   *BodyWriter

	closeOnce sync.Once
	closed    chan struct{}
}

// NewResponse wires a fresh response to tr. Adapters call this once per
// inbound request.
func NewResponse(tr Transport) *Response {
	return &Response{
		Header: make(Header),
		tr:     tr,
		closed: make(chan struct{}),
	}
}

// WriteHead flushes the status code and the current header snapshot to
// the transport and returns the body writer. The head goes out at most
// once: a second call is ignored (the first status wins) and returns the
// writer from the first call. Header mutation after WriteHead is not
// propagated.
func (r *Response) WriteHead(status int) *BodyWriter {
	if r.headSent {
		logger.Debug("duplicate_write_head", "status", status, "sent_status", r.status)
		return r.writer
	}
	r.headSent = true
	r.status = status
	r.writer = &BodyWriter{tr: r.tr}
	if err := r.tr.WriteHead(status, r.Header.Clone()); err != nil {
		r.writer.err = err
	}
	return r.writer
}

// SendText sets a text/plain content type and sends the head plus body
// in one shot. Call at most once per response.
func (r *Response) SendText(status int, body string) error {
	r.Header.Set("content-type", "text/plain; charset=utf-8")
	_, err := r.WriteHead(status).WriteString(body)
	return err
}

// SendHTML is SendText with a text/html content type.
func (r *Response) SendHTML(status int, body string) error {
	r.Header.Set("content-type", "text/html; charset=utf-8")
	_, err := r.WriteHead(status).WriteString(body)
	return err
}

// SendJSON encodes v, sets an application/json content type and sends
// the head plus the encoded body in one shot.
func (r *Response) SendJSON(status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.Header.Set("content-type", "application/json")
	_, werr := r.WriteHead(status).Write(b)
	return werr
}

// SetCookie appends a Set-Cookie header entry. It uses Add, not Set, so
// multiple cookies on one response coexist.
func (r *Response) SetCookie(name, value string, opts SetCookieOpts) {
	r.Header.Add("set-cookie", serializeSetCookie(name, value, opts))
}

// Closed returns the completion signal: a channel closed exactly once
// when the owning transport considers the connection torn down. Handlers
// running long-lived write loops select on it to stop voluntarily.
func (r *Response) Closed() <-chan struct{} {
	return r.closed
}

// Close resolves the completion signal. Safe to call any number of
// times; only the first has effect.
func (r *Response) Close() {
	r.closeOnce.Do(func() { close(r.closed) })
}

// Status returns the flushed status code, or 0 before WriteHead. Around
// middleware reads it after next() returns.
func (r *Response) Status() int {
	return r.status
}

// HeadSent reports whether the head has been flushed.
func (r *Response) HeadSent() bool {
	return r.headSent
}

// BodyWriter forwards body bytes to the transport in the order issued,
// with no internal buffering. It implements io.Writer and
// io.StringWriter.
type BodyWriter struct {
	tr  Transport
	err error
}

// Write forwards p to the transport. A transport error sticks: once a
// write fails, every later write returns the same error.
func (w *BodyWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.tr.WriteBody(p)
	if err != nil {
		w.err = err
	}
	return n, err
}

// WriteString UTF-8 encodes s and writes it.
func (w *BodyWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}
