package httpx

import (
	"bytes"
	"strings"
	"testing"
)

// recordTransport captures what the canonical response forwards.
type recordTransport struct {
	status int
	header Header
	body   bytes.Buffer
	heads  int
}

func (t *recordTransport) WriteHead(status int, h Header) error {
	t.heads++
	t.status = status
	t.header = h
	return nil
}

func (t *recordTransport) WriteBody(p []byte) (int, error) {
	return t.body.Write(p)
}

func TestWriteHeadFlushesOnce(t *testing.T) {
	tr := &recordTransport{}
	res := NewResponse(tr)
	res.Header.Set("X-A", "1")

	w := res.WriteHead(201)
	if tr.heads != 1 || tr.status != 201 {
		t.Fatalf("expected one head flush with 201, got %d flushes status %d", tr.heads, tr.status)
	}
	if tr.header.Get("X-A") != "1" {
		t.Fatalf("expected snapshot to carry X-A")
	}

	// header mutation after flush is not propagated
	res.Header.Set("X-B", "2")
	if tr.header.Get("X-B") != "" {
		t.Fatalf("post-flush header mutation leaked to transport")
	}

	// second call is ignored: same writer, first status wins
	w2 := res.WriteHead(500)
	if w2 != w {
		t.Fatalf("expected the original body writer back")
	}
	if tr.heads != 1 || tr.status != 201 {
		t.Fatalf("expected duplicate WriteHead ignored, got %d flushes status %d", tr.heads, tr.status)
	}
	if res.Status() != 201 {
		t.Fatalf("expected Status 201, got %d", res.Status())
	}
}

func TestBodyWriterForwardsInOrder(t *testing.T) {
	tr := &recordTransport{}
	res := NewResponse(tr)
	w := res.WriteHead(200)
	if _, err := w.Write([]byte("ab")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := w.WriteString("cd"); err != nil {
		t.Fatalf("write string failed: %v", err)
	}
	if got := tr.body.String(); got != "abcd" {
		t.Fatalf("expected abcd, got %q", got)
	}
}

func TestSendJSON(t *testing.T) {
	tr := &recordTransport{}
	res := NewResponse(tr)
	if err := res.SendJSON(200, map[string]string{"msg": "hi"}); err != nil {
		t.Fatalf("SendJSON failed: %v", err)
	}
	if tr.status != 200 {
		t.Fatalf("expected status 200, got %d", tr.status)
	}
	if ct := tr.header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}
	if got := tr.body.String(); got != `{"msg":"hi"}` {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestSendTextAndHTML(t *testing.T) {
	tr := &recordTransport{}
	res := NewResponse(tr)
	if err := res.SendText(200, "plain"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if !strings.HasPrefix(tr.header.Get("content-type"), "text/plain") {
		t.Fatalf("unexpected content type %q", tr.header.Get("content-type"))
	}

	tr2 := &recordTransport{}
	res2 := NewResponse(tr2)
	if err := res2.SendHTML(200, "<b>x</b>"); err != nil {
		t.Fatalf("SendHTML failed: %v", err)
	}
	if !strings.HasPrefix(tr2.header.Get("content-type"), "text/html") {
		t.Fatalf("unexpected content type %q", tr2.header.Get("content-type"))
	}
}

func TestSetCookieAppends(t *testing.T) {
	tr := &recordTransport{}
	res := NewResponse(tr)
	res.SetCookie("a", "b", SetCookieOpts{HttpOnly: true})
	res.SetCookie("c", "d", SetCookieOpts{})
	res.WriteHead(200)

	got := tr.header.Values("Set-Cookie")
	if len(got) != 2 {
		t.Fatalf("expected two Set-Cookie entries, got %v", got)
	}
	if got[0] != "a=b; HttpOnly" || got[1] != "c=d" {
		t.Fatalf("unexpected cookies %v", got)
	}
}

func TestCloseIdempotent(t *testing.T) {
	res := NewResponse(&recordTransport{})
	select {
	case <-res.Closed():
		t.Fatalf("completion signal resolved before Close")
	default:
	}
	res.Close()
	res.Close() // second resolution must be a no-op
	select {
	case <-res.Closed():
	default:
		t.Fatalf("completion signal not resolved after Close")
	}
}
