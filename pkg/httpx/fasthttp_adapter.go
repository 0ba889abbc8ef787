package httpx

import (
	"bufio"
	"bytes"
	"fmt"
	"sync"

	"github.com/valyala/fasthttp"

	"crosshttp/pkg/logger"
)

// FastHTTPAdapter adapts an App into a fasthttp.RequestHandler. fasthttp
// hands us a fully buffered request, so the body stream is a reader over
// PostBody. The dispatch chain runs in its own goroutine: once the head
// is flushed the response body is emitted through a body stream writer,
// flushed per write, so a client disconnect surfaces as a flush error,
// fails later body writes and resolves the completion signal. A chain
// that completes within the write buffer before the head is observed is
// emitted directly, without chunking. A handler error is logged; when
// the head never went out the response becomes a bare 500 and the
// connection is closed (after streaming begins only the log remains).
func FastHTTPAdapter(app *App) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		method := string(ctx.Method())
		target := string(ctx.RequestURI())
		if method == "" || !acceptableTarget(target) {
			ctx.Response.Reset()
			ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
			return
		}

		req := NewRequest(method, target, bytes.NewReader(ctx.PostBody()))
		ctx.Request.Header.VisitAll(func(k, v []byte) {
			req.Header.Add(string(k), string(v))
		})
		req.RemoteAddr = ctx.RemoteAddr().String()
		req.Raw = ctx

		tr := &fastHTTPTransport{
			ctx:         ctx,
			headFlushed: make(chan struct{}),
			writes:      make(chan []byte, 64),
		}
		res := NewResponse(tr)

		finished := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done(): // server shutdown
				res.Close()
			case <-finished:
			}
		}()

		handleDone := make(chan error, 1)
		go func() {
			err := app.Handle(req, res)
			close(finished)
			close(tr.writes)
			handleDone <- err
		}()

		select {
		case err := <-handleDone:
			// the whole chain already returned; whatever it wrote sits
			// in the buffer, so emit head and body directly
			if res.HeadSent() {
				tr.applyHead()
				for chunk := range tr.writes {
					_, _ = ctx.Write(chunk)
				}
			}
			res.Close()
			if err != nil {
				logger.Error("handler_failed", "method", req.Method, "path", req.Path, "error", err)
				if !res.HeadSent() {
					ctx.Response.Reset()
					ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				}
				ctx.SetConnectionClose()
			}
		case <-tr.headFlushed:
			// chain still running: stream the body so disconnects surface
			// as flush errors while the handler keeps writing
			tr.applyHead()
			ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
				for chunk := range tr.writes {
					if _, err := w.Write(chunk); err != nil {
						tr.fail(err)
						break
					}
					if err := w.Flush(); err != nil {
						tr.fail(err)
						break
					}
				}
				// resolve the signal, then drain until the chain returns
				// so no in-flight write can block it
				res.Close()
				for range tr.writes {
				}
				if err := <-handleDone; err != nil {
					logger.Error("handler_failed", "method", req.Method, "path", req.Path, "error", err)
				}
			})
		}
	}
}

// ServeFastHTTP binds a fasthttp listener on port and serves app until
// the server stops.
func ServeFastHTTP(app *App, port int) error {
	return fasthttp.ListenAndServe(fmt.Sprintf(":%d", port), FastHTTPAdapter(app))
}

type fastHTTPTransport struct {
	ctx *fasthttp.RequestCtx

	mu      sync.Mutex
	failErr error

	status      int
	header      Header
	headFlushed chan struct{}
	writes      chan []byte
}

func (t *fastHTTPTransport) WriteHead(status int, header Header) error {
	t.status = status
	t.header = header
	close(t.headFlushed)
	return nil
}

// WriteBody hands the chunk to the adapter goroutine. Once a downstream
// write failed, later writes report that error instead of queueing.
func (t *fastHTTPTransport) WriteBody(p []byte) (int, error) {
	t.mu.Lock()
	err := t.failErr
	t.mu.Unlock()
	if err != nil {
		return 0, err
	}
	t.writes <- append([]byte(nil), p...)
	return len(p), nil
}

func (t *fastHTTPTransport) fail(err error) {
	t.mu.Lock()
	t.failErr = err
	t.mu.Unlock()
}

func (t *fastHTTPTransport) applyHead() {
	t.ctx.SetStatusCode(t.status)
	for k, vs := range t.header {
		// fasthttp treats Content-Type as a singleton; Add would fight
		// its default value.
		if k == "content-type" {
			t.ctx.Response.Header.SetContentType(vs[len(vs)-1])
			continue
		}
		for _, v := range vs {
			t.ctx.Response.Header.Add(k, v)
		}
	}
}
