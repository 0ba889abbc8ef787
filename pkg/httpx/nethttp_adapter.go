package httpx

import (
	"fmt"
	"net/http"
	"net/textproto"
	"strings"

	"crosshttp/pkg/logger"
)

// acceptableTarget reports whether a request target is one the runtime
// will dispatch: origin-form ("/path") or absolute-form with an http(s)
// scheme. Anything else is rejected with 405 before a canonical request
// is built.
func acceptableTarget(target string) bool {
	return strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://")
}

// NetHTTPAdapter adapts an App into a standard net/http handler. Each
// inbound request gets a fresh canonical pair; the completion signal
// resolves on client disconnect or, at the latest, when Handle returns
// and net/http finalizes the exchange. A handler error is logged and the
// connection aborted (net/http's uncaught-error path); no error-to-HTTP
// translation happens here.
func NetHTTPAdapter(app *App) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := r.RequestURI
		if target == "" {
			target = r.URL.RequestURI()
		}
		if r.Method == "" || !acceptableTarget(target) {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		req := NewRequest(r.Method, target, r.Body)
		for k, vs := range r.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.RemoteAddr = r.RemoteAddr
		req.Raw = r

		res := NewResponse(&netHTTPTransport{w: w})

		finished := make(chan struct{})
		go func() {
			select {
			case <-r.Context().Done():
				res.Close()
			case <-finished:
			}
		}()

		err := app.Handle(req, res)
		close(finished)
		res.Close()
		if err != nil {
			logger.Error("handler_failed", "method", req.Method, "path", req.Path, "error", err)
			panic(http.ErrAbortHandler)
		}
	})
}

// Serve binds a net/http listener on port and serves app until the
// server stops.
func Serve(app *App, port int) error {
	return http.ListenAndServe(fmt.Sprintf(":%d", port), NetHTTPAdapter(app))
}

type netHTTPTransport struct {
	w http.ResponseWriter
}

func (t *netHTTPTransport) WriteHead(status int, header Header) error {
	dst := t.w.Header()
	for k, vs := range header {
		dst[textproto.CanonicalMIMEHeaderKey(k)] = append([]string(nil), vs...)
	}
	t.w.WriteHeader(status)
	return nil
}

// WriteBody forwards bytes and flushes, so long-lived streaming handlers
// reach the client without waiting for the exchange to end.
func (t *netHTTPTransport) WriteBody(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if f, ok := t.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}
