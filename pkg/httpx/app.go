// Package httpx is a minimal transport-agnostic HTTP dispatch runtime:
// one canonical request/response pair, an exact-match route table with a
// next()-chained middleware list, and adapters that bind the pair to
// net/http and fasthttp hosts.
package httpx

import "net/http"

// MethodAll is the wildcard route method: a route registered under it
// matches its pathname regardless of HTTP method, when no exact method
// match exists.
const MethodAll = "ALL"

// Handler processes one dispatched request. Errors are not caught by the
// dispatch layer; they propagate to the transport adapter that invoked
// Handle, which decides the user-visible behavior.
type Handler func(req *Request, res *Response) error

// Next continues the middleware chain: it invokes the following
// middleware, or the resolved handler at the end of the chain.
type Next func() error

// Middleware runs around the rest of the chain. It may run code before
// and after calling next, and it may skip next entirely to terminate the
// chain early (in which case the handler never runs).
type Middleware func(req *Request, res *Response, next Next) error

// App owns the route table and middleware list and dispatches inbound
// request/response pairs. Register all routes and middleware before
// serving begins; the tables are read-only during dispatch and
// concurrent registration is not supported.
type App struct {
	routes     map[string]Handler
	middleware []Middleware
}

// New returns an empty App.
func New() *App {
	return &App{routes: make(map[string]Handler)}
}

// route inserts keyed by method + pathname. Re-registering the same key
// replaces the previous handler (last write wins).
func (a *App) route(method, path string, h Handler) *App {
	a.routes[method+path] = h
	return a
}

func (a *App) Get(path string, h Handler) *App     { return a.route(http.MethodGet, path, h) }
func (a *App) Post(path string, h Handler) *App    { return a.route(http.MethodPost, path, h) }
func (a *App) Put(path string, h Handler) *App     { return a.route(http.MethodPut, path, h) }
func (a *App) Delete(path string, h Handler) *App  { return a.route(http.MethodDelete, path, h) }
func (a *App) Patch(path string, h Handler) *App   { return a.route(http.MethodPatch, path, h) }
func (a *App) Head(path string, h Handler) *App    { return a.route(http.MethodHead, path, h) }
func (a *App) Options(path string, h Handler) *App { return a.route(http.MethodOptions, path, h) }
func (a *App) Trace(path string, h Handler) *App   { return a.route(http.MethodTrace, path, h) }

// All registers a wildcard-method fallback for path.
func (a *App) All(path string, h Handler) *App { return a.route(MethodAll, path, h) }

// Use appends m to the middleware chain. The chain is append-only and
// runs in registration order.
func (a *App) Use(m Middleware) *App {
	a.middleware = append(a.middleware, m)
	return a
}

// Handle is the sole dispatch entry point, invoked once per inbound
// request. It resolves the handler by exact (method, pathname) match
// with an ALL fallback, then threads execution through the middleware
// chain. An unmatched route is a normal terminal outcome: a 404 head
// with no body, no error. Control returns only after the innermost call
// and every middleware's post-next code have completed.
func (a *App) Handle(req *Request, res *Response) error {
	h, ok := a.routes[req.Method+req.Path]
	if !ok {
		h, ok = a.routes[MethodAll+req.Path]
	}
	if !ok {
		res.WriteHead(http.StatusNotFound)
		return nil
	}
	if len(a.middleware) == 0 {
		return h(req, res)
	}
	var call func(i int) error
	call = func(i int) error {
		if i == len(a.middleware) {
			return h(req, res)
		}
		return a.middleware[i](req, res, func() error { return call(i + 1) })
	}
	return call(0)
}
