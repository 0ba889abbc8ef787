package httpx

import (
	"encoding/json"
	"io"
	"net/url"
	"strings"
)

// Request is the transport-independent view of an inbound HTTP request.
// Adapters build one Request per inbound call; instances are never reused.
// Method, Path and Query are computed once at construction and are not
// meant to be mutated afterwards.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Query    url.Values
	Header   Header

	// RemoteAddr is the peer address as reported by the transport.
	RemoteAddr string

	// Raw holds the underlying transport-specific request object
	// (e.g. *http.Request or *fasthttp.RequestCtx) for escape hatches.
	Raw any

	body   io.Reader
	values map[any]any
}

// NewRequest builds a canonical request from the (method, url, body)
// triple an adapter extracts from its native request. The URL is
// decomposed once: with an http:// or https:// prefix the pathname is
// everything after the host, otherwise the whole string before "?" is
// the pathname; whatever follows "?" is the query string.
func NewRequest(method, rawurl string, body io.Reader) *Request {
	path, query := splitTarget(rawurl)
	q, _ := url.ParseQuery(query)
	if body == nil {
		body = strings.NewReader("")
	}
	return &Request{
		Method:   method,
		Path:     path,
		RawQuery: query,
		Query:    q,
		Header:   make(Header),
		body:     body,
	}
}

func splitTarget(rawurl string) (path, query string) {
	rest := rawurl
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(rawurl, scheme) {
			rest = rawurl[len(scheme):]
			slash := strings.IndexByte(rest, '/')
			query := strings.IndexByte(rest, '?')
			switch {
			case slash >= 0 && (query < 0 || slash < query):
				rest = rest[slash:]
			case query >= 0:
				// query starts right after the authority
				rest = "/" + rest[query:]
			default:
				rest = "/"
			}
			break
		}
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		return rest[:i], rest[i+1:]
	}
	return rest, ""
}

// Bytes drains the body stream and returns its content. The stream is
// single-pass: the first call that drains it leaves later calls (Bytes,
// Text or JSON) observing empty content.
func (r *Request) Bytes() ([]byte, error) {
	return io.ReadAll(r.body)
}

// Text drains the body stream and returns it as a string.
func (r *Request) Text() (string, error) {
	b, err := r.Bytes()
	return string(b), err
}

// JSON drains the body stream and decodes it into v. A malformed body
// yields a *ParseError; converting that into an HTTP response is the
// caller's job.
func (r *Request) JSON(v any) error {
	b, err := r.Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}

// Cookie returns the named value from the Cookie header. The header is
// re-parsed on every call; there is no cache.
func (r *Request) Cookie(name string) (string, bool) {
	return parseCookieHeader(r.Header.Get("cookie"), name)
}

// Set stores a per-request value under key, for middleware to hand
// computed state (a parsed session, an auth identity) to later chain
// entries and the final handler. Keys should be unexported package-scoped
// types so readers and writers agree on ownership.
func (r *Request) Set(key, val any) {
	if r.values == nil {
		r.values = make(map[any]any)
	}
	r.values[key] = val
}

// Value returns the value stored under key, or nil.
func (r *Request) Value(key any) any {
	return r.values[key]
}
