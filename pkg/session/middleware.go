package session

import (
	"crosshttp/pkg/httpx"
	"crosshttp/pkg/logger"
)

// DefaultCookieName is used when Options.CookieName is empty.
const DefaultCookieName = "crosshttp_session"

type bagKey struct{}

// Options tunes the session middleware.
type Options struct {
	CookieName string
	// Secure marks the session cookie Secure; set it behind TLS.
	Secure bool
}

// FromRequest returns the session the middleware attached to req, or
// nil when the middleware did not run.
func FromRequest(req *httpx.Request) *Session {
	s, _ := req.Value(bagKey{}).(*Session)
	return s
}

// Middleware loads the caller's session from the request cookie (or
// creates a fresh one), stashes it in the request's extension bag for
// later middleware and the handler, and persists it after the chain
// returns. New sessions get a Set-Cookie on the way in, before any head
// flush can happen.
func Middleware(store *Store, opts Options) httpx.Middleware {
	name := opts.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return func(req *httpx.Request, res *httpx.Response, next httpx.Next) error {
		var sess *Session
		if id, ok := req.Cookie(name); ok {
			loaded, err := store.Get(id)
			if err != nil {
				logger.Warn("session_load_failed", "id", id, "error", err)
			}
			sess = loaded
		}
		if sess == nil {
			sess = store.New()
			res.SetCookie(name, sess.ID, httpx.SetCookieOpts{
				Path:     "/",
				MaxAge:   int(store.TTL().Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: "Lax",
			})
		}
		req.Set(bagKey{}, sess)

		err := next()

		if perr := store.Put(sess); perr != nil {
			logger.Warn("session_save_failed", "id", sess.ID, "error", perr)
		}
		return err
	}
}
