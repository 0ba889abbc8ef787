package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// SetCookieOpts carries the standard Set-Cookie attributes. Zero values
// are omitted from the serialized header.
type SetCookieOpts struct {
	Path    string
	Domain  string
	Expires time.Time
	// MaxAge > 0 emits Max-Age=<seconds>; MaxAge < 0 emits Max-Age=0
	// (delete now); 0 omits the attribute.
	MaxAge   int
	Secure   bool
	HttpOnly bool
	SameSite string // "Lax", "Strict" or "None"
}

func serializeSetCookie(name, value string, opts SetCookieOpts) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(value)
	if opts.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(opts.Path)
	}
	if opts.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(opts.Domain)
	}
	if !opts.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(opts.Expires.UTC().Format(http.TimeFormat))
	}
	if opts.MaxAge > 0 {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(opts.MaxAge))
	} else if opts.MaxAge < 0 {
		b.WriteString("; Max-Age=0")
	}
	if opts.Secure {
		b.WriteString("; Secure")
	}
	if opts.HttpOnly {
		b.WriteString("; HttpOnly")
	}
	if opts.SameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(opts.SameSite)
	}
	return b.String()
}

// parseCookieHeader scans a Cookie request header for the named cookie.
// Surrounding double quotes around a value are stripped.
func parseCookieHeader(header, name string) (string, bool) {
	if header == "" {
		return "", false
	}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, found := strings.Cut(part, "=")
		if !found || k != name {
			continue
		}
		if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
			v = v[1 : len(v)-1]
		}
		return v, true
	}
	return "", false
}
