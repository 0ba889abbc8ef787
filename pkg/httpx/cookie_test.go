package httpx

import (
	"net/http"
	"testing"
	"time"
)

func TestSerializeSetCookie(t *testing.T) {
	cases := []struct {
		name, value string
		opts        SetCookieOpts
		want        string
	}{
		{"a", "b", SetCookieOpts{}, "a=b"},
		{"a", "b", SetCookieOpts{Path: "/", HttpOnly: true}, "a=b; Path=/; HttpOnly"},
		{"a", "b", SetCookieOpts{Domain: "example.com", Secure: true, SameSite: "Strict"},
			"a=b; Domain=example.com; Secure; SameSite=Strict"},
		{"a", "b", SetCookieOpts{MaxAge: 60}, "a=b; Max-Age=60"},
		{"a", "b", SetCookieOpts{MaxAge: -1}, "a=b; Max-Age=0"},
	}
	for _, c := range cases {
		if got := serializeSetCookie(c.name, c.value, c.opts); got != c.want {
			t.Fatalf("expected %q, got %q", c.want, got)
		}
	}
}

func TestSerializeSetCookieExpires(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	got := serializeSetCookie("a", "b", SetCookieOpts{Expires: exp})
	want := "a=b; Expires=" + exp.Format(http.TimeFormat)
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
