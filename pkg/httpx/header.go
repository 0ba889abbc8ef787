package httpx

import "strings"

// Header is a multimap from header field names to ordered values.
// Field names are case-folded to lowercase before storage and lookup, so
// Get("Content-Type") and Get("content-type") address the same entry.
// Values keep their original casing and insertion order. Iterate entries
// by ranging over the map directly.
type Header map[string][]string

// Get returns the first value stored for field, or "" when absent.
func (h Header) Get(field string) string {
	vs := h[strings.ToLower(field)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Values returns all values stored for field in insertion order. The
// returned slice is the internal one; callers must not mutate it.
func (h Header) Values(field string) []string {
	return h[strings.ToLower(field)]
}

// Set replaces the whole value sequence for field with a single value.
func (h Header) Set(field, value string) {
	h[strings.ToLower(field)] = []string{value}
}

// Add appends value to the sequence for field, creating the entry if
// absent. Use Add for fields that legitimately repeat (Set-Cookie).
func (h Header) Add(field, value string) {
	k := strings.ToLower(field)
	h[k] = append(h[k], value)
}

// Del removes field and all its values.
func (h Header) Del(field string) {
	delete(h, strings.ToLower(field))
}

// Clone returns a deep copy of h.
func (h Header) Clone() Header {
	out := make(Header, len(h))
	for k, vs := range h {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
