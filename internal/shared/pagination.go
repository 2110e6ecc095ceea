package shared

import (
	"net/url"
	"strconv"
)

// MaxPageSize bounds how many rows one listing request may return.
const MaxPageSize = 200

// Page is a listing window parsed from limit/offset query parameters.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ParsePage reads limit and offset from the query, falling back to
// defaultLimit and clamping the limit to MaxPageSize. Malformed or
// non-positive values keep the defaults.
func ParsePage(q url.Values, defaultLimit int) Page {
	p := Page{Limit: defaultLimit}
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			p.Limit = parsed
		}
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			p.Offset = parsed
		}
	}
	return p
}
