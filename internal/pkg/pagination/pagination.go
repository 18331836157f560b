// Package pagination parses limit/cursor and page/page_size query parameters.
package pagination

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

var ErrInvalidQuery = errors.New("invalid pagination query")

// Cursor holds raw cursor query values. Limit 0 means the caller's default.
type Cursor struct {
	Limit  int
	Cursor *int64
}

// ParseCursor reads ?limit=&cursor=. Non-numeric values are rejected;
// range checks are left to the service that owns the defaults.
func ParseCursor(r *http.Request) (Cursor, error) {
	var c Cursor
	q := r.URL.Query()

	if l := strings.TrimSpace(q.Get("limit")); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			return c, ErrInvalidQuery
		}
		c.Limit = n
	}

	if v := strings.TrimSpace(q.Get("cursor")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, ErrInvalidQuery
		}
		c.Cursor = &n
	}
	return c, nil
}

// Offset holds page-number pagination after clamping.
type Offset struct {
	Page     int
	PageSize int
}

// ParseOffset reads ?page=&page_size=, clamping page to >= 1 and
// page_size to [1, maxSize] with defaultSize when absent or unparsable.
func ParseOffset(r *http.Request, defaultSize, maxSize int) Offset {
	q := r.URL.Query()
	o := Offset{Page: 1, PageSize: defaultSize}

	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 1 {
		o.Page = n
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil {
		o.PageSize = n
	}
	if o.PageSize < 1 {
		o.PageSize = 1
	}
	if o.PageSize > maxSize {
		o.PageSize = maxSize
	}
	return o
}

// SQLOffset is the row offset for the page.
func (o Offset) SQLOffset() int {
	return (o.Page - 1) * o.PageSize
}

// TotalPages is at least 1 so an empty result still has a first page.
func (o Offset) TotalPages(totalItems int) int {
	pages := (totalItems + o.PageSize - 1) / o.PageSize
	if pages < 1 {
		return 1
	}
	return pages
}
