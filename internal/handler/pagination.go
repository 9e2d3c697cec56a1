package handler

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type pageParams struct {
	Limit  int
	Offset int
}

// parsePage reads limit/offset from the query string. Absent or invalid
// values fall back to the default page size; oversized limits are clamped
// rather than rejected.
func parsePage(r *http.Request) pageParams {
	q := r.URL.Query()

	limit, err := strconv.Atoi(q.Get("limit"))
	switch {
	case err != nil || limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}

	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return pageParams{Limit: limit, Offset: offset}
}
