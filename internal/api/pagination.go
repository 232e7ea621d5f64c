package api

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 6
	maxPageSize     = 10
)

// parsePagination reads the page and limit query parameters, applying the
// default and maximum page sizes.
func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = defaultPageSize

	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}

	return page, limit
}

// paginatedResponse is the list envelope: total count, absolute links to
// the adjacent pages and the page of results.
type paginatedResponse struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// paginate builds the envelope for the given page. results must never be
// nil so the results field encodes as [] rather than null.
func paginate(r *http.Request, count, page, limit int, results any) paginatedResponse {
	resp := paginatedResponse{Count: count, Results: results}

	if page*limit < count {
		next := pageURL(r, page+1)
		resp.Next = &next
	}
	if page > 1 {
		prev := pageURL(r, page-1)
		resp.Previous = &prev
	}

	return resp
}

func pageURL(r *http.Request, page int) string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + u.String()
}
