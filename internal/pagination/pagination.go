// Package pagination turns an ordered result set into a page of items with
// navigation links.
package pagination

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
	// MaxPage keeps (page-1)*per_page within an int
	MaxPage = math.MaxInt / MaxPerPage
)

// Params is a normalized page request. Page is 1-based.
type Params struct {
	Page    int
	PerPage int
}

// ParseParams reads page and per_page from a query string.
// page falls back to 1 when absent or invalid and is capped at MaxPage; per_page is clamped to [1, MaxPerPage].
func ParseParams(q url.Values) Params {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil {
		perPage = DefaultPerPage
	}
	return Normalize(page, perPage)
}

// Normalize clamps page and perPage into their valid ranges
func Normalize(page, perPage int) Params {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Params{Page: page, PerPage: perPage}
}

// Offset returns the number of items preceding the page
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Limit returns the page size
func (p Params) Limit() int {
	return p.PerPage
}

// Links holds absolute URLs of the current and adjacent pages
type Links struct {
	Self string `json:"self"`
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// Page is one slice of a larger ordered collection
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
	TotalItems int   `json:"total_items"`
	Links      Links `json:"links"`
}

// NewPage builds a page from the items already fetched for p.
// endpoint is the absolute listing URL; its other query parameters are kept.
func NewPage[T any](items []T, total int, p Params, endpoint *url.URL) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.PerPage - 1) / p.PerPage
	}

	page := Page[T]{
		Items:      items,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: totalPages,
		TotalItems: total,
		Links:      Links{Self: pageURL(endpoint, p.Page, p.PerPage)},
	}
	if p.Page < totalPages {
		page.Links.Next = pageURL(endpoint, p.Page+1, p.PerPage)
	}
	if p.Page > 1 {
		page.Links.Prev = pageURL(endpoint, p.Page-1, p.PerPage)
	}
	return page
}

func pageURL(endpoint *url.URL, page, perPage int) string {
	u := *endpoint
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	u.RawQuery = q.Encode()
	return u.String()
}
