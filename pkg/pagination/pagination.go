package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage bounds page so offsets and page*limit cannot overflow.
	MaxPage = 1_000_000
)

// Params holds pagination parameters parsed from a request.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// Cursor points at a neighbouring page.
type Cursor struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Result is one page of items plus links to the adjacent pages when they exist.
type Result[T any] struct {
	Items      []T     `json:"items"`
	TotalCount int     `json:"total_count"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
	Next       *Cursor `json:"next,omitempty"`
	Previous   *Cursor `json:"previous,omitempty"`
}

// DefaultParams returns the first page at the default limit.
func DefaultParams() Params {
	return NewParams(DefaultPage, DefaultLimit)
}

// NewParams builds Params, replacing out-of-range values with defaults.
// Pages past MaxPage are clamped to it.
func NewParams(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// FromRequest reads page and limit from the query string. per_page is
// accepted as an alias for limit.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()

	limitRaw := q.Get("limit")
	if limitRaw == "" {
		limitRaw = q.Get("per_page")
	}

	return NewParams(atoiOr(q.Get("page"), DefaultPage), atoiOr(limitRaw, DefaultLimit))
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// NewResult builds a Result. A nil items slice is normalised to an empty one
// so it encodes as [] rather than null.
func NewResult[T any](items []T, totalCount int, params Params) Result[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if params.Limit > 0 {
		totalPages = (totalCount + params.Limit - 1) / params.Limit
	}

	res := Result[T]{
		Items:      items,
		TotalCount: totalCount,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
	}
	if params.Page*params.Limit < totalCount {
		res.Next = &Cursor{Page: params.Page + 1, Limit: params.Limit}
	}
	if params.Offset > 0 {
		res.Previous = &Cursor{Page: params.Page - 1, Limit: params.Limit}
	}
	return res
}
