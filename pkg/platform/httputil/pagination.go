package httputil

import (
	"math"
	"net/http"
	"strconv"

	dErrors "registro/pkg/domain-errors"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage keeps (page-1)*limit inside an int32 OFFSET.
	MaxPage = math.MaxInt32 / MaxPageLimit
)

// PageRequest is a validated page/limit pair taken from the query string.
type PageRequest struct {
	Page  int
	Limit int
}

// Offset returns the SQL OFFSET for the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination is the metadata block returned with every list.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ListResponse is the list envelope consumed by the frontend stores.
type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewListResponse builds the envelope, never serializing data as null.
func NewListResponse[T any](items []T, page PageRequest, total int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if page.Limit > 0 {
		pages = (total + page.Limit - 1) / page.Limit
	}
	return ListResponse[T]{
		Data: items,
		Pagination: Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      total,
			TotalPages: pages,
		},
	}
}

// ParsePage reads ?page= and ?limit=. Missing values take defaults and limits
// above MaxPageLimit are clamped. Non-numeric, non-positive or out-of-range
// values are rejected.
func ParsePage(r *http.Request) (PageRequest, error) {
	q := r.URL.Query()
	page, err := positiveInt(q.Get("page"), 1, "page")
	if err != nil {
		return PageRequest{}, err
	}
	limit, err := positiveInt(q.Get("limit"), DefaultPageLimit, "limit")
	if err != nil {
		return PageRequest{}, err
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page > MaxPage {
		return PageRequest{}, dErrors.New(dErrors.CodeValidation, "page must be at most "+strconv.Itoa(MaxPage))
	}
	return PageRequest{Page: page, Limit: limit}, nil
}

func positiveInt(raw string, def int, name string) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, dErrors.New(dErrors.CodeValidation, name+" must be a positive integer")
	}
	return n, nil
}

// OptionalInt parses an optional integer query parameter.
func OptionalInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, name+" must be an integer")
	}
	return &n, nil
}

// OptionalBool reads a boolean query parameter. An absent parameter yields nil.
func OptionalBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, name+" must be true or false")
	}
	return &b, nil
}
