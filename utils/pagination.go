package utils

import "strconv"

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit far inside int64.
	MaxPage = 1_000_000
)

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
}

// PageParams parses 1-based page and limit query values. Bad or missing
// values fall back to page 1 and the default limit; both are capped.
func PageParams(pageStr, limitStr string) (page, limit int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	page = min(page, MaxPage)
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Skip is the offset of page. Out-of-range inputs are clamped, so the result
// is never negative.
func Skip(page, limit int) int64 {
	page = min(max(page, 1), MaxPage)
	limit = min(max(limit, 0), MaxLimit)
	return int64(page-1) * int64(limit)
}

func NewPagination(total int64, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Total: total, Page: page, Pages: pages, Limit: limit}
}
