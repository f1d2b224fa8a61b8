package listutil

import (
	"net/url"
	"strconv"
	"strings"
)

// MaxSearchLength caps the free-text search query.
const MaxSearchLength = 100

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 20

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 20, 50, 100}

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed
	PerPage int
}

// ListParams combines pagination and free-text search.
type ListParams struct {
	PageParams
	Search string
}

// PageInfo carries pagination metadata returned alongside a list.
type PageInfo struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"perPage"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
}

// ParsePageParams extracts page and per_page from URL query values.
// PRE: none
// POST: returns valid PageParams with defaults applied
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !isValidPerPage(perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseSearch extracts the trimmed q parameter, capped at MaxSearchLength runes.
// PRE: none
// POST: returns a possibly empty search string
func ParseSearch(q url.Values) string {
	s := strings.TrimSpace(q.Get("q"))
	if r := []rune(s); len(r) > MaxSearchLength {
		s = string(r[:MaxSearchLength])
	}
	return s
}

// ParseListParams parses pagination and search from URL query values.
func ParseListParams(q url.Values) ListParams {
	return ListParams{PageParams: ParsePageParams(q), Search: ParseSearch(q)}
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: TotalPages >= 1; Page clamped to [1, TotalPages]
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), totalPages)
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// Offset returns the SQL OFFSET for the current page.
// PRE: PageInfo is valid
// POST: Returns (Page-1) * PerPage
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func isValidPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}
