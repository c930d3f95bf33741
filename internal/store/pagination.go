package store

// Page size limits.
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// PageParams selects one page of an offset-paginated listing.
type PageParams struct {
	Page  int // 1-based
	Limit int
}

// Validate clamps the page and limit into range.
func (p *PageParams) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
}

// Offset is the number of rows skipped before this page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of results with the overall total.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

// NewPage builds a Page, deriving the page count from total and limit.
func NewPage[T any](items []T, total int, p PageParams) Page[T] {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: p.Page, TotalPages: pages}
}
