package pagination

import (
	"fmt"
)

// Meta describes the window a paginated listing returned.
type Meta struct {
	CurrentPage int  `json:"current_page" yaml:"current_page"`
	PageSize    int  `json:"page_size"    yaml:"page_size"`
	TotalPages  int  `json:"total_pages"  yaml:"total_pages"`
	TotalItems  int  `json:"total_items"  yaml:"total_items"`
	HasPrevious bool `json:"has_previous" yaml:"has_previous"`
	HasNext     bool `json:"has_next"     yaml:"has_next"`
}

// NewMeta computes page metadata from params and the unwindowed count.
func NewMeta(p Params, totalCount int) Meta {
	pageSize := p.effectiveLimit()
	if pageSize == 0 {
		pageSize = totalCount
	}

	currentPage := p.Page
	if currentPage == 0 && pageSize > 0 {
		currentPage = p.Offset/pageSize + 1
	}
	if currentPage == 0 {
		currentPage = 1
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}

	return Meta{
		CurrentPage: currentPage,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalItems:  totalCount,
		HasPrevious: currentPage > 1,
		HasNext:     currentPage < totalPages,
	}
}

// String renders a one-line footer such as "Page 2 of 5 (47 records)".
func (m Meta) String() string {
	return fmt.Sprintf("Page %d of %d (%d records)", m.CurrentPage, max(m.TotalPages, 1), m.TotalItems)
}
