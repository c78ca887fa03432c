package pagination

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Pagination modes and validation limits.
const (
	DefaultLimit     = 0
	MaxLimit         = 10000
	DefaultOffset    = 0
	DefaultSortField = "time"
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
	DefaultSortOrder = SortOrderAsc
)

// Common validation errors.
var (
	ErrInvalidLimit         = errors.New("limit must be between 0 and 10000")
	ErrInvalidOffset        = errors.New("offset must be non-negative")
	ErrInvalidPage          = errors.New("page must be >= 1")
	ErrInvalidSortOrder     = errors.New("sort order must be 'asc' or 'desc'")
	ErrMixedPaginationModes = errors.New("cannot use both offset-based (--offset) and page-based (--page) pagination")
	ErrPageSizeWithoutPage  = errors.New("--page-size requires --page to be set")
	ErrInvalidSortFormat    = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'impact:desc')")
	ErrEmptySortField       = errors.New("sort field cannot be empty")
	ErrInvalidSortField     = errors.New("invalid sort field")
)

// Params holds CLI pagination flags. Offset-based (--limit, --offset) and
// page-based (--page, --page-size) modes are mutually exclusive. A zero
// Limit means no limit.
type Params struct {
	Limit    int
	Offset   int
	Page     int
	PageSize int
	Sort     string
}

// AddFlags registers the pagination flags on cmd, bound to p.
func (p *Params) AddFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.Limit, "limit", DefaultLimit, "maximum records per kind (0 = all)")
	cmd.Flags().IntVar(&p.Offset, "offset", DefaultOffset, "records to skip per kind")
	cmd.Flags().IntVar(&p.Page, "page", 0, "1-based page number (requires --page-size)")
	cmd.Flags().IntVar(&p.PageSize, "page-size", 0, "records per page")
	cmd.Flags().StringVar(&p.Sort, "sort", "", "sort as field or field:order, e.g. impact:desc (default time:asc)")
}

// Validate checks bounds and that only one mode is used.
func (p Params) Validate() error {
	if p.Limit < 0 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, p.Limit)
	}
	if p.Offset < 0 {
		return ErrInvalidOffset
	}
	if p.Page < 0 || p.PageSize < 0 {
		return ErrInvalidPage
	}
	if p.Page > 0 && p.Offset > 0 {
		return ErrMixedPaginationModes
	}
	if p.Page == 0 && p.PageSize > 0 {
		return ErrPageSizeWithoutPage
	}
	if p.Page > 0 && p.PageSize == 0 {
		return fmt.Errorf("%w: --page needs --page-size", ErrInvalidPage)
	}
	_, _, err := ParseSort(p.Sort)
	return err
}

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// ParseSort parses "field" or "field:order". Empty means time ascending.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field, order string, err error) {
	if sortStr == "" {
		return DefaultSortField, DefaultSortOrder, nil
	}

	parts := strings.Split(sortStr, ":")
	switch len(parts) {
	case 1:
		field = strings.TrimSpace(parts[0])
		order = DefaultSortOrder
	case sortPartsMax:
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}
	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	return field, order, nil
}

// IsPageBased returns true if page-based pagination is active.
func (p Params) IsPageBased() bool {
	return p.Page > 0
}

// IsEnabled returns true if the listing is windowed at all.
func (p Params) IsEnabled() bool {
	return p.Limit > 0 || p.Offset > 0 || p.Page > 0
}

// effectiveLimit returns PageSize in page mode, otherwise Limit.
func (p Params) effectiveLimit() int {
	if p.IsPageBased() {
		return p.PageSize
	}
	return p.Limit
}

// effectiveOffset derives the offset from the page in page mode.
func (p Params) effectiveOffset() int {
	if p.IsPageBased() {
		return (p.Page - 1) * p.PageSize
	}
	return p.Offset
}

// Apply returns the window of items the params select.
func Apply[T any](items []T, p Params) []T {
	start := min(p.effectiveOffset(), len(items))
	end := len(items)
	if limit := p.effectiveLimit(); limit > 0 {
		end = min(start+limit, len(items))
	}
	return items[start:end]
}
