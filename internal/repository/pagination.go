package repository

import (
	"math"

	"gorm.io/gorm"
)

// Page describes a 1-based page request. A zero PageSize disables pagination.
type Page struct {
	Page     int
	PageSize int
}

// Offset returns the number of rows skipped before the page starts. It
// saturates at math.MaxInt instead of wrapping negative, so a page past the
// end always selects no rows.
func (p Page) Offset() int {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	if p.PageSize <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (page - 1) * p.PageSize
}

func paginate(query *gorm.DB, page Page) *gorm.DB {
	if page.PageSize <= 0 {
		return query
	}
	return query.Offset(page.Offset()).Limit(page.PageSize)
}

// inChunks calls fn with consecutive slices of at most size elements.
func inChunks[T any](items []T, size int, fn func(chunk []T) error) error {
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		if err := fn(items[start:end]); err != nil {
			return err
		}
	}
	return nil
}
