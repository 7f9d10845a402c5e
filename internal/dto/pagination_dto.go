package dto

import "math"

const (
	// DefaultPageSize applies when the client does not request a page size.
	DefaultPageSize = 10
	// MaxPageSize caps the page size a client may request.
	MaxPageSize = 100
	// MaxPage is the highest page number accepted. Offsets stay within int64
	// for every allowed page size.
	MaxPage = math.MaxInt32
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationMeta derives the page count from the total.
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	totalPages := 0
	if pageSize > 0 && total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// PageRequest is a normalized page selection.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize applies defaults and clamps the page and page size.
func (p PageRequest) Normalize() PageRequest {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}
