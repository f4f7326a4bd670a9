package models

const (
	DefaultPaginationLimit = 30
	MaxPaginationLimit     = 1000
)

// Pagination is the caller facing part of a page request: how many results and which cursor to continue from.
type Pagination struct {
	// Limit is the maximum number of results to return.
	Limit int `json:"limit"`
	// After continues from the page following the entity with this id.
	After *ResourceID `json:"after,omitempty"`
	// Before continues from the page preceding the entity with this id.
	Before *ResourceID `json:"before,omitempty"`
}

func NewPagination(limit int, after *ResourceID, before *ResourceID) Pagination {
	return Pagination{
		Limit:  limit,
		After:  after,
		Before: before,
	}
}
