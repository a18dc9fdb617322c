package listing

import (
	"github.com/lysyi3m/feedsink/app/database"
)

const (
	MinPageSize     = 1
	MaxPageSize     = 50
	DefaultPageSize = 10

	// windowRadius is the number of pages shown on each side of the current page
	windowRadius = 2
)

type Status string

const (
	StatusOK     Status = "ok"
	StatusNoData Status = "no_data"
)

// Page is one page of stored items plus the totals needed to navigate the rest
type Page struct {
	TotalItems  int             `json:"total_items"`
	TotalPages  int             `json:"total_pages"`
	CurrentPage int             `json:"current_page"`
	PageSize    int             `json:"page_size"`
	Items       []database.Item `json:"items"`
	Status      Status          `json:"status"`
}

type LinkKind string

const (
	LinkPrevious LinkKind = "previous"
	LinkPage     LinkKind = "page"
	LinkEllipsis LinkKind = "ellipsis"
	LinkNext     LinkKind = "next"
)

// PageLink is one navigation element; Page is 0 for ellipses
type PageLink struct {
	Kind    LinkKind `json:"kind"`
	Page    int      `json:"page,omitempty"`
	Current bool     `json:"current,omitempty"`
}
