package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/lysyi3m/feedsink/app/database"
)

// ErrUnavailable wraps store failures on the read path
var ErrUnavailable = errors.New("item store unavailable")

type ItemReader interface {
	Query(ctx context.Context, filter database.ItemFilter, limit, offset int) ([]database.Item, error)
	Count(ctx context.Context, filter database.ItemFilter) (int, error)
}

type Service struct {
	items ItemReader
}

func NewService(items ItemReader) *Service {
	return &Service{items: items}
}

// List returns one page of items newest first. Page size is clamped to
// [MinPageSize, MaxPageSize] and page number to at least 1; pages past the
// end come back empty with StatusNoData.
func (s *Service) List(ctx context.Context, category string, pageSize, pageNumber int) (Page, error) {
	pageSize = ClampPageSize(pageSize)
	pageNumber = max(pageNumber, 1)

	filter := database.ItemFilter{Category: category}

	total, err := s.items.Count(ctx, filter)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	page := Page{
		TotalItems:  total,
		TotalPages:  TotalPages(total, pageSize),
		CurrentPage: pageNumber,
		PageSize:    pageSize,
		Items:       []database.Item{},
		Status:      StatusNoData,
	}

	if pageNumber > page.TotalPages {
		return page, nil
	}

	items, err := s.items.Query(ctx, filter, pageSize, (pageNumber-1)*pageSize)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	page.Items = items
	if len(items) > 0 {
		page.Status = StatusOK
	}

	return page, nil
}

// Latest returns up to limit newest items without pagination metadata
func (s *Service) Latest(ctx context.Context, category string, limit int) ([]database.Item, error) {
	items, err := s.items.Query(ctx, database.ItemFilter{Category: category}, ClampPageSize(limit), 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return items, nil
}

func ClampPageSize(size int) int {
	return min(max(size, MinPageSize), MaxPageSize)
}

func TotalPages(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}
