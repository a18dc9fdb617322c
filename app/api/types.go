package api

import (
	"context"

	"github.com/lysyi3m/feedsink/app/database"
	"github.com/lysyi3m/feedsink/app/feed"
	"github.com/lysyi3m/feedsink/app/listing"
	"github.com/lysyi3m/feedsink/app/tasks"
)

type ItemLister interface {
	List(ctx context.Context, category string, pageSize, pageNumber int) (listing.Page, error)
	Latest(ctx context.Context, category string, limit int) ([]database.Item, error)
}

type SourceLister interface {
	GetSources() []*feed.Source
	GetSource(id string) (*feed.Source, error)
}

var (
	_ ItemLister   = (*listing.Service)(nil)
	_ SourceLister = (*feed.SourceCache)(nil)
)

type Handler struct {
	lister     ItemLister
	sources    SourceLister
	sourceRepo database.SourceRepository
	runner     tasks.IngestionRunner
	baseURL    string
}

type itemResponse struct {
	ID          uint64 `json:"id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	PublishDate int64  `json:"publish_date"`
	PublishedAt string `json:"published_at"`
	SourceName  string `json:"source_name"`
	SourceURL   string `json:"source_url"`
	LogoURL     string `json:"logo_url"`
}

type pageLinkResponse struct {
	listing.PageLink
	URL string `json:"url,omitempty"`
}

type pageResponse struct {
	Status      listing.Status     `json:"status"`
	TotalItems  int                `json:"total_items"`
	TotalPages  int                `json:"total_pages"`
	CurrentPage int                `json:"current_page"`
	PageSize    int                `json:"page_size"`
	Items       []itemResponse     `json:"items"`
	Links       []pageLinkResponse `json:"links"`
}
