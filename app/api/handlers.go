package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/feedsink/app/cfg"
	"github.com/lysyi3m/feedsink/app/database"
	"github.com/lysyi3m/feedsink/app/feed"
	"github.com/lysyi3m/feedsink/app/listing"
	"github.com/lysyi3m/feedsink/app/tasks"
)

const statusUnavailable = "unavailable"

func NewHandler(lister ItemLister, sources SourceLister, sourceRepo database.SourceRepository,
	runner tasks.IngestionRunner, baseURL string) *Handler {
	return &Handler{
		lister:     lister,
		sources:    sources,
		sourceRepo: sourceRepo,
		runner:     runner,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (h *Handler) GetItems(c *gin.Context) {
	category := c.Query("category")
	pageSize := queryInt(c, "per_page", listing.DefaultPageSize)
	pageNumber := queryInt(c, "page", 1)

	page, err := h.lister.List(c.Request.Context(), category, pageSize, pageNumber)
	if err != nil {
		h.unavailable(c, "list_items", err)
		return
	}

	links := listing.PageLinks(page.CurrentPage, page.TotalPages)
	linkResponses := make([]pageLinkResponse, 0, len(links))
	for _, link := range links {
		resp := pageLinkResponse{PageLink: link}
		if link.Kind != listing.LinkEllipsis {
			resp.URL = h.pageURL(c, link.Page)
		}
		linkResponses = append(linkResponses, resp)
	}

	c.Header("X-Total-Items", strconv.Itoa(page.TotalItems))
	c.JSON(http.StatusOK, pageResponse{
		Status:      page.Status,
		TotalItems:  page.TotalItems,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		PageSize:    page.PageSize,
		Items:       toItemResponses(page.Items),
		Links:       linkResponses,
	})
}

func (h *Handler) GetLatestItems(c *gin.Context) {
	category := c.Query("category")
	limit := queryInt(c, "limit", listing.DefaultPageSize)

	items, err := h.lister.Latest(c.Request.Context(), category, limit)
	if err != nil {
		h.unavailable(c, "latest_items", err)
		return
	}

	status := listing.StatusOK
	if len(items) == 0 {
		status = listing.StatusNoData
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"items":  toItemResponses(items),
		"total":  len(items),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := h.runner.Health()

	response := map[string]interface{}{
		"status":    health.Status,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.GetVersion(),
		"scheduler": health,
		"sources":   len(h.sources.GetSources()),
	}

	code := http.StatusOK
	if health.Status == tasks.HealthUnhealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, response)
}

func (h *Handler) APIListSources(c *gin.Context) {
	sources := h.sources.GetSources()

	result := make([]map[string]interface{}, 0, len(sources))
	for _, source := range sources {
		result = append(result, h.sourceInfo(c.Request.Context(), source))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": result,
		"total":   len(result),
	})
}

func (h *Handler) APIGetSource(c *gin.Context) {
	source, err := h.sources.GetSource(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	c.JSON(http.StatusOK, h.sourceInfo(c.Request.Context(), source))
}

func (h *Handler) sourceInfo(ctx context.Context, source *feed.Source) map[string]interface{} {
	info := map[string]interface{}{
		"id":       source.ID,
		"name":     source.Name,
		"url":      source.URL,
		"feed_url": source.FeedURL,
		"category": source.Category,
		"logo_url": source.LogoURL,
		"enabled":  source.IsEnabled(),
	}

	status, err := h.sourceRepo.GetStatus(ctx, source.Name)
	if err != nil {
		slog.Error("Database error", "operation", "get_source_status", "source", source.Name, "error", err)
	} else if status != nil {
		info["last_fetched_at"] = status.LastFetchedAt
		info["last_success_at"] = status.LastSuccessAt
		info["last_error"] = status.LastError
		info["items_added"] = status.ItemsAdded
	}

	return info
}

func (h *Handler) APILastIngestion(c *gin.Context) {
	stats, ok := h.runner.LastRun()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No ingestion run has completed yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run": stats})
}

func (h *Handler) APITriggerIngestion(c *gin.Context) {
	// A client disconnect must not interrupt a run that has started writing
	stats, err := h.runner.RunIngestion(context.WithoutCancel(c.Request.Context()), tasks.TriggerManual)
	if err != nil {
		slog.Error("Manual ingestion failed", "id", stats.ID, "error", err)

		code := http.StatusInternalServerError
		if errors.Is(err, database.ErrSchemaMissing) {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"success": false,
			"error":   err.Error(),
			"run":     stats,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"run":     stats,
	})
}

func (h *Handler) unavailable(c *gin.Context, operation string, err error) {
	slog.Error("Database error", "operation", operation, "error", err)

	if errors.Is(err, listing.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": statusUnavailable})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"status": statusUnavailable, "error": "Internal error"})
}

func (h *Handler) pageURL(c *gin.Context, page int) string {
	query := url.Values{}
	for key, values := range c.Request.URL.Query() {
		query[key] = values
	}
	query.Set("page", strconv.Itoa(page))

	return h.baseURL + c.Request.URL.Path + "?" + query.Encode()
}

func queryInt(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return value
}

func toItemResponses(items []database.Item) []itemResponse {
	responses := make([]itemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, itemResponse{
			ID:          item.ID,
			Category:    item.Category,
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			PublishDate: item.PublishDate,
			PublishedAt: item.PublishedAt().Format(time.RFC3339),
			SourceName:  item.SourceName,
			SourceURL:   item.SourceURL,
			LogoURL:     item.LogoURL,
		})
	}
	return responses
}
