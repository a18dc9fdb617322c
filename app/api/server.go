package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, rateLimit float64, rateBurst int) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ClientIP keys the rate limiter, so forwarding headers are ignored
	if err := r.SetTrustedProxies(nil); err != nil {
		slog.Error("Failed to reset trusted proxies", "error", err)
	}

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, rateLimit, rateBurst)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, rateLimit float64, rateBurst int) {
	r.GET("/health", handler.GetHealth)

	limited := r.Group("/")
	limited.Use(rateLimitMiddleware(rateLimit, rateBurst))
	{
		limited.GET("/items", handler.GetItems)
		limited.GET("/items/latest", handler.GetLatestItems)
	}

	api := r.Group("/api")
	api.Use(rateLimitMiddleware(rateLimit, rateBurst))
	{
		api.GET("/sources", handler.APIListSources)
		api.GET("/sources/:id", handler.APIGetSource)
		api.POST("/ingest", handler.APITriggerIngestion)
		api.GET("/ingest/last", handler.APILastIngestion)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Feedsink",
			"description": "Scheduled feed ingestion with a paginated item read path",
			"endpoints": map[string]string{
				"items":   "/items?category=<name>&per_page=<1-50>&page=<n>",
				"latest":  "/items/latest?category=<name>&limit=<1-50>",
				"sources": "/api/sources",
				"source":  "/api/sources/<id>",
				"ingest":  "/api/ingest (POST)",
				"last":    "/api/ingest/last",
				"health":  "/health",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
