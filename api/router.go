package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scrynk/scrynk/api/handler"
	"github.com/scrynk/scrynk/api/middleware"
	"github.com/scrynk/scrynk/config"
	"github.com/scrynk/scrynk/notify"
	"github.com/scrynk/scrynk/session"
	"github.com/scrynk/scrynk/views"
)

// Upstream is the external extraction service as seen by the web front end.
type Upstream interface {
	handler.Extractor
	handler.Downloader
	BaseURL() string
}

// NewRouter creates a configured Gin engine with all pages and middleware.
//
// Middleware chain:
//
//	Global:       Recovery → Logger → Visitor
//	POST /extract: RateLimit
//
// Health lives outside the visitor middleware so probes never get cookies.
func NewRouter(cfg *config.Config, up Upstream, store *session.Store, n notify.Notifier, startTime time.Time) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)

	tmpl, err := views.Load()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.SetHTMLTemplate(tmpl)

	r.GET("/healthz", handler.Health(store, up.BaseURL(), startTime))

	pages := r.Group("")
	pages.Use(middleware.Visitor(cfg.Session))

	pages.GET("/", handler.Landing(store))
	pages.GET("/status", handler.Status(store))
	pages.GET("/results", handler.Results(store))

	// Extract
	pages.GET("/extract", handler.ExtractForm(store))
	pages.POST("/extract", middleware.RateLimit(cfg.RateLimit, n), handler.Extract(up, store, n))

	// Download, shared by the Extract and Status views.
	pages.GET("/download", handler.Download(up, n))

	return r, nil
}
