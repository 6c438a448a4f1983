package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/scrynk/scrynk/models"
	"github.com/scrynk/scrynk/session"
)

// Extractor runs one extraction against the external service.
type Extractor interface {
	Extract(ctx context.Context, req *models.ExtractionRequest) (*models.ExtractionResult, error)
}

// Downloader fetches the latest result from the external service.
type Downloader interface {
	Download(ctx context.Context, format models.DownloadFormat) (*models.Blob, error)
}

// page is the data every view template receives.
type page struct {
	Title   string
	Toasts  []models.Toast
	Form    models.ExtractForm
	Loading bool
	Refresh bool // reload /extract after a few seconds
	Result  *models.ExtractionResult
	Formats []models.DownloadFormat
	From    string // view name the download links return to on failure
}

// render writes a view along with any toasts queued for the visitor.
func render(c *gin.Context, store *session.Store, status int, name string, p page) {
	if id := session.VisitorFrom(c.Request.Context()); id != "" {
		p.Toasts = append(p.Toasts, store.PopToasts(id)...)
	}
	c.HTML(status, name, p)
}
