package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scrynk/scrynk/models"
	"github.com/scrynk/scrynk/notify"
)

const (
	fromExtract = "extract"
	fromStatus  = "status"

	msgDownloadFailed = "Download failed. Please try again."
	msgBadFormat      = "Unsupported download format."
)

// returnPaths maps the from= parameter to the view a failed download goes
// back to. Anything else falls back to the Status view.
var returnPaths = map[string]string{
	fromExtract: "/extract",
	fromStatus:  "/status",
}

// Download returns a handler for GET /download?format=csv|txt&from=<view>.
//
// It is shared by the Extract and Status views. On success the blob is sent
// as an attachment named emails.csv or emails.txt. On failure one error toast
// is queued and the visitor is redirected back to the originating view.
func Download(api Downloader, n notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		back, ok := returnPaths[c.Query("from")]
		if !ok {
			back = returnPaths[fromStatus]
		}

		format, err := models.ParseDownloadFormat(c.Query("format"))
		if err != nil {
			notify.Error(ctx, n, msgBadFormat)
			c.Redirect(http.StatusSeeOther, back)
			return
		}

		blob, err := api.Download(ctx, format)
		if err != nil {
			if isCanceled(err) {
				c.Abort()
				return
			}
			apiErr := models.AsAPIError(err)
			slog.WarnContext(ctx, "download failed",
				"format", format,
				"code", apiErr.Code,
				"upstream_status", apiErr.StatusCode,
				"error", err,
			)
			notify.Error(ctx, n, msgDownloadFailed)
			c.Redirect(http.StatusSeeOther, back)
			return
		}

		slog.InfoContext(ctx, "download served", "format", format, "bytes", len(blob.Data))

		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, blob.Filename()))
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, blob.ContentType, blob.Data)
	}
}
