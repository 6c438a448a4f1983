package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scrynk/scrynk/models"
	"github.com/scrynk/scrynk/session"
)

// Landing returns a handler for GET /.
func Landing(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, store, http.StatusOK, "landing.tmpl", page{Title: "Welcome"})
	}
}

// Status returns a handler for GET /status.
//
// The download links fetch whatever the service currently holds as its
// latest result; no run is selected here.
func Status(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, store, http.StatusOK, "status.tmpl", page{
			Title:   "Status",
			Formats: models.DownloadFormats,
			From:    fromStatus,
		})
	}
}

// Results returns a handler for GET /results?state=<token>.
//
// The token is consumed on first use. Without a valid token, or with a
// result whose status is unknown, the visitor is sent back to the extraction
// form and nothing of the Results view is rendered.
func Results(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, ok := store.Take(c.Query("state"))
		if !ok || !result.Status.Valid() {
			c.Redirect(http.StatusSeeOther, "/extract")
			return
		}

		render(c, store, http.StatusOK, "results.tmpl", page{
			Title:  "Results",
			Result: result,
		})
	}
}
