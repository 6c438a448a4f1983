package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scrynk/scrynk/models"
	"github.com/scrynk/scrynk/notify"
	"github.com/scrynk/scrynk/session"
)

const (
	msgMissingFields   = "Please fill in your email, password and the post URL."
	msgExtractFailed   = "Extraction failed. Please check your details and try again."
	msgExtractTimedOut = "The extraction service took too long to answer. Please try again."
	msgAlreadyRunning  = "An extraction is already running. This page refreshes until you can submit again."
)

// ExtractForm returns a handler for GET /extract.
func ExtractForm(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := session.VisitorFrom(c.Request.Context())
		renderForm(c, store, http.StatusOK, extractPage(models.ExtractForm{}, store.InFlight(id)))
	}
}

// Extract returns a handler for POST /extract.
//
// Flow:
//  1. Bind the form; reject empty fields without calling the service.
//  2. Take the visitor's in-flight guard; a second submission while one is
//     pending is answered without a second upstream request.
//  3. Call the extraction service with the request context.
//  4. On failure, one error toast and the form re-rendered with its values.
//     On success, store the result under a one-time token and redirect to
//     the Results view.
func Extract(api Extractor, store *session.Store, n notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		visitorID := session.VisitorFrom(ctx)

		// ── 1. Parse form ───────────────────────────────────────────
		var form models.ExtractForm
		if err := c.ShouldBind(&form); err != nil || !form.CanSubmit() {
			notify.Error(ctx, n, msgMissingFields)
			renderForm(c, store, http.StatusBadRequest, extractPage(form, false))
			return
		}
		req := form.Request()
		if err := req.Validate(); err != nil {
			notify.Error(ctx, n, msgMissingFields)
			renderForm(c, store, http.StatusBadRequest, extractPage(form, false))
			return
		}

		// ── 2. In-flight guard ──────────────────────────────────────
		if !store.Begin(visitorID) {
			dupErr := models.NewAPIError(models.ErrCodeDuplicateSubmission, "extraction already in flight", nil)
			slog.InfoContext(ctx, "duplicate extraction submission ignored", "code", dupErr.Code)
			notify.Info(ctx, n, msgAlreadyRunning)
			renderForm(c, store, mapErrorToStatus(dupErr), extractPage(form, true))
			return
		}
		defer store.End(visitorID)

		// ── 3. Call the service ─────────────────────────────────────
		start := time.Now()
		result, err := api.Extract(ctx, req)
		elapsed := time.Since(start).Round(time.Millisecond)

		if ctx.Err() != nil {
			// The browser went away; nobody is left to show anything to.
			slog.InfoContext(ctx, "extraction abandoned by client",
				"post_url", req.PostURL,
				"elapsed", elapsed,
			)
			c.Abort()
			return
		}

		// ── 4. Respond ──────────────────────────────────────────────
		if err != nil {
			apiErr := models.AsAPIError(err)
			slog.WarnContext(ctx, "extraction failed",
				"post_url", req.PostURL,
				"code", apiErr.Code,
				"upstream_status", apiErr.StatusCode,
				"elapsed", elapsed,
				"error", err,
			)
			msg := msgExtractFailed
			if apiErr.Code == models.ErrCodeUpstreamTimeout {
				msg = msgExtractTimedOut
			}
			notify.Error(ctx, n, msg)
			renderForm(c, store, mapErrorToStatus(apiErr), extractPage(form, false))
			return
		}

		slog.InfoContext(ctx, "extraction completed",
			"post_url", result.PostURL,
			"emails", result.Count(),
			"elapsed", elapsed,
		)

		token := store.Put(result)
		c.Redirect(http.StatusSeeOther, "/results?state="+url.QueryEscape(token))
	}
}

// renderForm writes the Extract view. The form may echo the password back,
// so the response must never be cached.
func renderForm(c *gin.Context, store *session.Store, status int, p page) {
	c.Header("Cache-Control", "no-store")
	render(c, store, status, "extract.tmpl", p)
}

// extractPage builds the Extract view. While a submission is in flight the
// page reloads itself so the visitor is never stuck on a disabled form.
func extractPage(form models.ExtractForm, loading bool) page {
	return page{
		Title:   "Extract",
		Form:    form,
		Loading: loading,
		Refresh: loading,
		Formats: models.DownloadFormats,
		From:    fromExtract,
	}
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.APIError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case models.ErrCodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case models.ErrCodeUpstreamStatus, models.ErrCodeUpstreamUnavailable, models.ErrCodeInvalidResponse:
		return http.StatusBadGateway
	case models.ErrCodeDuplicateSubmission:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// isCanceled reports whether err stems from the caller going away.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
