package client

import (
	"log/slog"

	"github.com/go-resty/resty/v2"
)

// instrument logs every upstream exchange. Request bodies are never logged
// because they carry credentials.
func instrument(rc *resty.Client) {
	rc.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		level := slog.LevelDebug
		if !res.IsSuccess() {
			level = slog.LevelWarn
		}
		slog.Log(res.Request.Context(), level, "upstream response",
			"method", res.Request.Method,
			"path", res.Request.URL,
			"status", res.StatusCode(),
			"duration", res.Time(),
			"bytes", len(res.Body()),
		)
		return nil
	})
	rc.OnError(func(req *resty.Request, err error) {
		slog.WarnContext(req.Context(), "upstream request failed",
			"method", req.Method,
			"path", req.URL,
			"error", err,
		)
	})
}
