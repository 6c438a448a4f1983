// Package client talks to the external extraction service.
//
// Both endpoints hang off a single configurable base URL:
//
//	POST <base>/extract/              {email, password, post_url} → {emails: [...]}
//	GET  <base>/download/?format=csv  → file body
//
// The client never retries. Every call honours the caller's context.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/scrynk/scrynk/config"
	"github.com/scrynk/scrynk/models"
)

const (
	extractPath  = "/extract/"
	downloadPath = "/download/"
)

// Client is safe for concurrent use.
type Client struct {
	rc      *resty.Client
	baseURL string
}

// New creates a Client from the API configuration.
func New(cfg config.APIConfig) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		rc.SetHeader("User-Agent", cfg.UserAgent)
	}
	instrument(rc)

	return &Client{rc: rc, baseURL: rc.BaseURL}
}

// BaseURL returns the configured upstream base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Extract submits one extraction run and returns a success result carrying
// the emails in the order the service returned them.
func (c *Client) Extract(ctx context.Context, req *models.ExtractionRequest) (*models.ExtractionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(extractPath)
	if err != nil {
		return nil, transportError("extract", err)
	}
	if !resp.IsSuccess() {
		return nil, statusError("extract", resp)
	}

	var body models.ExtractionResponse
	if raw := resp.Body(); len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, models.NewAPIError(models.ErrCodeInvalidResponse, "extract: malformed response body", err)
		}
	}

	return &models.ExtractionResult{
		Emails:  body.EmailList(),
		PostURL: req.PostURL,
		Status:  models.StatusSuccess,
	}, nil
}

// Download fetches the latest result held by the service in the given format.
func (c *Client) Download(ctx context.Context, format models.DownloadFormat) (*models.Blob, error) {
	if _, err := models.ParseDownloadFormat(string(format)); err != nil {
		return nil, err
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Accept", "*/*").
		SetQueryParam("format", string(format)).
		Get(downloadPath)
	if err != nil {
		return nil, transportError("download", err)
	}
	if !resp.IsSuccess() {
		return nil, statusError("download", resp)
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/json") {
		contentType = format.ContentType()
	}

	return &models.Blob{
		Format:      format,
		ContentType: contentType,
		Data:        resp.Body(),
	}, nil
}

// transportError classifies a failure that produced no HTTP response.
func transportError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewAPIError(models.ErrCodeUpstreamTimeout, op+": request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.NewAPIError(models.ErrCodeUpstreamTimeout, op+": request timed out", err)
	}
	return models.NewAPIError(models.ErrCodeUpstreamUnavailable, op+": service unreachable", err)
}

// statusError builds the error for a non-2xx response.
func statusError(op string, resp *resty.Response) error {
	apiErr := models.NewAPIError(
		models.ErrCodeUpstreamStatus,
		fmt.Sprintf("%s: service returned status %d", op, resp.StatusCode()),
		nil,
	)
	apiErr.StatusCode = resp.StatusCode()
	if msg := upstreamMessage(resp.Body()); msg != "" {
		apiErr.Err = errors.New(msg)
	}
	return apiErr
}

// upstreamMessage pulls a human-readable reason out of an error body.
// The service answers with {"error": "..."} for its own failures and with
// {"detail": ...} for request validation failures.
func upstreamMessage(body []byte) string {
	var payload struct {
		Error  string          `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	if len(payload.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		return detail
	}
	return string(payload.Detail)
}
