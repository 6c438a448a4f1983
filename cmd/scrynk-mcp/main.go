// Command scrynk-mcp exposes the extraction service to MCP clients over stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/scrynk/scrynk/client"
	"github.com/scrynk/scrynk/config"
	"github.com/scrynk/scrynk/models"
)

// extractor and downloader are the parts of client.Client the tools use.
type extractor interface {
	Extract(ctx context.Context, req *models.ExtractionRequest) (*models.ExtractionResult, error)
}

type downloader interface {
	Download(ctx context.Context, format models.DownloadFormat) (*models.Blob, error)
}

func main() {
	cfg, err := config.LoadFile("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	api := client.New(cfg.API)
	s := newServer(api, api)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(ex extractor, dl downloader) *server.MCPServer {
	s := server.NewMCPServer(
		"scrynk",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	extractTool := mcp.NewTool("extract_emails",
		mcp.WithDescription("Log in with the given credentials and collect the email addresses posted in the comments of a post. Returns the emails in the order found."),
		mcp.WithString("email",
			mcp.Required(),
			mcp.Description("Login email for the site hosting the post"),
		),
		mcp.WithString("password",
			mcp.Required(),
			mcp.Description("Login password for the site hosting the post"),
		),
		mcp.WithString("post_url",
			mcp.Required(),
			mcp.Description("URL of the post whose comments are searched"),
		),
	)
	s.AddTool(extractTool, handleExtract(ex))

	downloadTool := mcp.NewTool("download_emails",
		mcp.WithDescription("Download the most recent extraction held by the service as CSV or plain text."),
		mcp.WithString("format",
			mcp.Description("File format: 'csv' (default) or 'txt'"),
			mcp.Enum(string(models.FormatCSV), string(models.FormatTXT)),
		),
	)
	s.AddTool(downloadTool, handleDownload(dl))

	return s
}

func handleExtract(ex extractor) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		form := models.ExtractForm{
			Email:    request.GetString("email", ""),
			Password: request.GetString("password", ""),
			PostURL:  request.GetString("post_url", ""),
		}
		if !form.CanSubmit() {
			return mcp.NewToolResultError("email, password and post_url are required"), nil
		}

		result, err := ex.Extract(ctx, form.Request())
		if err != nil {
			apiErr := models.AsAPIError(err)
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", apiErr.Code, apiErr.Message)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Status: %s\nSource: %s\nFound: %d\n", result.Status, result.PostURL, result.Count()))
		if result.Count() == 0 {
			sb.WriteString("\nNo emails were found in this post.")
		}
		for i, email := range result.Emails {
			sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, email))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleDownload(dl downloader) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		format, err := models.ParseDownloadFormat(request.GetString("format", string(models.FormatCSV)))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		blob, err := dl.Download(ctx, format)
		if err != nil {
			apiErr := models.AsAPIError(err)
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", apiErr.Code, apiErr.Message)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("--- %s ---\n%s", blob.Filename(), blob.Data)), nil
	}
}
