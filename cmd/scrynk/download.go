package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/scrynk/scrynk/client"
	"github.com/scrynk/scrynk/models"
	"github.com/scrynk/scrynk/notify"
	"github.com/spf13/cobra"
)

var errDownloadFailed = errors.New("download failed")

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the latest extraction as CSV or plain text",
		Long: `Download fetches the most recent result held by the extraction service
and saves it as emails.csv or emails.txt (or the path given by --output).
Use "-o -" to write to stdout.`,
		RunE: runDownloadCmd,
	}

	cmd.Flags().StringP("format", "f", string(models.FormatCSV), "File format: csv or txt")
	cmd.Flags().StringP("output", "o", "", "Output path (default emails.<format>)")

	return cmd
}

func runDownloadCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	raw, _ := cmd.Flags().GetString("format")
	format, err := models.ParseDownloadFormat(raw)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

	n := notify.NewWriter(cmd.ErrOrStderr())
	blob, err := client.New(cfg.API).Download(cmd.Context(), format)
	if err != nil {
		notify.Error(cmd.Context(), n, "Download failed: "+models.AsAPIError(err).Message)
		return errDownloadFailed
	}

	if output == "-" {
		_, err := cmd.OutOrStdout().Write(blob.Data)
		return err
	}
	if output == "" {
		output = blob.Filename()
	}
	if err := os.WriteFile(output, blob.Data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "saved %d bytes to %s\n", len(blob.Data), output)
	return nil
}
