package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/scrynk/scrynk/client"
	"github.com/scrynk/scrynk/models"
	"github.com/scrynk/scrynk/notify"
	"github.com/spf13/cobra"
)

// passwordEnv lets scripts avoid putting the password on the command line.
const passwordEnv = "SCRYNK_PASSWORD"

// errExtractFailed is returned after the failure has already been reported.
var errExtractFailed = errors.New("extraction failed")

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run one extraction and print the emails found",
		Long: `Extract sends the credentials and post URL to the extraction service
and prints the emails it returns, one per line, in the order received.

The password is read from --password or, if that is empty, from the
SCRYNK_PASSWORD environment variable.

Examples:
  scrynk extract --email me@example.com --post-url https://www.linkedin.com/posts/...
  SCRYNK_PASSWORD=secret scrynk extract -e me@example.com -u https://... --json`,
		RunE: runExtractCmd,
	}

	cmd.Flags().StringP("email", "e", "", "Login email")
	cmd.Flags().StringP("password", "p", "", "Login password (or set "+passwordEnv+")")
	cmd.Flags().StringP("post-url", "u", "", "URL of the post to extract emails from")
	cmd.Flags().Bool("json", false, "Print the result as JSON")

	return cmd
}

func runExtractCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	form := models.ExtractForm{}
	form.Email, _ = cmd.Flags().GetString("email")
	form.Password, _ = cmd.Flags().GetString("password")
	form.PostURL, _ = cmd.Flags().GetString("post-url")
	if form.Password == "" {
		form.Password = os.Getenv(passwordEnv)
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	if !form.CanSubmit() {
		return errors.New("--email, a password and --post-url are all required")
	}

	n := notify.NewWriter(cmd.ErrOrStderr())
	result, err := client.New(cfg.API).Extract(cmd.Context(), form.Request())
	if err != nil {
		notify.Error(cmd.Context(), n, "Extraction failed: "+models.AsAPIError(err).Message)
		return errExtractFailed
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "# status: %s\n# source: %s\n# found:  %d\n", result.Status, result.PostURL, result.Count())
	for _, email := range result.Emails {
		fmt.Fprintln(out, email)
	}
	return nil
}
