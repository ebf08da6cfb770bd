package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"ontosync/internal/syncer"
	"ontosync/pkg/utils"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show which file a sync would pick",
	Long: `Fetch the directory listing and report the newest versioned file
without reading or writing the destination. No credential is needed.`,
	Example: `  # Show the latest release at the configured source
  ontosync latest

  # Use a different listing
  SOURCE_URL=https://example.org/files/ ontosync latest`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLatest(cmd)
	},
}

func runLatest(cmd *cobra.Command) error {
	timeout, _ := cmd.Flags().GetInt("timeout")

	if err := cfg.ValidateSource(); err != nil {
		utils.WriteError(cmd.OutOrStdout(), err, "latest")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	selection, err := syncer.New(cfg, nil, newHTTPClient(), logger, nil).Latest(ctx)
	if err != nil {
		utils.WriteError(cmd.OutOrStdout(), err, "latest")
		return err
	}

	if err := utils.WriteJSON(cmd.OutOrStdout(), selection); err != nil {
		utils.WriteError(cmd.OutOrStdout(), err, "latest")
		return err
	}

	if isVerbose(cmd) {
		logger.Debug("latest version resolved", "file", selection.FileName)
	}
	return nil
}

func init() {
	latestCmd.Flags().Int("timeout", 60, "Timeout in seconds for the operation")
}
