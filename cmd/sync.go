package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"ontosync/internal/metrics"
	"ontosync/internal/syncer"
	"ontosync/pkg/utils"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the latest ontology release into the destination",
	Long: `Mirror the newest versioned ontology file into the destination store.

The command will:
- Check that the destination repository or bucket is accessible
- Fetch the directory listing at SOURCE_URL
- Pick the file with the highest four-part version
- Download it into a temporary staging directory
- Create or update the destination file, or leave it alone if unchanged
- Delete older versions from the destination directory
- Return detailed information about the run as JSON

The credential (GH_PAT for github, SECRET_KEY for s3) must be set.`,
	Example: `  # Sync into the configured repository
  ontosync sync

  # Show what would change without writing
  ontosync sync --dry-run --verbose

  # Sync into a different directory and branch
  ontosync sync --target-dir ontology/releases --branch staging

  # Sync into an S3 bucket
  ontosync sync --backend s3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd)
	},
}

func runSync(cmd *cobra.Command) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	timeout, _ := cmd.Flags().GetInt("timeout")

	if err := cfg.Validate(); err != nil {
		utils.WriteError(cmd.OutOrStdout(), err, "sync")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	httpClient := newHTTPClient()
	st, err := newStore(ctx, httpClient)
	if err != nil {
		utils.WriteError(cmd.OutOrStdout(), err, "sync")
		return err
	}

	s := syncer.New(cfg, st, httpClient, logger, metrics.New())
	if dryRun {
		s = s.WithDryRun()
	}

	if isVerbose(cmd) {
		logger.Debug("sync configuration", "source", cfg.SourceURL, "backend", cfg.Backend, "dir", cfg.TargetDir, "dry_run", dryRun)
	}

	result, err := s.Run(ctx)
	if err != nil {
		utils.WriteError(cmd.OutOrStdout(), err, "sync")
		return err
	}

	if err := utils.WriteJSON(cmd.OutOrStdout(), result); err != nil {
		utils.WriteError(cmd.OutOrStdout(), err, "sync")
		return err
	}
	return nil
}

func init() {
	syncCmd.Flags().Bool("dry-run", false, "Show what would be written without changing the destination")
	syncCmd.Flags().Int("timeout", 600, "Timeout in seconds for the whole run")
}
