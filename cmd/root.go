package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"ontosync/config"
	"ontosync/internal/s3client"
	"ontosync/internal/store"
	"ontosync/internal/store/githubstore"
	"ontosync/internal/store/memory"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ontosync",
	Short: "Keep a repository copy of the latest MDS-Onto release",
	Long: `ontosync finds the newest MDS_Onto-v<a.b.c.d>.jsonld file in a remote
directory listing, commits it to the destination repository and removes
the older versions stored next to it.
Configuration is loaded from .env file, an optional CONFIG_FILE and environment variables`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute(config *config.Config) error {
	cfg = config
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(latestCmd)

	rootCmd.PersistentFlags().String("backend", "", "Override destination backend (github, s3, memory)")
	rootCmd.PersistentFlags().String("target-dir", "", "Override destination directory")
	rootCmd.PersistentFlags().String("branch", "", "Override destination branch (github backend)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}

func setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if isVerbose(cmd) {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Backend = backend
	}
	if dir, _ := cmd.Flags().GetString("target-dir"); dir != "" {
		cfg.TargetDir = dir
	}
	if branch, _ := cmd.Flags().GetString("branch"); branch != "" {
		cfg.TargetBranch = branch
	}
	return nil
}

func isVerbose(cmd *cobra.Command) bool {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return verbose
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: cfg.Timeout()}
}

func newStore(ctx context.Context, httpClient *http.Client) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendGitHub:
		return githubstore.New(githubstore.Options{
			Owner:      cfg.GitHubOwner,
			Repo:       cfg.GitHubRepo,
			Branch:     cfg.TargetBranch,
			Token:      cfg.GitHubToken,
			APIURL:     cfg.GitHubAPIURL,
			HTTPClient: httpClient,
		})
	case config.BackendS3:
		return s3client.New(ctx, cfg)
	case config.BackendMemory:
		return memory.New("local"), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
