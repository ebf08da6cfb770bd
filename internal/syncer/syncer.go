// Package syncer runs one synchronization: find the newest versioned file in
// the source listing, mirror it into the destination store and remove the
// versions it supersedes.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/google/uuid"

	"ontosync/config"
	"ontosync/internal/download"
	"ontosync/internal/listing"
	"ontosync/internal/metrics"
	"ontosync/internal/models"
	"ontosync/internal/prune"
	"ontosync/internal/reconcile"
	"ontosync/internal/store"
	"ontosync/internal/version"
	"ontosync/pkg/utils"
)

var (
	ErrMissingCredential = config.ErrMissingCredential
	ErrEmptyListing      = errors.New("directory listing is empty")
)

const (
	StepCredential = "credential"
	StepAccess     = "access"
	StepListing    = "listing"
	StepSelect     = "select"
	StepStage      = "stage"
	StepDownload   = "download"
	StepReconcile  = "reconcile"
	StepPrune      = "prune"
)

type Syncer struct {
	cfg        *config.Config
	store      store.Store
	httpClient *http.Client
	lister     *listing.Fetcher
	downloader *download.Downloader
	pattern    *version.Pattern
	logger     *slog.Logger
	metrics    *metrics.Recorder
	dryRun     bool
}

// New builds a Syncer. httpClient is used for the source and for pushing
// metrics; rec may be nil.
func New(cfg *config.Config, st store.Store, httpClient *http.Client, logger *slog.Logger, rec *metrics.Recorder) *Syncer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout()}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		cfg:        cfg,
		store:      st,
		httpClient: httpClient,
		lister:     listing.NewFetcher(httpClient, logger),
		downloader: download.New(httpClient, logger),
		pattern:    version.NewPattern(cfg.FilePrefix, cfg.FileExt),
		logger:     logger,
		metrics:    rec,
	}
}

// WithDryRun makes every store mutation a logged no-op.
func (s *Syncer) WithDryRun() *Syncer {
	s.dryRun = true
	s.store = store.DryRun(s.store, s.logger)
	return s
}

type runState struct {
	logger     *slog.Logger
	result     *models.SyncResult
	names      []string
	selection  *version.Selection
	fileURL    string
	stagingDir string
	localPath  string
	outcome    reconcile.Outcome
}

type step struct {
	name string
	run  func(ctx context.Context, rs *runState) error
}

func (s *Syncer) steps() []step {
	return []step{
		{StepCredential, s.checkCredential},
		{StepAccess, s.checkAccess},
		{StepListing, s.fetchListing},
		{StepSelect, s.selectLatest},
		{StepStage, s.createStaging},
		{StepDownload, s.download},
		{StepReconcile, s.reconcile},
		{StepPrune, s.prune},
	}
}

// Run executes the pipeline. The first failing step ends the run; the
// staging area is removed on every path. The returned result is never nil.
func (s *Syncer) Run(ctx context.Context) (*models.SyncResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	rs := &runState{
		logger: s.logger.With("run_id", runID),
		result: &models.SyncResult{
			RunID:         runID,
			Store:         s.store.Describe(),
			DryRun:        s.dryRun,
			OperationTime: utils.FormatTime(start),
		},
	}
	defer s.releaseStaging(rs)

	rs.logger.Info("starting sync", "source", s.cfg.SourceURL, "store", rs.result.Store, "dir", s.cfg.TargetDir)

	for _, st := range s.steps() {
		rs.logger.Debug("running step", "step", st.name)
		if err := st.run(ctx, rs); err != nil {
			rs.result.FailedStep = st.name
			rs.logger.Error("sync failed", "step", st.name, "error", err)
			s.finish(rs, start, metrics.OutcomeFailed)
			return rs.result, err
		}
	}

	rs.logger.Info("sync complete", "file", rs.selection.FileName, "action", rs.outcome.Action)
	outcome := string(rs.outcome.Action)
	if s.dryRun {
		outcome = metrics.OutcomeDryRun
	}
	s.finish(rs, start, outcome)
	return rs.result, nil
}

func (s *Syncer) checkCredential(_ context.Context, _ *runState) error {
	return s.cfg.RequireCredential()
}

func (s *Syncer) checkAccess(ctx context.Context, rs *runState) error {
	if err := s.store.Check(ctx); err != nil {
		return err
	}
	rs.logger.Debug("destination is accessible", "store", rs.result.Store)
	return nil
}

func (s *Syncer) fetchListing(ctx context.Context, rs *runState) error {
	names, err := s.lister.Files(ctx, s.cfg.SourceURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEmptyListing, err)
	}
	if len(names) == 0 {
		return fmt.Errorf("%w at %s", ErrEmptyListing, s.cfg.SourceURL)
	}
	rs.names = names
	return nil
}

func (s *Syncer) selectLatest(_ context.Context, rs *runState) error {
	sel, fileURL, err := s.choose(rs.names, rs.logger)
	if err != nil {
		return err
	}
	rs.selection = sel
	rs.fileURL = fileURL
	rs.result.Selection = s.describeSelection(rs.names, sel, fileURL)
	rs.logger.Info("selected latest version", "file", sel.FileName, "version", sel.Version.Original())
	return nil
}

func (s *Syncer) choose(names []string, logger *slog.Logger) (*version.Selection, string, error) {
	sel, err := version.Select(names, s.pattern, logger)
	if err != nil {
		return nil, "", err
	}
	fileURL, err := listing.FileURL(s.cfg.SourceURL, sel.FileName)
	if err != nil {
		return nil, "", err
	}
	return sel, fileURL, nil
}

func (s *Syncer) describeSelection(names []string, sel *version.Selection, fileURL string) *models.Selection {
	return &models.Selection{
		SourceURL:      s.cfg.SourceURL,
		Pattern:        s.pattern.String(),
		CandidateCount: len(names),
		FileName:       sel.FileName,
		Version:        sel.Version.Original(),
		FileURL:        fileURL,
	}
}

func (s *Syncer) createStaging(_ context.Context, rs *runState) error {
	dir, err := utils.CreateStagingDir(s.cfg.StagingDir)
	if err != nil {
		return err
	}
	rs.stagingDir = dir
	rs.logger.Debug("created staging directory", "dir", dir)
	return nil
}

func (s *Syncer) download(ctx context.Context, rs *runState) error {
	localPath, err := s.downloader.ToDir(ctx, rs.fileURL, rs.stagingDir, rs.selection.FileName)
	if err != nil {
		return err
	}
	rs.localPath = localPath
	return nil
}

func (s *Syncer) reconcile(ctx context.Context, rs *runState) error {
	content, err := os.ReadFile(rs.localPath)
	if err != nil {
		return fmt.Errorf("failed to read staged file: %w", err)
	}

	destPath := path.Join(s.cfg.TargetDir, rs.selection.FileName)
	outcome, err := reconcile.Reconcile(ctx, s.store, reconcile.Request{
		Path:       destPath,
		FileName:   rs.selection.FileName,
		Version:    rs.selection.Version.Original(),
		SourceName: s.cfg.SourceName,
		Content:    content,
	}, rs.logger)
	if err != nil {
		return err
	}

	rs.outcome = outcome
	rs.result.DestinationPath = destPath
	rs.result.Action = string(outcome.Action)
	rs.result.SizeBytes = int64(len(content))
	rs.result.SizeHuman = utils.FormatBytes(int64(len(content)))
	return nil
}

func (s *Syncer) prune(ctx context.Context, rs *runState) error {
	res := prune.Stale(ctx, s.store, s.cfg.TargetDir, rs.selection.FileName, s.pattern, rs.logger)
	rs.result.Prune = &res
	if len(res.Failed) > 0 {
		rs.logger.Warn("some older versions could not be deleted", "failed", len(res.Failed))
	}
	return nil
}

func (s *Syncer) releaseStaging(rs *runState) {
	if rs.stagingDir == "" {
		return
	}
	if err := utils.RemoveStagingDir(rs.stagingDir); err != nil {
		rs.logger.Warn("failed to remove staging directory", "dir", rs.stagingDir, "error", err)
		return
	}
	rs.logger.Debug("removed staging directory", "dir", rs.stagingDir)
}

func (s *Syncer) finish(rs *runState, start time.Time, outcome string) {
	elapsed := time.Since(start)
	rs.result.Duration = elapsed.String()

	if s.metrics == nil {
		return
	}
	pruned, failed := 0, 0
	if rs.result.Prune != nil {
		pruned = len(rs.result.Prune.Deleted)
		failed = len(rs.result.Prune.Failed)
	}
	s.metrics.Finish(outcome, pruned, failed, elapsed)

	if s.cfg.PushgatewayURL == "" {
		return
	}
	if err := s.metrics.Push(s.cfg.PushgatewayURL, s.cfg.MetricsJob, s.httpClient); err != nil {
		rs.logger.Warn("failed to push run metrics", "error", err)
	}
}

// Latest reports which file a sync would pick without touching the store.
func (s *Syncer) Latest(ctx context.Context) (*models.Selection, error) {
	names, err := s.lister.Files(ctx, s.cfg.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmptyListing, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w at %s", ErrEmptyListing, s.cfg.SourceURL)
	}

	sel, fileURL, err := s.choose(names, s.logger)
	if err != nil {
		return nil, err
	}
	selection := s.describeSelection(names, sel, fileURL)
	selection.Candidates = s.candidates(names)
	return selection, nil
}

func (s *Syncer) candidates(names []string) []string {
	var out []string
	for _, name := range names {
		if _, ok := s.pattern.Match(name); ok {
			out = append(out, name)
		}
	}
	return out
}
