// Package githubstore implements store.Store on top of the GitHub contents
// API. Revisions are blob SHAs and every write is a commit on the configured
// branch.
package githubstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"ontosync/internal/store"
)

type Options struct {
	Owner  string
	Repo   string
	Branch string
	Token  string
	// APIURL overrides the API root, e.g. https://ghe.example.com/api/v3/.
	APIURL     string
	HTTPClient *http.Client
}

type Store struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

func New(opts Options) (*Store, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("github owner and repository are required")
	}

	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))

	client := github.NewClient(httpClient)
	if opts.APIURL != "" {
		apiURL := opts.APIURL
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		u, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url %q: %w", opts.APIURL, err)
		}
		client.BaseURL = u
	}

	return &Store{
		client: client,
		owner:  opts.Owner,
		repo:   opts.Repo,
		branch: opts.Branch,
	}, nil
}

func (s *Store) Describe() string {
	if s.branch == "" {
		return fmt.Sprintf("github:%s/%s", s.owner, s.repo)
	}
	return fmt.Sprintf("github:%s/%s@%s", s.owner, s.repo, s.branch)
}

// Check fetches the repository so a wrong owner, name or token fails before
// anything is downloaded. GitHub answers 404 for private repositories the
// token cannot see.
func (s *Store) Check(ctx context.Context) error {
	_, resp, err := s.client.Repositories.Get(ctx, s.owner, s.repo)
	if err == nil {
		return nil
	}
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: repository %s/%s, check GITHUB_OWNER, GITHUB_REPO and GH_PAT: %w", store.ErrUnreachable, s.owner, s.repo, err)
		}
	}
	return fmt.Errorf("github get repository %s/%s: %w", s.owner, s.repo, err)
}

func (s *Store) getOptions() *github.RepositoryContentGetOptions {
	if s.branch == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: s.branch}
}

func (s *Store) Read(ctx context.Context, path string) (store.ReadResult, error) {
	file, dir, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, s.getOptions())
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return store.NotFoundResult(), nil
		}
		return store.ReadResult{}, classify("read", path, resp, err)
	}
	if file == nil {
		return store.ReadResult{}, fmt.Errorf("github read %s: path is a directory with %d entries", path, len(dir))
	}

	content, err := s.fileContent(ctx, file)
	if err != nil {
		return store.ReadResult{}, fmt.Errorf("github read %s: %w", path, err)
	}
	return store.FoundResult(content, file.GetSHA()), nil
}

// fileContent decodes inline content. Files above the contents API size
// limit come back with encoding "none" and are fetched from the blob API.
func (s *Store) fileContent(ctx context.Context, file *github.RepositoryContent) ([]byte, error) {
	if file.GetEncoding() == "none" {
		blob, resp, err := s.client.Git.GetBlobRaw(ctx, s.owner, s.repo, file.GetSHA())
		if err != nil {
			return nil, classify("blob", file.GetPath(), resp, err)
		}
		return blob, nil
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	return []byte(content), nil
}

func (s *Store) Create(ctx context.Context, path string, content []byte, message string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}
	s.withBranch(opts)
	_, resp, err := s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts)
	if err != nil {
		return classify("create", path, resp, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, path string, content []byte, message, revision string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		SHA:     github.String(revision),
	}
	s.withBranch(opts)
	_, resp, err := s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts)
	if err != nil {
		return classify("update", path, resp, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path, message, revision string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		SHA:     github.String(revision),
	}
	s.withBranch(opts)
	_, resp, err := s.client.Repositories.DeleteFile(ctx, s.owner, s.repo, path, opts)
	if err != nil {
		return classify("delete", path, resp, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, dir string) ([]store.Entry, error) {
	file, items, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, dir, s.getOptions())
	if err != nil {
		return nil, classify("list", dir, resp, err)
	}
	if file != nil {
		return nil, fmt.Errorf("github list %s: %w", dir, store.ErrNotDirectory)
	}

	entries := make([]store.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, store.Entry{
			Name:     item.GetName(),
			Path:     item.GetPath(),
			Type:     store.EntryType(item.GetType()),
			Revision: item.GetSHA(),
			Size:     int64(item.GetSize()),
		})
	}
	return entries, nil
}

func (s *Store) withBranch(opts *github.RepositoryContentFileOptions) {
	if s.branch != "" {
		opts.Branch = github.String(s.branch)
	}
}

func classify(op, path string, resp *github.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("github %s %s: %w: %w", op, path, store.ErrConflict, err)
	}
	return fmt.Errorf("github %s %s: %w", op, path, err)
}
