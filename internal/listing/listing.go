// Package listing reads file names out of an HTML directory index.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "ontosync"

type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, logger: logger}
}

// Files fetches the index at sourceURL and returns the file names it links
// to, in document order.
func (f *Fetcher) Files(ctx context.Context, sourceURL string) ([]string, error) {
	f.logger.Info("fetching directory listing", "url", sourceURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build listing request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch directory listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch directory listing: unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse directory listing: %w", err)
	}

	files := ExtractFiles(doc)
	f.logger.Info("directory listing fetched", "files", len(files))
	return files, nil
}

// ExtractFiles applies the file-link heuristic: a link names a file when its
// href is not the parent link, does not end in a slash and equals the text
// of the link.
func ExtractFiles(doc *goquery.Document) []string {
	var files []string
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" || href == "../" || strings.HasSuffix(href, "/") {
			return
		}
		if href != s.Text() {
			return
		}
		files = append(files, href)
	})
	return files
}

// FileURL resolves a file name found in the listing against the listing URL.
func FileURL(sourceURL, name string) (string, error) {
	base, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("invalid source url %q: %w", sourceURL, err)
	}
	ref, err := url.Parse(name)
	if err != nil {
		return "", fmt.Errorf("invalid file name %q: %w", name, err)
	}
	return base.ResolveReference(ref).String(), nil
}
