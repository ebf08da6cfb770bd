// Package version finds the newest versioned file in a set of file names.
//
// File names follow PREFIX-v<major>.<minor>.<patch>.<build>.<ext>. Versions
// are compared numerically component by component, so 10.0.0.0 sorts after
// 9.0.0.0.
package version

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

const segmentCount = 4

var ErrNoMatchingFiles = errors.New("no files match the naming pattern")

// Pattern recognizes versioned file names for one prefix and extension.
type Pattern struct {
	prefix string
	ext    string
	re     *regexp.Regexp
}

func NewPattern(prefix, ext string) *Pattern {
	ext = strings.TrimPrefix(ext, ".")
	expr := fmt.Sprintf(`^%s-v(\d+\.\d+\.\d+\.\d+)\.%s`, regexp.QuoteMeta(prefix), regexp.QuoteMeta(ext))
	return &Pattern{
		prefix: prefix,
		ext:    ext,
		re:     regexp.MustCompile(expr),
	}
}

// Match reports whether name is a versioned file and returns the raw version
// substring. The match is anchored at the start of the name only.
func (p *Pattern) Match(name string) (string, bool) {
	m := p.re.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (p *Pattern) Prefix() string {
	return p.prefix
}

func (p *Pattern) String() string {
	return fmt.Sprintf("%s-v*.%s", p.prefix, p.ext)
}

// looksVersioned is true for names that carry the prefix but may still fail
// the full pattern. Those are worth a warning; unrelated files are not.
func (p *Pattern) looksVersioned(name string) bool {
	return strings.HasPrefix(name, p.prefix+"-")
}

// Parse parses a dotted four-component version.
func Parse(raw string) (*goversion.Version, error) {
	v, err := goversion.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" || len(v.Segments64()) != segmentCount {
		return nil, fmt.Errorf("invalid version %q: want %d numeric components", raw, segmentCount)
	}
	return v, nil
}

type Selection struct {
	FileName string
	Version  *goversion.Version
}

// Select returns the file with the highest version. Names that do not match
// the pattern, or whose version cannot be parsed, are skipped. When two names
// carry the same version the lexicographically smaller name is kept, so the
// result does not depend on listing order.
func Select(names []string, pattern *Pattern, logger *slog.Logger) (*Selection, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var best *Selection
	matched := 0
	for _, name := range names {
		raw, ok := pattern.Match(name)
		if !ok {
			if pattern.looksVersioned(name) {
				logger.Warn("file name does not match naming pattern, skipping", "file", name, "pattern", pattern.String())
			}
			continue
		}

		v, err := Parse(raw)
		if err != nil {
			logger.Warn("could not parse version, skipping", "file", name, "version", raw, "error", err)
			continue
		}
		matched++

		if best == nil || better(v, name, best) {
			best = &Selection{FileName: name, Version: v}
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w %s", ErrNoMatchingFiles, pattern.String())
	}

	logger.Debug("version candidates evaluated", "matched", matched, "total", len(names))
	return best, nil
}

func better(v *goversion.Version, name string, current *Selection) bool {
	switch v.Compare(current.Version) {
	case 1:
		return true
	case 0:
		return name < current.FileName
	default:
		return false
	}
}
