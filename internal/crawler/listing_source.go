package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/orphancrawl/internal/frontier"
	"github.com/nao1215/orphancrawl/internal/paths"
)

// DirectoryLister is the part of an FTP session the server crawl needs.
// *transport.FTPSession satisfies it.
type DirectoryLister interface {
	ChangeDir(dir string) error
	ChangeDirToParent() error
	NameList(dir string) ([]string, error)
}

// ListingSource lists server directories and classifies their entries.
// Paths handed to and returned from Fetch are relative to the start
// directory, so "/" is the start directory itself.
type ListingSource struct {
	lister   DirectoryLister
	startDir string
	logger   *slog.Logger
}

// NewListingSource creates a source rooted at startDir on lister.
func NewListingSource(lister DirectoryLister, startDir string, logger *slog.Logger) *ListingSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingSource{
		lister:   lister,
		startDir: normalizeStartDir(startDir),
		logger:   logger,
	}
}

// normalizeStartDir returns startDir without a trailing slash, or "" for
// the server root.
func normalizeStartDir(dir string) string {
	return strings.TrimSuffix(paths.Clean("/"+strings.TrimPrefix(dir, "/")), "/")
}

// ServerPath maps a root-relative path to the server path.
func (s *ListingSource) ServerPath(rel string) string {
	p := s.startDir + paths.Clean(rel)
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// Relative maps a server path to a root-relative path. Paths outside the
// start directory are returned cleaned.
func (s *ListingSource) Relative(serverPath string) string {
	p := paths.Clean(serverPath)
	if s.startDir == "" {
		return p
	}
	if p == s.startDir {
		return "/"
	}
	if rest, ok := strings.CutPrefix(p, s.startDir+"/"); ok {
		return "/" + rest
	}
	return p
}

// Fetch implements frontier.Source. Directories come back as
// KindDirectory candidates and everything else as KindFile.
func (s *ListingSource) Fetch(ctx context.Context, rel string) ([]frontier.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := s.ServerPath(rel)
	if err := s.lister.ChangeDir(dir); err != nil {
		s.logger.Warn("cannot enter directory", "dir", dir, "error", err)
		return nil, fmt.Errorf("failed to change directory to %s: %w", dir, err)
	}

	entries, err := s.lister.NameList(dir)
	if err != nil {
		s.logger.Warn("cannot list directory", "dir", dir, "error", err)
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	candidates := make([]frontier.Candidate, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		full, ok := entryPath(dir, entry)
		if !ok {
			continue
		}

		kind := frontier.KindFile
		if s.isDir(full) {
			kind = frontier.KindDirectory
		}
		candidates = append(candidates, frontier.Candidate{Ref: s.Relative(full), Kind: kind})
	}

	s.logger.Debug("listed directory", "dir", dir, "entries", len(candidates))
	return candidates, nil
}

// entryPath turns a NameList entry into a server path. Servers answer with
// bare names or with full paths; "." and ".." are skipped.
func entryPath(dir, entry string) (string, bool) {
	entry = strings.TrimSpace(entry)
	name := entry
	if i := strings.LastIndex(strings.TrimSuffix(entry, "/"), "/"); i >= 0 {
		name = strings.TrimSuffix(entry, "/")[i+1:]
	}
	name = strings.TrimSuffix(name, "/")
	if name == "" || name == "." || name == ".." {
		return "", false
	}
	if strings.HasPrefix(entry, "/") {
		return strings.TrimSuffix(entry, "/"), true
	}
	if dir == "/" {
		return "/" + name, true
	}
	return dir + "/" + name, true
}

// isDir probes path by entering it and stepping back out.
func (s *ListingSource) isDir(path string) bool {
	if err := s.lister.ChangeDir(path); err != nil {
		return false
	}
	if err := s.lister.ChangeDirToParent(); err != nil {
		s.logger.Warn("cannot leave directory", "dir", path, "error", err)
	}
	return true
}
