package frontier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/nao1215/orphancrawl/internal/paths"
)

var (
	// ErrInvalidPattern is returned by CompilePatterns for a pattern that
	// does not compile.
	ErrInvalidPattern = errors.New("invalid ignore pattern")

	// ErrUnknownBlacklistMatch is returned by ParseBlacklistMatch.
	ErrUnknownBlacklistMatch = errors.New("unknown blacklist match")
)

// BlacklistMatch selects what the directory blacklist is compared against.
type BlacklistMatch int

const (
	// MatchResolved compares blacklist entries with the segments of the
	// resolved path.
	MatchResolved BlacklistMatch = iota
	// MatchRaw compares blacklist entries with the segments of the reference
	// as written on the page. With "private" blacklisted, "x.html" found on
	// /private/ is not caught, while "private/../x.html" is.
	MatchRaw
)

// String returns the configuration name.
func (m BlacklistMatch) String() string {
	if m == MatchRaw {
		return "raw"
	}
	return "resolved"
}

// ParseBlacklistMatch converts a configuration name.
func ParseBlacklistMatch(name string) (BlacklistMatch, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "resolved":
		return MatchResolved, nil
	case "raw":
		return MatchRaw, nil
	default:
		return MatchResolved, fmt.Errorf("%w: %q", ErrUnknownBlacklistMatch, name)
	}
}

// CompilePatterns compiles ignore patterns. "*" matches any run of
// characters including "/", so "*.pdf" and "/admin/*" both work on full
// paths.
func CompilePatterns(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func candidatePath(dir string, c Candidate) (string, error) {
	switch c.Kind {
	case KindDirectory:
		return paths.AsDir(c.Ref), nil
	case KindFile:
		return paths.Clean(c.Ref), nil
	default:
		// Resolve keeps root-anchored references as written; queued paths
		// must still be directory-like.
		resolved, err := paths.Resolve(dir, c.Ref)
		if err != nil {
			return "", err
		}
		return paths.DirectoryLike(resolved), nil
	}
}

func (f *Frontier) blacklisted(raw, resolved string) bool {
	if len(f.blacklist) == 0 {
		return false
	}
	target := resolved
	if f.blacklistMatch == MatchRaw {
		target = raw
	}
	for _, seg := range paths.Segments(target) {
		if _, ok := f.blacklist[seg]; ok {
			return true
		}
	}
	return false
}

func (f *Frontier) ignored(p string) bool {
	if len(f.ignore) == 0 {
		return false
	}
	bare := paths.StripQuery(p)
	for _, g := range f.ignore {
		if g.Match(bare) {
			return true
		}
	}
	return false
}

// whitelisted applies the file-type filter. Paths without an extension are
// directory candidates and always pass, except files from a listing, which
// need a whitelisted extension.
func (f *Frontier) whitelisted(p string, kind Kind) bool {
	if len(f.fileTypes) == 0 {
		return true
	}
	if !paths.HasExtension(p) {
		return kind != KindFile
	}
	_, ok := f.fileTypes[paths.Extension(p)]
	return ok
}

func normalizeFileTypes(types []string) map[string]struct{} {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}
