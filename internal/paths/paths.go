package paths

import (
	"fmt"
	"strings"
)

// Root is the path of the crawl root.
const Root = "/"

// Resolve converts a raw reference found on the page living in currentDir
// into a root-relative path.
//
// Rules, in order:
//   - "../" groups walk up from currentDir (never above the root), then the
//     remainder is appended.
//   - "./" is stripped and the remainder appended to currentDir.
//   - An empty reference is the root; a reference starting with "/" is used
//     as-is apart from dot-segment removal.
//   - A reference whose first segment is exactly two characters long
//     (drive letters, language codes) is anchored at the root.
//   - Anything else is appended to currentDir.
//
// Relative results without an extension or query string get a trailing "/".
func Resolve(currentDir, ref string) (string, error) {
	if strings.ContainsAny(ref, ":#") {
		return "", fmt.Errorf("%w: %q", ErrMalformedReference, ref)
	}

	base := normalizeDir(currentDir)

	switch {
	case ref == ".." || strings.HasPrefix(ref, "../"):
		ups := 0
		rest := ref
		for strings.HasPrefix(rest, "../") {
			ups++
			rest = rest[len("../"):]
		}
		if rest == ".." {
			ups++
			rest = ""
		}
		return DirectoryLike(Clean(up(base, ups) + rest)), nil

	case ref == "." || strings.HasPrefix(ref, "./"):
		rest := ref
		for strings.HasPrefix(rest, "./") {
			rest = rest[len("./"):]
		}
		if rest == "." {
			rest = ""
		}
		return DirectoryLike(Clean(base + rest)), nil

	case ref == "":
		return Root, nil

	case strings.HasPrefix(ref, "/"):
		return Clean(ref), nil

	case len(firstSegment(ref)) == 2:
		return DirectoryLike(Clean("/" + ref)), nil
	}

	return DirectoryLike(Clean(base + ref)), nil
}

// Clean removes "." and ".." segments, collapses repeated slashes and makes
// sure the result starts with "/". A trailing "/" and the query string are
// kept.
func Clean(p string) string {
	path, query := splitQuery(p)

	trailing := strings.HasSuffix(path, "/")
	out := make([]string, 0, strings.Count(path, "/"))
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, seg)
	}

	cleaned := "/" + strings.Join(out, "/")
	if trailing && len(out) > 0 {
		cleaned += "/"
	}
	if query != "" {
		cleaned += "?" + query
	}
	return cleaned
}

// Dir returns the directory a page lives in. Directory paths are returned
// unchanged, file paths lose their last segment. The query string is
// ignored.
func Dir(page string) string {
	p := StripQuery(page)
	if p == "" {
		return Root
	}
	if strings.HasSuffix(p, "/") {
		return p
	}
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return Root
	}
	return p[:i+1]
}

// StripQuery drops everything from the first "?" on.
func StripQuery(p string) string {
	path, _ := splitQuery(p)
	return path
}

// HasQuery reports whether p carries a query string.
func HasQuery(p string) bool {
	return strings.Contains(p, "?")
}

// Segments returns the non-empty "/"-separated segments of p, query removed.
func Segments(p string) []string {
	raw := strings.Split(StripQuery(p), "/")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// HasExtension reports whether the last segment of p contains a ".".
// Directory paths (ending in "/") never have an extension.
func HasExtension(p string) bool {
	return strings.Contains(lastSegment(p), ".")
}

// Extension returns the lower-cased text after the last "." of the final
// segment, or "" when there is none.
func Extension(p string) string {
	last := lastSegment(p)
	i := strings.LastIndex(last, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(last[i+1:])
}

// IsDir reports whether p is directory-like.
func IsDir(p string) bool {
	return strings.HasSuffix(StripQuery(p), "/")
}

// AsDir returns p with a trailing "/".
func AsDir(p string) string {
	c := Clean(p)
	if strings.HasSuffix(c, "/") || HasQuery(c) {
		return c
	}
	return c + "/"
}

// DirectoryLike appends "/" to p unless it already ends in one, carries a
// query string or has an extension.
func DirectoryLike(p string) string {
	if HasQuery(p) || strings.HasSuffix(p, "/") || HasExtension(p) {
		return p
	}
	return p + "/"
}

func normalizeDir(dir string) string {
	d := Clean(StripQuery(dir))
	if !strings.HasSuffix(d, "/") {
		d += "/"
	}
	return d
}

func up(dir string, n int) string {
	segs := Segments(dir)
	if n >= len(segs) {
		return Root
	}
	return "/" + strings.Join(segs[:len(segs)-n], "/") + "/"
}

func firstSegment(ref string) string {
	p := StripQuery(ref)
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i]
	}
	return p
}

func lastSegment(p string) string {
	path := StripQuery(p)
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func splitQuery(p string) (string, string) {
	if i := strings.Index(p, "?"); i >= 0 {
		return p[:i], p[i+1:]
	}
	return p, ""
}
