package paths

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		currentDir string
		ref        string
		want       string
	}{
		{name: "single level up", currentDir: "/a/b/", ref: "../c", want: "/a/c/"},
		{name: "dot slash keeps file", currentDir: "/a/b/", ref: "./d.html", want: "/a/b/d.html"},
		{name: "root anchored ignores current dir", currentDir: "/a/b/", ref: "/x/y", want: "/x/y"},
		{name: "root anchored directory", currentDir: "/a/b/", ref: "/x/", want: "/x/"},
		{name: "two levels up", currentDir: "/a/b/c/", ref: "../../d.html", want: "/a/d.html"},
		{name: "walking up stops at root", currentDir: "/a/", ref: "../../../x.html", want: "/x.html"},
		{name: "bare parent", currentDir: "/a/b/", ref: "..", want: "/a/"},
		{name: "bare dot", currentDir: "/a/b/", ref: ".", want: "/a/b/"},
		{name: "empty reference is root", currentDir: "/a/b/", ref: "", want: "/"},
		{name: "two character first segment", currentDir: "/a/b/", ref: "en/about", want: "/en/about/"},
		{name: "two character file is not anchored", currentDir: "/a/", ref: "ab.html", want: "/a/ab.html"},
		{name: "relative file", currentDir: "/a/", ref: "page.html", want: "/a/page.html"},
		{name: "relative directory gets slash", currentDir: "/a/", ref: "docs", want: "/a/docs/"},
		{name: "query string is kept", currentDir: "/a/", ref: "page.php?id=1", want: "/a/page.php?id=1"},
		{name: "query without extension keeps no slash", currentDir: "/a/", ref: "list?p=2", want: "/a/list?p=2"},
		{name: "inner dot segments removed", currentDir: "/a/", ref: "b/./c/../d.html", want: "/a/b/d.html"},
		{name: "current dir without trailing slash", currentDir: "/a/b", ref: "c.html", want: "/a/b/c.html"},
		{name: "repeated slashes collapse", currentDir: "/a//", ref: "b//c.htm", want: "/a/b/c.htm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(tt.currentDir, tt.ref)
			if err != nil {
				t.Fatalf("Resolve(%q, %q) returned error: %v", tt.currentDir, tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.currentDir, tt.ref, got, tt.want)
			}
		})
	}
}

func TestResolveMalformed(t *testing.T) {
	t.Parallel()

	refs := []string{
		"http://example.com/",
		"mailto:someone@example.com",
		"#top",
		"page.html#section",
		"javascript:void(0)",
	}

	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			t.Parallel()

			_, err := Resolve("/", ref)
			if !errors.Is(err, ErrMalformedReference) {
				t.Errorf("expected ErrMalformedReference for %q, got %v", ref, err)
			}
		})
	}
}

func TestResolveIsStable(t *testing.T) {
	t.Parallel()

	// A resolved path fed back in as a root-anchored reference must not change.
	inputs := []struct{ dir, ref string }{
		{"/a/b/", "../c"},
		{"/a/", "x.html"},
		{"/", "en/index.php?lang=en"},
		{"/deep/er/", "./still/deeper"},
	}
	for _, in := range inputs {
		first, err := Resolve(in.dir, in.ref)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := Resolve("/elsewhere/", first)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first != second {
			t.Errorf("re-resolving %q gave %q", first, second)
		}
	}
}

func TestDir(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/":                 "/",
		"":                  "/",
		"/a/":               "/a/",
		"/a/b.html":         "/a/",
		"/a/b/c.php?x=/y/z": "/a/b/",
		"/index.html":       "/",
		"/a/list?page=2":    "/a/",
		"/a/b/?sort=asc":    "/a/b/",
	}
	for in, want := range tests {
		if got := Dir(in); got != want {
			t.Errorf("Dir(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		hasExt bool
		ext    string
	}{
		{path: "/a/b.HTML", hasExt: true, ext: "html"},
		{path: "/a/b.tar.gz", hasExt: true, ext: "gz"},
		{path: "/a/b", hasExt: false, ext: ""},
		{path: "/a.d/", hasExt: false, ext: ""},
		{path: "/a/page.php?next=x.html", hasExt: true, ext: "php"},
		{path: "/a/list?file=x.html", hasExt: false, ext: ""},
	}
	for _, tt := range tests {
		if got := HasExtension(tt.path); got != tt.hasExt {
			t.Errorf("HasExtension(%q) = %v, want %v", tt.path, got, tt.hasExt)
		}
		if got := Extension(tt.path); got != tt.ext {
			t.Errorf("Extension(%q) = %q, want %q", tt.path, got, tt.ext)
		}
	}
}

func TestSegmentsAndAsDir(t *testing.T) {
	t.Parallel()

	segs := Segments("/a//b/c.html?x=/d")
	want := []string{"a", "b", "c.html"}
	if len(segs) != len(want) {
		t.Fatalf("Segments returned %v, want %v", segs, want)
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Errorf("segment %d = %q, want %q", i, segs[i], want[i])
		}
	}

	if got := AsDir("/a/b"); got != "/a/b/" {
		t.Errorf("AsDir(/a/b) = %q", got)
	}
	if got := AsDir("/a/b/"); got != "/a/b/" {
		t.Errorf("AsDir(/a/b/) = %q", got)
	}
	if got := AsDir(""); got != "/" {
		t.Errorf("AsDir(\"\") = %q", got)
	}
	if !IsDir("/a/?x=1") || IsDir("/a/b.html") {
		t.Error("IsDir misclassified a path")
	}
}

func TestDirectoryLike(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{path: "/x/y", want: "/x/y/"},
		{path: "/x/y/", want: "/x/y/"},
		{path: "/x/y.html", want: "/x/y.html"},
		{path: "/list?p=2", want: "/list?p=2"},
		{path: "/", want: "/"},
	}

	for _, tt := range tests {
		if got := DirectoryLike(tt.path); got != tt.want {
			t.Errorf("DirectoryLike(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}

	// Resolve leaves a root-anchored reference as written; callers that
	// queue it apply DirectoryLike.
	got, err := Resolve("/a/b/", "/x/y")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/x/y" || DirectoryLike(got) != "/x/y/" {
		t.Errorf("Resolve(/a/b/, /x/y) = %q, DirectoryLike = %q", got, DirectoryLike(got))
	}
}
