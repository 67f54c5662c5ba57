// Package vpath implements the versioned-path grammar shared by the
// rewriter and the runtime registry: name@version[/subpath], where name
// may carry a @scope/ prefix.
package vpath

import (
	"fmt"
	"regexp"
	"strings"
)

// grammarRe mirrors the spec's external grammar:
// ^(@[^/]+/)?[^/@]+@[^/]+(/.*)?$
// The optional scope group cannot span a "/" and the bare-name group
// excludes "@" and "/", so "@scope/pkg@1.0.0/lib/x.js" splits as
// pkg="@scope/pkg", version="1.0.0", sub="/lib/x.js" rather than letting
// the bare-name group swallow the scope.
var grammarRe = regexp.MustCompile(`^(@[^/]+/)?([^/@]+)@([^/]+)(/.*)?$`)

// Path is a parsed versioned-path identifier. Version holds an exact
// semver version on a definition side or a semver range on a require
// side; Path itself doesn't distinguish the two, callers do.
type Path struct {
	Pkg     string // may begin with "@scope/"
	Version string
	Sub     string // "" or a string beginning with "/"
}

// Parse decodes s into a Path, or returns false if s doesn't match the
// grammar. Parse is total: it never panics on malformed input.
func Parse(s string) (Path, bool) {
	m := grammarRe.FindStringSubmatch(s)
	if m == nil {
		return Path{}, false
	}
	pkg := m[1] + m[2]
	return Path{Pkg: pkg, Version: m[3], Sub: m[4]}, true
}

// Format renders p back to its canonical string form. Format(Parse(s)) ==
// s for every valid s — Parse and Format are inverses.
func Format(p Path) string {
	return p.Pkg + "@" + p.Version + p.Sub
}

// MustFormat is Format but panics on an obviously-invalid Path (empty Pkg
// or Version); useful in the rewriter where the inputs are already
// validated package/version strings.
func MustFormat(p Path) string {
	if p.Pkg == "" || p.Version == "" {
		panic(fmt.Sprintf("vpath: invalid path %+v", p))
	}
	return Format(p)
}

// WithSub returns a copy of p with Sub replaced, normalizing a leading
// slash onto non-empty subpaths.
func WithSub(p Path, sub string) Path {
	if sub != "" && !strings.HasPrefix(sub, "/") {
		sub = "/" + sub
	}
	p.Sub = sub
	return p
}
