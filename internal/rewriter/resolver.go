package rewriter

import (
	"path/filepath"
	"strings"

	"github.com/jupyter/extension-builder/internal/pkgprobe"
	"github.com/jupyter/extension-builder/internal/vpath"
)

// Resolver supplies the two path shapes the rewriter needs per module
// (spec §4.2): a module's own exact-version definePath, and the
// semver-ranged require path from one module (issuer) to another
// (target). Abstracted behind an interface so tests can supply fixtures
// without touching a real filesystem.
type Resolver interface {
	VersionPath(sourcePath string) (vpath.Path, error)
	SemverPath(issuerSourcePath, targetSourcePath string) (vpath.Path, error)
}

// FSResolver is the default Resolver, backed by pkgprobe walking real
// package.json files under ProjectRoot.
type FSResolver struct {
	ProjectRoot string
}

func (r FSResolver) VersionPath(sourcePath string) (vpath.Path, error) {
	desc, err := pkgprobe.Probe(sourcePath, r.ProjectRoot)
	if err != nil {
		return vpath.Path{}, err
	}
	return vpath.Path{
		Pkg:     desc.Name,
		Version: desc.Version,
		Sub:     subpath(desc.Dir, sourcePath),
	}, nil
}

func (r FSResolver) SemverPath(issuerSourcePath, targetSourcePath string) (vpath.Path, error) {
	issuer, err := pkgprobe.Probe(issuerSourcePath, r.ProjectRoot)
	if err != nil {
		return vpath.Path{}, err
	}
	target, err := pkgprobe.Probe(targetSourcePath, r.ProjectRoot)
	if err != nil {
		return vpath.Path{}, err
	}
	rng, err := pkgprobe.RangeFor(issuer, issuer.Version, target.Name, pkgprobe.DefaultFileLinkResolver)
	if err != nil {
		return vpath.Path{}, err
	}
	return vpath.Path{
		Pkg:     target.Name,
		Version: rng,
		Sub:     subpath(target.Dir, targetSourcePath),
	}, nil
}

// subpath renders the "/"-separated path of file relative to pkgDir,
// with a leading slash, or "" if file *is* pkgDir's main entry with no
// meaningful subpath (never the case here since file is always a
// concrete source file, but we still normalize separators for
// non-Unix build hosts).
func subpath(pkgDir, file string) string {
	rel, err := filepath.Rel(pkgDir, file)
	if err != nil {
		rel = filepath.Base(file)
	}
	rel = filepath.ToSlash(rel)
	if rel == "" || rel == "." {
		return ""
	}
	return "/" + strings.TrimPrefix(rel, "/")
}
