// Package pkgprobe walks a filesystem tree upward from a source file to
// find the nearest package descriptor that can be used as a module's
// publishable identity — the version-path and semver-path rules of
// spec §4.2.
package pkgprobe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNotInPackage is returned when ascent reaches the filesystem root
// without finding an accepted descriptor.
var ErrNotInPackage = errors.New("pkgprobe: not in package")

// Descriptor is the subset of package.json this probe needs. Shape
// validation beyond these fields is the host application's concern
// (out of scope per spec §1).
type Descriptor struct {
	Dir          string            // absolute directory containing package.json
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Private      bool              `json:"private"`
	Dependencies map[string]string `json:"dependencies"`
	// WorkspaceGlobs lists doublestar glob patterns (e.g. "packages/*")
	// under which nested package.json files are treated as workspace
	// members rather than independent publishable packages. Unused by
	// the acceptance rule itself (which only cares about Private and
	// root-equality) but available to callers that want to distinguish
	// workspace members for diagnostics.
	WorkspaceGlobs []string `json:"workspaces"`
}

// Probe ascends from the directory containing srcPath (an absolute file
// path) looking for a package.json. A candidate is accepted if it is not
// Private, or if its directory equals projectRoot — this lets the local
// workspace root's own (possibly private) package provide a name/version
// while rejecting private intermediate workspaces. Fails with
// ErrNotInPackage if the filesystem root is reached without acceptance.
func Probe(srcPath, projectRoot string) (Descriptor, error) {
	dir := filepath.Dir(srcPath)
	projectRoot = filepath.Clean(projectRoot)

	for {
		desc, err := readDescriptor(dir)
		if err == nil {
			if !desc.Private || dir == projectRoot {
				return desc, nil
			}
		} else if !os.IsNotExist(err) {
			return Descriptor{}, fmt.Errorf("pkgprobe: reading %s: %w", dir, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Descriptor{}, fmt.Errorf("%w: %s", ErrNotInPackage, srcPath)
		}
		dir = parent
	}
}

func readDescriptor(dir string) (Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return Descriptor{}, err
	}
	var desc Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return Descriptor{}, fmt.Errorf("parsing package.json in %s: %w", dir, err)
	}
	desc.Dir = dir
	return desc, nil
}

// IsWorkspaceMember reports whether dir (relative to the owning
// descriptor's directory) matches one of desc's workspace globs.
func IsWorkspaceMember(desc Descriptor, relDir string) bool {
	for _, pattern := range desc.WorkspaceGlobs {
		ok, err := doublestar.Match(pattern, relDir)
		if err == nil && ok {
			return true
		}
		// A relDir one level below a directory the glob matches (e.g.
		// "packages/a/src" for "packages/*") also counts as a member.
		if ok, err := doublestar.Match(strings.TrimSuffix(pattern, "/")+"/*", relDir); err == nil && ok {
			return true
		}
	}
	return false
}
