package pkgprobe

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileLinkResolver reads the version field out of the package.json at
// linkDir, used to resolve `file:`-prefixed dependency declarations.
type FileLinkResolver func(linkDir string) (version string, err error)

// RangeFor computes the semver range an issuer module should use when
// requiring targetPkg, applying the two overrides from spec §4.2:
//
//  1. issuer and target are the same package: "~issuerExactVersion"
//     (allow patch upgrades of self, regardless of any declared range).
//  2. issuer declares a filesystem link ("file:...") to the target: read
//     the target's on-disk version and use "~thatVersion".
//
// Otherwise the range is used literally, as declared in issuer's
// dependency list. Returns an error if targetPkg isn't declared there
// and neither override applies.
func RangeFor(issuer Descriptor, issuerExactVersion, targetPkg string, resolve FileLinkResolver) (string, error) {
	if issuer.Name == targetPkg {
		return "~" + issuerExactVersion, nil
	}

	declared, ok := issuer.Dependencies[targetPkg]
	if !ok {
		return "", fmt.Errorf("pkgprobe: %s does not declare a dependency on %s", issuer.Name, targetPkg)
	}

	if linkDir, isFileLink := strings.CutPrefix(declared, "file:"); isFileLink {
		if !filepath.IsAbs(linkDir) {
			linkDir = filepath.Join(issuer.Dir, linkDir)
		}
		version, err := resolve(linkDir)
		if err != nil {
			return "", fmt.Errorf("pkgprobe: resolving file-linked dependency %s: %w", targetPkg, err)
		}
		return "~" + version, nil
	}

	return declared, nil
}

// DefaultFileLinkResolver reads version from the package.json at linkDir.
func DefaultFileLinkResolver(linkDir string) (string, error) {
	desc, err := readDescriptor(linkDir)
	if err != nil {
		return "", err
	}
	return desc.Version, nil
}
