// Package semverx wraps Masterminds/semver/v3 with the one operation the
// registry needs: picking the maximally satisfying version among a set of
// candidates for a requested range.
package semverx

import (
	"sort"

	"github.com/Masterminds/semver/v3"
)

// ErrNoSatisfying-style signalling is left to callers (pkg/registry
// defines the typed error); this package only reports success/failure.

// MaxSatisfying returns the greatest version in candidates (by semver
// ordering) that satisfies range, and true. If no candidate satisfies, or
// candidates/range don't parse as semver, it returns ("", false).
func MaxSatisfying(candidates []string, rangeStr string) (string, bool) {
	c, err := semver.NewConstraint(rangeStr)
	if err != nil {
		return "", false
	}

	var versions []*semver.Version
	for _, raw := range candidates {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if c.Check(v) {
			versions = append(versions, v)
		}
	}
	if len(versions) == 0 {
		return "", false
	}

	sort.Sort(semver.Collection(versions))
	return versions[len(versions)-1].Original(), true
}
