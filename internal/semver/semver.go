package semver

import (
	"fmt"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a semantic version.
//
// This is a thin wrapper around github.com/Masterminds/semver/v3.
type Version struct {
	v *mm.Version
}

// Policy reports whether an already available candidate version can serve a
// request for the requested version.
type Policy func(requested, candidate Version) bool

func ParseVersion(raw string) (Version, error) {
	v, err := mm.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool {
	return v.v == nil
}

func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// Compare compares a and b, returning:
// -1 if a < b
//
//	0 if a == b
//	1 if a > b
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}

// Equivalent is the default module policy. A candidate serves a request when
// the majors match exactly and neither the requested minor nor the requested
// patch is newer than the candidate's.
//
// A zero requested version accepts any candidate.
func Equivalent(requested, candidate Version) bool {
	if requested.v == nil {
		return true
	}
	if candidate.v == nil {
		return false
	}
	return requested.v.Major() == candidate.v.Major() &&
		requested.v.Minor() <= candidate.v.Minor() &&
		requested.v.Patch() <= candidate.v.Patch()
}

// Exact only accepts the identical version.
func Exact(requested, candidate Version) bool {
	if requested.v == nil {
		return true
	}
	return Compare(requested, candidate) == 0
}

// MaxMatching returns the highest candidate that p accepts for requested.
//
// If multiple versions are equal, the first encountered wins.
func MaxMatching(p Policy, requested Version, candidates []Version) (Version, bool) {
	if p == nil {
		p = Equivalent
	}
	var best Version
	found := false
	for _, candidate := range candidates {
		if !p(requested, candidate) {
			continue
		}
		if !found || Compare(candidate, best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}
