package changelog

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var notAllowedRe = regexp.MustCompile(`[^a-z0-9_]+`)

// slugify lower-cases s and replaces every run of characters not allowed in
// a version suffix with a dot
func slugify(s string) string {
	return notAllowedRe.ReplaceAllString(strings.ToLower(s), ".")
}

// sanitizeTagVersion maps the characters git refs cannot carry back to
// their Debian version equivalents
func sanitizeTagVersion(version string) string {
	return strings.NewReplacer("_", "~", "%", ":").Replace(version)
}

// splitTag splits "release/version" as found in prefixed tag names
func splitTag(tag string) (release, version string) {
	release, version, _ = strings.Cut(tag, "/")
	return release, version
}

// newerTag reports whether tag a carries a higher version than tag b.
// Versions that do not parse as semver are compared lexically.
func newerTag(a, b string) bool {
	_, va := splitTag(a)
	_, vb := splitTag(b)

	sa, errA := semver.NewVersion(sanitizeTagVersion(va))
	sb, errB := semver.NewVersion(sanitizeTagVersion(vb))
	if errA == nil && errB == nil && !sa.Equal(sb) {
		return sa.GreaterThan(sb)
	}
	return a > b
}
