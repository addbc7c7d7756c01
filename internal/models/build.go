package models

// EventKind is the CI event that triggered a build
type EventKind string

const (
	EventTag  EventKind = "tag"
	EventPush EventKind = "push"
)

// BuildContext describes the build as reported by the CI system
type BuildContext struct {
	Event  EventKind
	Branch string
	// Ref is the full git ref, e.g. refs/tags/hybris-mobian/bullseye/1.0.0.
	// Only meaningful for tag events.
	Ref string
}

// ArchRequest lists the architectures to build for.
// Primary is the architecture that performs the full build; when empty it
// defaults to the first element of Architectures.
type ArchRequest struct {
	Architectures []string
	Primary       string
}

// PrimaryArch returns the architecture marked for the full build
func (r ArchRequest) PrimaryArch() string {
	if r.Primary != "" {
		return r.Primary
	}
	if len(r.Architectures) > 0 {
		return r.Architectures[0]
	}
	return ""
}
