package scanner

import "context"

// ArtifactType represents the type of a build output file
type ArtifactType int

const (
	TypeUnknown ArtifactType = iota
	TypeChanges
	TypeBuildInfo
	TypeDsc
)

// String returns the string representation of ArtifactType
func (at ArtifactType) String() string {
	switch at {
	case TypeChanges:
		return "changes"
	case TypeBuildInfo:
		return "buildinfo"
	case TypeDsc:
		return "dsc"
	default:
		return "unknown"
	}
}

// ScannedArtifact represents a build output found during scanning
type ScannedArtifact struct {
	Path string
	Type ArtifactType
	Size int64
	// Signed is set for descriptor files that already carry a cleartext
	// signature
	Signed bool
}

// Scanner interface for locating build outputs
type Scanner interface {
	// Scan lists the files in dir whose name matches pattern
	Scan(ctx context.Context, dir, pattern string) ([]ScannedArtifact, error)

	// DetectType determines the artifact type of a file
	DetectType(path string) ArtifactType
}
