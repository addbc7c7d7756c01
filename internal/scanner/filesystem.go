package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
)

// FileSystemScanner implements Scanner interface for a build directory
type FileSystemScanner struct{}

// NewFileSystemScanner creates a new filesystem scanner
func NewFileSystemScanner() *FileSystemScanner {
	return &FileSystemScanner{}
}

// Scan lists the regular files directly inside dir matching pattern, sorted
// by name
func (s *FileSystemScanner) Scan(ctx context.Context, dir, pattern string) ([]ScannedArtifact, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)

	var artifacts []ScannedArtifact
	for _, path := range matches {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		// Skip directories
		if info.IsDir() {
			continue
		}

		artifactType := s.DetectType(path)
		artifact := ScannedArtifact{
			Path: path,
			Type: artifactType,
			Size: info.Size(),
		}

		// Every matched file goes to the signing command, so a file that
		// cannot be read fails the scan
		signed, err := IsSigned(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if artifactType != TypeUnknown {
			artifact.Signed = signed
		}

		logrus.Debugf("Found %s artifact: %s", artifactType, path)
		artifacts = append(artifacts, artifact)
	}

	logrus.Infof("Found %d files matching %s in %s", len(artifacts), pattern, dir)
	return artifacts, nil
}

// DetectType determines the artifact type of a file
func (s *FileSystemScanner) DetectType(path string) ArtifactType {
	return DetectArtifactType(path)
}
