package scanner

import (
	"bytes"
	"os"
	"path/filepath"
)

// Cleartext signed deb822 files (.changes, .dsc, .buildinfo)
var signedMagic = []byte("-----BEGIN PGP SIGNED MESSAGE-----")

// DetectArtifactType determines the artifact type from the file extension.
// The file is not opened, so empty or unreadable files are still typed.
func DetectArtifactType(path string) ArtifactType {
	switch filepath.Ext(path) {
	case ".changes":
		return TypeChanges
	case ".buildinfo":
		return TypeBuildInfo
	case ".dsc":
		return TypeDsc
	default:
		return TypeUnknown
	}
}

// IsSigned reports whether a deb822 descriptor already carries a cleartext
// signature
func IsSigned(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, len(signedMagic))
	n, _ := f.Read(header)
	return bytes.Equal(header[:n], signedMagic), nil
}
