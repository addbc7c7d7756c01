package utils

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Checksum contains the digests a Debian .changes file can reference
type Checksum struct {
	MD5    string
	SHA1   string
	SHA256 string
	SHA512 string
	Size   int64
}

// CalculateChecksums calculates all checksums for a file in a single pass
func CalculateChecksums(path string) (*Checksum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	md5Hash := md5.New()
	sha1Hash := sha1.New()
	sha256Hash := sha256.New()
	sha512Hash := sha512.New()

	// Stream file through all hashes
	size, err := io.Copy(io.MultiWriter(md5Hash, sha1Hash, sha256Hash, sha512Hash), f)
	if err != nil {
		return nil, err
	}

	return &Checksum{
		MD5:    hex.EncodeToString(md5Hash.Sum(nil)),
		SHA1:   hex.EncodeToString(sha1Hash.Sum(nil)),
		SHA256: hex.EncodeToString(sha256Hash.Sum(nil)),
		SHA512: hex.EncodeToString(sha512Hash.Sum(nil)),
		Size:   size,
	}, nil
}

// Digest returns the hex digest for an algorithm name as used in deb822
// field names ("md5", "sha1", "sha256", "sha512")
func (c *Checksum) Digest(algorithm string) (string, error) {
	switch strings.ToLower(algorithm) {
	case "md5":
		return c.MD5, nil
	case "sha1":
		return c.SHA1, nil
	case "sha256":
		return c.SHA256, nil
	case "sha512":
		return c.SHA512, nil
	default:
		return "", fmt.Errorf("unsupported checksum algorithm %q", algorithm)
	}
}
