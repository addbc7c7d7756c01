package changes

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hybris-mobian/releng/internal/utils"
	"github.com/sirupsen/logrus"
)

// Verify checks every file referenced by the .changes file at path against
// the recorded sizes and digests. Referenced files are looked up next to
// the .changes file.
func Verify(path string) error {
	c, err := ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c.Verify(filepath.Dir(path))
}

// Verify checks the referenced files in dir
func (c *Changes) Verify(dir string) error {
	sums := make(map[string]*utils.Checksum)

	algorithms := make([]string, 0, len(c.Checksums))
	for algorithm := range c.Checksums {
		algorithms = append(algorithms, algorithm)
	}
	sort.Strings(algorithms)

	var errs []error
	for _, algorithm := range algorithms {
		for _, entry := range c.Checksums[algorithm] {
			if filepath.Base(entry.Name) != entry.Name {
				errs = append(errs, fmt.Errorf("%s: file name must not contain a path", entry.Name))
				continue
			}

			sum, seen := sums[entry.Name]
			if !seen {
				var err error
				sum, err = utils.CalculateChecksums(filepath.Join(dir, entry.Name))
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", entry.Name, err))
				}
				sums[entry.Name] = sum
			}
			// Unreadable files are reported once
			if sum == nil {
				continue
			}

			if sum.Size != entry.Size {
				errs = append(errs, fmt.Errorf("%s: size %d, expected %d", entry.Name, sum.Size, entry.Size))
				continue
			}

			digest, err := sum.Digest(algorithm)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if digest != entry.Digest {
				errs = append(errs, fmt.Errorf("%s: %s mismatch", entry.Name, algorithm))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logrus.Debugf("Verified %d files for %s %s", len(sums), c.Source, c.Version)
	return nil
}
