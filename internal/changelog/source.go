package changelog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// sourceName reads the source package name from debian/control
func sourceName(dir string) (string, error) {
	path := filepath.Join(dir, "debian", "control")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("unable to find debian/control")
		}
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if name, ok := strings.CutPrefix(scanner.Text(), "Source: "); ok {
			return strings.TrimSpace(name), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", fmt.Errorf("unable to determine the source package name")
}

// isNative reports whether debian/source/format declares a native package
func isNative(dir string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, "debian", "source", "format"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("unable to find debian/source/format")
		}
		return false, err
	}
	return strings.TrimSpace(string(data)) != "3.0 (quilt)", nil
}

// changelogVersion returns the version of the topmost entry of an existing
// debian/changelog
func changelogVersion(dir string) (string, bool) {
	f, err := os.Open(filepath.Join(dir, "debian", "changelog"))
	if err != nil {
		return "", false
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}

	// name (version) release; urgency=...
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	version := strings.TrimSuffix(strings.TrimPrefix(fields[1], "("), ")")
	if version == "" {
		return "", false
	}
	return version, true
}
