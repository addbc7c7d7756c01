// Package changes reads Debian .changes files and checks the artifacts they
// describe.
package changes

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FileEntry is one line of a Files or Checksums-* field
type FileEntry struct {
	Name   string
	Size   int64
	Digest string
}

// Changes holds the fields of a .changes file relevant for signing
type Changes struct {
	Source       string
	Version      string
	Distribution string
	Architecture []string
	Maintainer   string

	// Checksums maps an algorithm ("md5", "sha1", "sha256") to its entries
	Checksums map[string][]FileEntry

	// Fields keeps every field as written, continuation lines joined by "\n"
	Fields map[string]string
}

// checksumFields maps deb822 field names to algorithm names
var checksumFields = map[string]string{
	"Files":            "md5",
	"Checksums-Sha1":   "sha1",
	"Checksums-Sha256": "sha256",
	"Checksums-Sha512": "sha512",
}

// ParseFile parses a .changes file, signed or not
func ParseFile(path string) (*Changes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses the deb822 content of a .changes file
func Parse(data []byte) (*Changes, error) {
	fields, err := parseFields(stripSignature(data))
	if err != nil {
		return nil, err
	}

	c := &Changes{
		Source:       fields["Source"],
		Version:      fields["Version"],
		Distribution: fields["Distribution"],
		Architecture: strings.Fields(fields["Architecture"]),
		Maintainer:   fields["Maintainer"],
		Checksums:    make(map[string][]FileEntry),
		Fields:       fields,
	}

	for field, algorithm := range checksumFields {
		value, ok := fields[field]
		if !ok {
			continue
		}
		entries, err := parseFileEntries(value, field == "Files")
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", field, err)
		}
		c.Checksums[algorithm] = entries
	}

	if len(c.Checksums) == 0 {
		return nil, fmt.Errorf("no Files or Checksums fields found")
	}

	return c, nil
}

// stripSignature returns the signed payload of a cleartext signed message,
// or data unchanged when it is not signed
func stripSignature(data []byte) []byte {
	if !bytes.HasPrefix(data, []byte("-----BEGIN PGP SIGNED MESSAGE-----")) {
		return data
	}

	// Armor headers end at the first blank line
	start := bytes.Index(data, []byte("\n\n"))
	if start < 0 {
		return data
	}
	body := data[start+2:]

	if end := bytes.Index(body, []byte("\n-----BEGIN PGP SIGNATURE-----")); end >= 0 {
		body = body[:end+1]
	}
	return body
}

// parseFields parses a single deb822 paragraph
func parseFields(data []byte) (map[string]string, error) {
	fields := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var currentKey string
	var currentValue strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		// Handle continuation lines (start with space)
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if currentKey == "" {
				return nil, fmt.Errorf("continuation line without a field: %q", line)
			}
			currentValue.WriteString("\n")
			currentValue.WriteString(strings.TrimSpace(line))
			continue
		}

		// Save previous key-value pair
		if currentKey != "" {
			fields[currentKey] = currentValue.String()
			currentKey = ""
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed line: %q", line)
		}
		currentKey = strings.TrimSpace(key)
		currentValue.Reset()
		currentValue.WriteString(strings.TrimSpace(value))
	}

	// Save last key-value pair
	if currentKey != "" {
		fields[currentKey] = currentValue.String()
	}

	return fields, scanner.Err()
}

// parseFileEntries parses the lines of a Files or Checksums-* field. Files
// lines carry two extra columns (section and priority) before the name.
func parseFileEntries(value string, withSection bool) ([]FileEntry, error) {
	want := 3
	if withSection {
		want = 5
	}

	var entries []FileEntry
	for _, line := range strings.Split(value, "\n") {
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		if len(parts) != want {
			return nil, fmt.Errorf("expected %d columns, got %d in %q", want, len(parts), line)
		}

		size, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid size in %q: %w", line, err)
		}

		entries = append(entries, FileEntry{
			Digest: parts[0],
			Size:   size,
			Name:   parts[len(parts)-1],
		})
	}
	return entries, nil
}
