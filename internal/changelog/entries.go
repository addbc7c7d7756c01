package changelog

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hybris-mobian/releng/internal/utils"
	"github.com/sirupsen/logrus"
)

// Entry is a single debian/changelog entry
type Entry struct {
	Version string
	Release string
	// Changes holds the first line of every commit message, grouped by
	// author in order of appearance, oldest message first
	Changes []AuthorChanges
	Author  string
	Mail    string
	Date    time.Time
}

// AuthorChanges lists the changes of one author
type AuthorChanges struct {
	Author   string
	Messages []string
}

// pending accumulates commits until the next release boundary
type pending struct {
	entry Entry
	index map[string]int
}

func newPending(c *object.Commit) *pending {
	return &pending{
		entry: Entry{
			Author: c.Author.Name,
			Mail:   c.Author.Email,
			Date:   c.Committer.When,
		},
		index: make(map[string]int),
	}
}

func (p *pending) add(c *object.Commit) {
	i, ok := p.index[c.Author.Name]
	if !ok {
		i = len(p.entry.Changes)
		p.index[c.Author.Name] = i
		p.entry.Changes = append(p.entry.Changes, AuthorChanges{Author: c.Author.Name})
	}

	subject, _, _ := strings.Cut(c.Message, "\n")
	changes := &p.entry.Changes[i]
	changes.Messages = append([]string{subject}, changes.Messages...)
}

// Entries walks the history from the head commit and returns the changelog
// entries, newest first. Every prefixed tag and every root commit closes
// an entry.
func (b *Builder) Entries() ([]Entry, error) {
	release, err := b.Release()
	if err != nil {
		return nil, err
	}
	version, err := b.Version()
	if err != nil {
		return nil, err
	}

	iter, err := b.repo.Log(&git.LogOptions{From: b.head.Hash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history: %w", err)
	}
	defer iter.Close()

	nearest := release + "/" + version
	var entries []Entry
	var current *pending

	err = iter.ForEach(func(c *object.Commit) error {
		tag, tagged := b.tags[c.Hash]
		root := c.NumParents() == 0

		if (tagged && c.Hash != b.head.Hash) || root {
			if root {
				if current == nil {
					current = newPending(c)
				}
				current.add(c)
			}

			entryRelease, entryVersion := splitTag(nearest)
			current.entry.Release = entryRelease
			current.entry.Version = sanitizeTagVersion(entryVersion)
			entries = append(entries, current.entry)
			current = nil

			if root {
				return nil
			}
			nearest = tag
		}

		if current == nil {
			current = newPending(c)
		}
		current.add(c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Render writes entries in debian/changelog format
func Render(w io.Writer, name string, entries []Entry) error {
	for _, e := range entries {
		blocks := make([]string, 0, len(e.Changes))
		for _, changes := range e.Changes {
			lines := make([]string, len(changes.Messages))
			for i, message := range changes.Messages {
				lines[i] = "  * " + message
			}
			block := strings.Join(lines, "\n")
			if len(e.Changes) > 1 {
				block = fmt.Sprintf("  [ %s ]\n%s", changes.Author, block)
			}
			blocks = append(blocks, block)
		}

		_, err := fmt.Fprintf(w, "%s (%s) %s; urgency=medium\n\n%s\n\n -- %s <%s>  %s\n\n",
			name,
			e.Version,
			e.Release,
			strings.Join(blocks, "\n\n"),
			e.Author,
			e.Mail,
			e.Date.Format(time.RFC1123Z),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Write generates the changelog and writes it to path, relative paths
// being resolved against the repository. The version is computed before
// the file is replaced, since it may be read from the old changelog.
func (b *Builder) Write(path string) (*Package, error) {
	pkg, err := b.Package()
	if err != nil {
		return nil, err
	}
	logrus.Infof("Resulting version is %s", pkg.Version)
	logrus.Debugf("Source package %s (native: %v) for %s", pkg.Name, pkg.Native, pkg.Release)

	entries, err := b.Entries()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := Render(&buf, pkg.Name, entries); err != nil {
		return nil, err
	}

	if path == "" {
		path = filepath.Join("debian", "changelog")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.dir, path)
	}

	if err := utils.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	logrus.Infof("Wrote %d changelog entries to %s", len(entries), path)
	return pkg, nil
}
