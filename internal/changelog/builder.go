// Package changelog generates a debian/changelog from the git history of a
// package repository. Prefixed release tags (hybris-mobian/<release>/<version>)
// split the history into changelog entries.
package changelog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sirupsen/logrus"
)

// Options control how the package version and release are derived
type Options struct {
	// Commit is the newest commit to include. Defaults to HEAD.
	Commit string
	// Tag specifies the version of the package, e.g.
	// hybris-mobian/bullseye/1.0.0. When empty the nearest tag is used.
	Tag       string
	TagPrefix string
	// Branch is the branch being built. Defaults to the current branch
	// unless Tag is set.
	Branch       string
	BranchPrefix string
	// Comment is slugified and appended to the version
	Comment string
}

// Package describes the source package being built
type Package struct {
	Name    string
	Native  bool
	Version string
	Release string
}

// Builder builds changelog entries for a repository
type Builder struct {
	repo *git.Repository
	dir  string
	opts Options

	head *object.Commit
	// tags maps a commit to its prefixed tag without the prefix
	tags map[plumbing.Hash]string

	version string
}

// Open opens the git repository in dir
func Open(dir string, opts Options) (*Builder, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to load git repository at %s: %w", dir, err)
	}

	b := &Builder{repo: repo, dir: dir, opts: opts}
	b.opts.Tag = strings.TrimPrefix(opts.Tag, "refs/tags/")

	if err := b.resolveHead(); err != nil {
		return nil, err
	}
	if err := b.loadTags(); err != nil {
		return nil, err
	}

	if b.opts.Branch == "" && b.opts.Tag == "" {
		ref, err := repo.Head()
		if err != nil {
			return nil, fmt.Errorf("failed to read HEAD: %w", err)
		}
		if !ref.Name().IsBranch() {
			return nil, fmt.Errorf("HEAD is detached, a branch or tag must be specified")
		}
		b.opts.Branch = ref.Name().Short()
	}

	return b, nil
}

func (b *Builder) resolveHead() error {
	rev := b.opts.Commit
	if rev == "" {
		rev = "HEAD"
	}

	hash, err := b.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", rev, err)
	}

	b.head, err = b.repo.CommitObject(*hash)
	if err != nil {
		return fmt.Errorf("failed to read commit %s: %w", hash, err)
	}
	return nil
}

// loadTags indexes every tag carrying the tag prefix by the commit it
// points at
func (b *Builder) loadTags() error {
	iter, err := b.repo.Tags()
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}

	b.tags = make(map[plumbing.Hash]string)
	return iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if !strings.HasPrefix(name, b.opts.TagPrefix) {
			return nil
		}

		hash := ref.Hash()
		// Annotated tags point at a tag object
		tag, err := b.repo.TagObject(hash)
		switch {
		case err == nil:
			commit, err := tag.Commit()
			if err != nil {
				logrus.Debugf("Ignoring tag %s: %v", name, err)
				return nil
			}
			hash = commit.Hash
		case !errors.Is(err, plumbing.ErrObjectNotFound):
			return fmt.Errorf("failed to read tag %s: %w", name, err)
		}

		version := strings.TrimPrefix(name, b.opts.TagPrefix)
		if existing, ok := b.tags[hash]; ok && !newerTag(version, existing) {
			return nil
		}
		b.tags[hash] = version
		return nil
	})
}

// Package returns the source package metadata
func (b *Builder) Package() (*Package, error) {
	name, err := sourceName(b.dir)
	if err != nil {
		return nil, err
	}
	native, err := isNative(b.dir)
	if err != nil {
		return nil, err
	}
	release, err := b.Release()
	if err != nil {
		return nil, err
	}
	version, err := b.Version()
	if err != nil {
		return nil, err
	}

	return &Package{Name: name, Native: native, Version: version, Release: release}, nil
}

// Release returns the target release, taken from the tag or the branch
func (b *Builder) Release() (string, error) {
	switch {
	case b.opts.Tag != "":
		release, _ := splitTag(strings.TrimPrefix(b.opts.Tag, b.opts.TagPrefix))
		return release, nil
	case b.opts.Branch != "":
		release, _ := splitTag(strings.TrimPrefix(b.opts.Branch, b.opts.BranchPrefix))
		return release, nil
	}
	return "", fmt.Errorf("at least one between tag and branch must be specified")
}

// Version returns the package version:
// <start>+git<YYYYMMDDhhmmss>.<short commit>.<comment>
func (b *Builder) Version() (string, error) {
	if b.version != "" {
		return b.version, nil
	}

	start, err := b.startingVersion()
	if err != nil {
		return "", err
	}

	comment := b.opts.Comment
	if b.opts.BranchPrefix != "" {
		comment = strings.ReplaceAll(comment, b.opts.BranchPrefix, "")
	}

	b.version = fmt.Sprintf("%s+git%s.%s.%s",
		start,
		b.head.Committer.When.UTC().Format("20060102150405"),
		b.head.Hash.String()[:7],
		slugify(comment),
	)
	return b.version, nil
}

// startingVersion picks the base version: the explicit tag, the nearest
// prefixed tag, the current debian/changelog, or 0.0.0
func (b *Builder) startingVersion() (string, error) {
	if b.opts.Tag != "" {
		segments := strings.Split(strings.TrimPrefix(b.opts.Tag, b.opts.TagPrefix), "/")
		return segments[len(segments)-1], nil
	}

	nearest, err := b.nearestTag()
	if err != nil {
		return "", err
	}
	if _, version := splitTag(nearest); version != "" {
		version, _, _ = strings.Cut(version, "/")
		logrus.Debugf("Using nearest tag %s%s", b.opts.TagPrefix, nearest)
		return version, nil
	}

	if version, ok := changelogVersion(b.dir); ok {
		logrus.Debugf("Using version %s from debian/changelog", version)
		return version, nil
	}

	return "0.0.0", nil
}

// nearestTag returns the newest prefixed tag reachable from the head commit
func (b *Builder) nearestTag() (string, error) {
	iter, err := b.repo.Log(&git.LogOptions{From: b.head.Hash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return "", fmt.Errorf("failed to walk history: %w", err)
	}
	defer iter.Close()

	var nearest string
	err = iter.ForEach(func(c *object.Commit) error {
		if tag, ok := b.tags[c.Hash]; ok {
			nearest = tag
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return "", err
	}
	return nearest, nil
}

var errStop = errors.New("stop")
