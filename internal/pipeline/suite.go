package pipeline

import (
	"strings"

	"github.com/hybris-mobian/releng/internal/config"
	"github.com/hybris-mobian/releng/internal/models"
	"github.com/sirupsen/logrus"
)

// Resolver decides which suite a build targets
type Resolver struct {
	cfg    config.PipelineConfig
	suites map[string]bool
}

// NewResolver creates a suite resolver for the given configuration
func NewResolver(cfg config.PipelineConfig) *Resolver {
	suites := make(map[string]bool, len(cfg.Suites))
	for _, suite := range cfg.Suites {
		suites[suite] = true
	}
	return &Resolver{cfg: cfg, suites: suites}
}

// ResolveSuite returns the suite for the build context, or false when the
// build does not target a supported suite.
func (r *Resolver) ResolveSuite(bc models.BuildContext) (string, bool) {
	candidate, ok := r.candidate(bc)
	if !ok {
		logrus.Debugf("No suite candidate for %s event on %q", bc.Event, bc.Branch)
		return "", false
	}

	if !r.suites[candidate] {
		logrus.Debugf("Suite %q is not supported", candidate)
		return "", false
	}

	return candidate, true
}

// candidate picks a suite name from the build context without checking it
// against the allow-list.
func (r *Resolver) candidate(bc models.BuildContext) (string, bool) {
	switch {
	case bc.Event == models.EventTag && strings.HasPrefix(bc.Ref, r.cfg.TagPrefix):
		tag := strings.TrimPrefix(bc.Ref, r.cfg.TagPrefix)
		if !r.enoughSeparators(tag) {
			return "", false
		}
		suite := firstSegment(tag)
		// A release tag must sit on the branch of the same name
		if bc.Branch != suite {
			logrus.Warnf("Tag %s targets %s but was built from branch %q", bc.Ref, suite, bc.Branch)
			return "", false
		}
		return suite, true

	case bc.Event == models.EventPush && r.cfg.FeatureBranchPrefix != "" &&
		strings.HasPrefix(bc.Branch, r.cfg.FeatureBranchPrefix):
		return firstSegment(strings.TrimPrefix(bc.Branch, r.cfg.FeatureBranchPrefix)), true

	case bc.Event == models.EventPush:
		return bc.Branch, true
	}

	return "", false
}

func (r *Resolver) enoughSeparators(tag string) bool {
	offset := r.cfg.TagSeparatorOffset
	if offset > len(tag) {
		return r.cfg.TagMinSeparators <= 0
	}
	return strings.Count(tag[offset:], "/") >= r.cfg.TagMinSeparators
}

func firstSegment(path string) string {
	segment, _, _ := strings.Cut(path, "/")
	return segment
}
