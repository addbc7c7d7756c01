package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hybris-mobian/releng/internal/models"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// SigningFromEnv builds the signing invoker's configuration, reading the key
// id and payload once from the environment.
func (c *Config) SigningFromEnv(lookup LookupFunc) (*models.SigningConfig, error) {
	s := c.Signing

	keyID, _ := lookup(s.KeyIDEnv)
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return nil, fmt.Errorf("%s is not set", s.KeyIDEnv)
	}

	key, _ := lookup(s.KeyEnv)
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%s is not set", s.KeyEnv)
	}

	profile, err := ExpandHome(s.ProfilePath, lookup)
	if err != nil {
		return nil, err
	}

	return &models.SigningConfig{
		KeyID:        keyID,
		Key:          key,
		BuildDir:     s.BuildDir,
		Pattern:      s.Pattern,
		ProfilePath:  profile,
		GPGCommand:   s.GPGCommand,
		SignCommand:  s.SignCommand,
		VerifyChecks: true,
	}, nil
}

// BuildContextFromEnv returns the build context Drone exposes to a step.
func BuildContextFromEnv(lookup LookupFunc) models.BuildContext {
	event, _ := lookup("DRONE_BUILD_EVENT")
	branch, ok := lookup("DRONE_BRANCH")
	if !ok {
		branch, _ = lookup("DRONE_COMMIT_BRANCH")
	}
	ref, _ := lookup("DRONE_COMMIT_REF")

	return models.BuildContext{
		Event:  models.EventKind(event),
		Branch: branch,
		Ref:    ref,
	}
}

// ExpandHome replaces a leading "~" with the invoking user's home directory.
func ExpandHome(path string, lookup LookupFunc) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, ok := lookup("HOME")
	if !ok || home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot expand %s: %w", path, err)
		}
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
