// Package config loads the releng configuration file and applies the
// environment the CI system hands to each build.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Default configuration files, tried in order when no path is given.
var defaultConfigFiles = []string{".releng.yml", ".releng.yaml", ".releng.toml"}

// Config is the top-level releng configuration.
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" toml:"pipeline"`
	Signing   SigningConfig   `yaml:"signing" toml:"signing"`
	Changelog ChangelogConfig `yaml:"changelog" toml:"changelog"`
}

// PipelineConfig drives suite resolution and pipeline generation.
type PipelineConfig struct {
	// Suites is the supported-suite allow-list.
	Suites []string `yaml:"suites" toml:"suites"`
	// Architectures is the supported-architecture allow-list.
	Architectures []string `yaml:"architectures" toml:"architectures"`
	// DefaultArchitectures is requested when the caller names none.
	DefaultArchitectures []string `yaml:"default_architectures" toml:"default_architectures"`
	// DroneArch maps a Debian architecture to the Drone platform arch.
	DroneArch map[string]string `yaml:"drone_arch" toml:"drone_arch"`

	TagPrefix           string `yaml:"tag_prefix" toml:"tag_prefix"`
	FeatureBranchPrefix string `yaml:"feature_branch_prefix" toml:"feature_branch_prefix"`

	// A tag is considered only if the part after TagPrefix holds at least
	// TagMinSeparators "/" at or after offset TagSeparatorOffset.
	TagSeparatorOffset int `yaml:"tag_separator_offset" toml:"tag_separator_offset"`
	TagMinSeparators   int `yaml:"tag_min_separators" toml:"tag_min_separators"`

	// ImageTemplate and Commands accept {suite} and {arch} placeholders.
	ImageTemplate string   `yaml:"image" toml:"image"`
	StepName      string   `yaml:"step_name" toml:"step_name"`
	Commands      []string `yaml:"commands" toml:"commands"`
	OS            string   `yaml:"os" toml:"os"`

	// ExtraRepos is passed to every build as EXTRA_REPOS.
	ExtraRepos []string `yaml:"extra_repos" toml:"extra_repos"`
}

// SigningConfig holds the non-secret signing settings. The key material
// itself only ever comes from the environment.
type SigningConfig struct {
	KeyIDEnv    string `yaml:"key_id_env" toml:"key_id_env"`
	KeyEnv      string `yaml:"key_env" toml:"key_env"`
	BuildDir    string `yaml:"build_dir" toml:"build_dir"`
	Pattern     string `yaml:"pattern" toml:"pattern"`
	ProfilePath string `yaml:"profile" toml:"profile"`
	GPGCommand  string `yaml:"gpg" toml:"gpg"`
	SignCommand string `yaml:"sign" toml:"sign"`
}

// ChangelogConfig holds defaults for the changelog builder.
type ChangelogConfig struct {
	TagPrefix    string `yaml:"tag_prefix" toml:"tag_prefix"`
	BranchPrefix string `yaml:"branch_prefix" toml:"branch_prefix"`
	Comment      string `yaml:"comment" toml:"comment"`
}

// Load reads configuration from a YAML or TOML file, chosen by extension.
// If path is empty, the default files are tried and built-in defaults are
// returned when none exists.
func Load(path string) (*Config, error) {
	if path == "" {
		for _, candidate := range defaultConfigFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return Defaults(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found", path)
		}
		return nil, err
	}

	cfg := Defaults()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yml", ".yaml", "":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Pipeline: DefaultPipelineConfig(),
		Signing:  DefaultSigningConfig(),
		Changelog: ChangelogConfig{
			TagPrefix:    "hybris-mobian/",
			BranchPrefix: "feature/",
			Comment:      "release",
		},
	}
}

// DefaultPipelineConfig returns the pipeline settings used by hybris-mobian.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Suites:               []string{"bullseye"},
		Architectures:        []string{"amd64", "arm64", "armhf"},
		DefaultArchitectures: []string{"amd64", "arm64", "armhf"},
		DroneArch: map[string]string{
			"amd64": "amd64",
			"arm64": "arm64",
			"armhf": "arm",
			"i386":  "386",
		},
		TagPrefix:           "refs/tags/hybris-mobian/",
		FeatureBranchPrefix: "feature/",
		TagSeparatorOffset:  2,
		TagMinSeparators:    1,
		ImageTemplate:       "quay.io/hybris-mobian/build-essential:{suite}-{arch}",
		StepName:            "build",
		Commands: []string{
			`echo "I: Building for {suite} on {arch} (full build: $RELENG_FULL_BUILD)"`,
			"git --no-pager log -1 --oneline",
			"releng-build-package",
		},
		OS: "linux",
	}
}

// DefaultSigningConfig returns the signing settings used on the build
// runners.
func DefaultSigningConfig() SigningConfig {
	return SigningConfig{
		KeyIDEnv:    "GPG_STAGINGPRODUCTION_SIGN_KEY_ID",
		KeyEnv:      "GPG_STAGINGPRODUCTION_SIGN_KEY",
		BuildDir:    "/buildd",
		Pattern:     "*.changes",
		ProfilePath: "~/.devscripts",
		GPGCommand:  "gpg",
		SignCommand: "debsign",
	}
}

// Validate checks that the configuration can drive pipeline generation.
func (c *Config) Validate() error {
	p := c.Pipeline
	if len(p.Suites) == 0 {
		return fmt.Errorf("pipeline.suites must not be empty")
	}
	for _, arch := range p.Architectures {
		if _, ok := p.DroneArch[arch]; !ok {
			return fmt.Errorf("architecture %s has no drone_arch mapping", arch)
		}
	}
	if p.TagSeparatorOffset < 0 || p.TagMinSeparators < 0 {
		return fmt.Errorf("tag separator settings must not be negative")
	}
	if p.ImageTemplate == "" {
		return fmt.Errorf("pipeline.image must not be empty")
	}
	if len(p.Commands) == 0 {
		return fmt.Errorf("pipeline.commands must not be empty")
	}
	if c.Signing.Pattern != "" {
		if _, err := filepath.Match(c.Signing.Pattern, ""); err != nil {
			return fmt.Errorf("signing.pattern: %w", err)
		}
	}
	return nil
}
