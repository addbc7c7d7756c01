// Package pipeline turns a CI build context into the Drone pipelines that
// build a Debian package for every supported architecture.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/hybris-mobian/releng/internal/config"
	"github.com/hybris-mobian/releng/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	buildKindFull = "full"
	buildKindDep  = "dep"
)

// Generator produces pipeline descriptions
type Generator struct {
	cfg      config.PipelineConfig
	resolver *Resolver
	allowed  map[string]bool
}

// NewGenerator creates a pipeline generator for the given configuration
func NewGenerator(cfg config.PipelineConfig) *Generator {
	allowed := make(map[string]bool, len(cfg.Architectures))
	for _, arch := range cfg.Architectures {
		allowed[arch] = true
	}
	return &Generator{
		cfg:      cfg,
		resolver: NewResolver(cfg),
		allowed:  allowed,
	}
}

// Generate returns one pipeline per requested and supported architecture.
// The result is empty, never an error, when the build targets no supported
// suite or no requested architecture is supported.
func (g *Generator) Generate(bc models.BuildContext, req models.ArchRequest) []models.Pipeline {
	suite, ok := g.resolver.ResolveSuite(bc)
	if !ok {
		logrus.Info("Build does not target a supported suite, no pipelines generated")
		return []models.Pipeline{}
	}

	return g.ForSuite(suite, req)
}

// ForSuite builds the pipelines for an already resolved suite
func (g *Generator) ForSuite(suite string, req models.ArchRequest) []models.Pipeline {
	primary := req.PrimaryArch()
	pipelines := []models.Pipeline{}
	seen := make(map[string]bool, len(req.Architectures))

	for _, arch := range req.Architectures {
		if !g.allowed[arch] {
			logrus.Debugf("Skipping unsupported architecture %s", arch)
			continue
		}
		// Pipeline names must be unique
		if seen[arch] {
			logrus.Debugf("Skipping duplicate architecture %s", arch)
			continue
		}
		seen[arch] = true
		pipelines = append(pipelines, g.build(suite, arch, arch == primary))
	}

	logrus.Infof("Generated %d pipelines for suite %s", len(pipelines), suite)
	return pipelines
}

func (g *Generator) build(suite, arch string, full bool) models.Pipeline {
	kind := buildKindDep
	fullFlag := "no"
	if full {
		kind = buildKindFull
		fullFlag = "yes"
	}

	expand := strings.NewReplacer("{suite}", suite, "{arch}", arch).Replace

	commands := make([]string, len(g.cfg.Commands))
	for i, command := range g.cfg.Commands {
		commands[i] = expand(command)
	}

	return models.Pipeline{
		Kind: "pipeline",
		Type: "docker",
		Name: fmt.Sprintf("%s-%s-%s", suite, arch, kind),
		Steps: []models.Step{
			{
				Name:     g.cfg.StepName,
				Image:    expand(g.cfg.ImageTemplate),
				Commands: commands,
				Environment: map[string]string{
					"RELENG_FULL_BUILD": fullFlag,
					"EXTRA_REPOS":       strings.Join(g.cfg.ExtraRepos, "|"),
				},
			},
		},
		Platform: models.Platform{
			OS:   g.cfg.OS,
			Arch: g.cfg.DroneArch[arch],
		},
	}
}
