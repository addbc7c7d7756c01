package pipeline

import (
	"testing"

	"github.com/hybris-mobian/releng/internal/config"
	"github.com/hybris-mobian/releng/internal/models"
)

var defaultArches = []string{"amd64", "arm64", "armhf"}

func pushOn(branch string) models.BuildContext {
	return models.BuildContext{Event: models.EventPush, Branch: branch}
}

func TestGeneratePushOnSupportedSuite(t *testing.T) {
	gen := NewGenerator(config.DefaultPipelineConfig())

	pipelines := gen.Generate(pushOn("bullseye"), models.ArchRequest{Architectures: defaultArches})
	if len(pipelines) != 3 {
		t.Fatalf("Expected 3 pipelines, got %d", len(pipelines))
	}

	wantNames := []string{"bullseye-amd64-full", "bullseye-arm64-dep", "bullseye-armhf-dep"}
	wantArch := []string{"amd64", "arm64", "arm"}
	wantFull := []string{"yes", "no", "no"}

	for i, p := range pipelines {
		if p.Name != wantNames[i] {
			t.Errorf("pipeline %d: name = %q, want %q", i, p.Name, wantNames[i])
		}
		if p.Kind != "pipeline" || p.Type != "docker" {
			t.Errorf("pipeline %d: kind/type = %s/%s", i, p.Kind, p.Type)
		}
		if p.Platform.OS != "linux" || p.Platform.Arch != wantArch[i] {
			t.Errorf("pipeline %d: platform = %+v, want linux/%s", i, p.Platform, wantArch[i])
		}
		if len(p.Steps) != 1 {
			t.Fatalf("pipeline %d: expected a single step, got %d", i, len(p.Steps))
		}
		step := p.Steps[0]
		if got := step.Environment["RELENG_FULL_BUILD"]; got != wantFull[i] {
			t.Errorf("pipeline %d: RELENG_FULL_BUILD = %q, want %q", i, got, wantFull[i])
		}
		if len(step.Commands) != 3 || step.Commands[2] != "releng-build-package" {
			t.Errorf("pipeline %d: unexpected commands %v", i, step.Commands)
		}
	}

	if img := pipelines[1].Steps[0].Image; img != "quay.io/hybris-mobian/build-essential:bullseye-arm64" {
		t.Errorf("Unexpected image %s", img)
	}
}

func TestGenerateFiltersArchitectures(t *testing.T) {
	gen := NewGenerator(config.DefaultPipelineConfig())

	tests := []struct {
		name      string
		arches    []string
		wantCount int
		wantFull  int
	}{
		{"all supported", []string{"amd64", "arm64", "armhf"}, 3, 1},
		{"i386 is mapped but not supported", []string{"i386"}, 0, 0},
		{"primary filtered out", []string{"i386", "amd64", "arm64"}, 2, 0},
		{"unsupported in the middle", []string{"arm64", "sparc", "amd64"}, 2, 1},
		{"empty request", nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipelines := gen.Generate(pushOn("bullseye"), models.ArchRequest{Architectures: tt.arches})
			if pipelines == nil {
				t.Fatalf("Generate returned nil, want an empty list")
			}
			if len(pipelines) != tt.wantCount {
				t.Fatalf("Expected %d pipelines, got %d", tt.wantCount, len(pipelines))
			}
			full := 0
			for _, p := range pipelines {
				if p.FullBuild() {
					full++
				}
			}
			if full != tt.wantFull {
				t.Errorf("Expected %d full builds, got %d", tt.wantFull, full)
			}
		})
	}
}

func TestGenerateExplicitPrimary(t *testing.T) {
	gen := NewGenerator(config.DefaultPipelineConfig())

	pipelines := gen.Generate(pushOn("bullseye"), models.ArchRequest{
		Architectures: defaultArches,
		Primary:       "arm64",
	})
	if len(pipelines) != 3 {
		t.Fatalf("Expected 3 pipelines, got %d", len(pipelines))
	}
	for _, p := range pipelines {
		want := p.Platform.Arch == "arm64"
		if p.FullBuild() != want {
			t.Errorf("%s: full build = %v, want %v", p.Name, p.FullBuild(), want)
		}
	}
}

func TestGenerateSkipsDuplicateArchitectures(t *testing.T) {
	gen := NewGenerator(config.DefaultPipelineConfig())

	pipelines := gen.ForSuite("bullseye", models.ArchRequest{Architectures: []string{"amd64", "arm64", "amd64"}})
	if len(pipelines) != 2 {
		t.Fatalf("Expected 2 pipelines, got %d", len(pipelines))
	}

	names := map[string]bool{}
	full := 0
	for _, p := range pipelines {
		if names[p.Name] {
			t.Errorf("Duplicate pipeline name %s", p.Name)
		}
		names[p.Name] = true
		if p.FullBuild() {
			full++
		}
	}
	if full != 1 {
		t.Errorf("Expected exactly one full build, got %d", full)
	}
}

func TestGenerateUnsupportedSuite(t *testing.T) {
	gen := NewGenerator(config.DefaultPipelineConfig())

	for _, bc := range []models.BuildContext{
		pushOn("main"),
		pushOn("feature/experimental/foo"),
		{Event: "pull_request", Branch: "bullseye"},
	} {
		pipelines := gen.Generate(bc, models.ArchRequest{Architectures: defaultArches})
		if len(pipelines) != 0 {
			t.Errorf("%+v: expected no pipelines, got %d", bc, len(pipelines))
		}
	}
}

func TestGenerateExtraRepos(t *testing.T) {
	cfg := config.DefaultPipelineConfig()
	cfg.ExtraRepos = []string{"deb http://example.org/a bullseye main", "deb http://example.org/b bullseye main"}
	gen := NewGenerator(cfg)

	pipelines := gen.Generate(pushOn("bullseye"), models.ArchRequest{Architectures: []string{"amd64"}})
	if len(pipelines) != 1 {
		t.Fatalf("Expected 1 pipeline, got %d", len(pipelines))
	}

	want := "deb http://example.org/a bullseye main|deb http://example.org/b bullseye main"
	if got := pipelines[0].Steps[0].Environment["EXTRA_REPOS"]; got != want {
		t.Errorf("EXTRA_REPOS = %q, want %q", got, want)
	}
}
