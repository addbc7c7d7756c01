package models

// Pipeline is a single Drone pipeline definition
type Pipeline struct {
	Kind     string   `yaml:"kind" json:"kind"`
	Type     string   `yaml:"type" json:"type"`
	Name     string   `yaml:"name" json:"name"`
	Steps    []Step   `yaml:"steps" json:"steps"`
	Platform Platform `yaml:"platform" json:"platform"`
}

// Step is a pipeline step running in a container
type Step struct {
	Name        string            `yaml:"name" json:"name"`
	Image       string            `yaml:"image" json:"image"`
	Commands    []string          `yaml:"commands" json:"commands"`
	Environment map[string]string `yaml:"environment" json:"environment"`
}

// Platform selects the runner a pipeline executes on
type Platform struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

// FullBuild reports whether the pipeline's build step performs a full build
func (p Pipeline) FullBuild() bool {
	for _, step := range p.Steps {
		if step.Environment["RELENG_FULL_BUILD"] == "yes" {
			return true
		}
	}
	return false
}
