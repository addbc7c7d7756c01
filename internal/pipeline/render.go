package pipeline

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hybris-mobian/releng/internal/models"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding for pipeline lists
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a user supplied format name
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatYAML, FormatJSON:
		return Format(name), nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want yaml or json)", name)
	}
}

// Render writes pipelines as a multi-document YAML stream, the form of a
// .drone.yml, or as a JSON array.
func Render(w io.Writer, pipelines []models.Pipeline, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if pipelines == nil {
			pipelines = []models.Pipeline{}
		}
		return enc.Encode(pipelines)

	case FormatYAML:
		// An empty stream is a valid, empty .drone.yml
		if len(pipelines) == 0 {
			return nil
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, p := range pipelines {
			if err := enc.Encode(p); err != nil {
				return fmt.Errorf("failed to encode pipeline %s: %w", p.Name, err)
			}
		}
		return enc.Close()

	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
