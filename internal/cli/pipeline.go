package cli

import (
	"fmt"
	"os"

	"github.com/hybris-mobian/releng/internal/config"
	"github.com/hybris-mobian/releng/internal/models"
	"github.com/hybris-mobian/releng/internal/pipeline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewPipelineCmd creates the pipeline command
func NewPipelineCmd(loadConfig configLoader) *cobra.Command {
	var (
		event   string
		branch  string
		ref     string
		arches  []string
		primary string
		format  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Generate Drone pipelines for the current build",
		Long: `Resolves the suite targeted by the build from its event, branch and
tag, then prints one pipeline per supported architecture. The primary
architecture (the first one unless --primary is given) performs the full
build, all others build architecture-dependent packages only.

Build context flags default to the DRONE_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			outFormat, err := pipeline.ParseFormat(format)
			if err != nil {
				return &models.RelengError{Type: models.ErrInvalidConfig, Err: err}
			}

			bc := config.BuildContextFromEnv(os.LookupEnv)
			if cmd.Flags().Changed("event") {
				bc.Event = models.EventKind(event)
			}
			if cmd.Flags().Changed("branch") {
				bc.Branch = branch
			}
			if cmd.Flags().Changed("ref") {
				bc.Ref = ref
			}

			req := models.ArchRequest{Architectures: cfg.Pipeline.DefaultArchitectures, Primary: primary}
			if cmd.Flags().Changed("arch") {
				req.Architectures = arches
			}

			logrus.Debugf("Build context: %+v", bc)
			pipelines := pipeline.NewGenerator(cfg.Pipeline).Generate(bc, req)

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return &models.RelengError{Type: models.ErrFileOp, Subject: output, Err: err}
				}
				defer f.Close()
				w = f
			}

			if err := pipeline.Render(w, pipelines, outFormat); err != nil {
				return &models.RelengError{
					Type: models.ErrRender,
					Err:  fmt.Errorf("failed to render pipelines: %w", err),
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&event, "event", "", "Build event: tag, push, ... (default $DRONE_BUILD_EVENT)")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch being built (default $DRONE_BRANCH)")
	cmd.Flags().StringVar(&ref, "ref", "", "Git ref being built (default $DRONE_COMMIT_REF)")
	cmd.Flags().StringSliceVar(&arches, "arch", nil, "Architectures to build (default from config: amd64,arm64,armhf)")
	cmd.Flags().StringVar(&primary, "primary", "", "Architecture performing the full build (default: first of --arch)")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}
