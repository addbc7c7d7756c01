package cli

import (
	"fmt"

	"github.com/hybris-mobian/releng/internal/config"
	"github.com/hybris-mobian/releng/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "releng",
		Short: "Release engineering helpers for Debian package CI",
		Long: `Releng glues Debian package builds to the CI system.

Commands:
  - pipeline:  emit the Drone pipelines for the current build
  - sign:      import the signing key and debsign the build outputs
  - changelog: generate debian/changelog from the git history`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: .releng.yml or .releng.toml if present)")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, &models.RelengError{
				Type: models.ErrInvalidConfig,
				Err:  fmt.Errorf("loading config: %w", err),
			}
		}
		return cfg, nil
	}

	// Add subcommands
	rootCmd.AddCommand(NewPipelineCmd(loadConfig))
	rootCmd.AddCommand(NewSignCmd(loadConfig))
	rootCmd.AddCommand(NewChangelogCmd(loadConfig))

	return rootCmd
}

// configLoader loads the configuration selected by the global flags
type configLoader func() (*config.Config, error)
