package cli

import (
	"os"

	"github.com/hybris-mobian/releng/internal/models"
	"github.com/hybris-mobian/releng/internal/runner"
	"github.com/hybris-mobian/releng/internal/signer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewSignCmd creates the sign command
func NewSignCmd(loadConfig configLoader) *cobra.Command {
	var (
		buildDir string
		pattern  string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign build outputs with the release key",
		Long: `Imports the signing key from $GPG_STAGINGPRODUCTION_SIGN_KEY into the
keyring, writes DEBSIGN_KEYID=$GPG_STAGINGPRODUCTION_SIGN_KEY_ID to
~/.devscripts and runs debsign over every .changes file in the build
directory. Any failure aborts with the failing tool's exit status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("build-dir") {
				cfg.Signing.BuildDir = buildDir
			}
			if cmd.Flags().Changed("pattern") {
				cfg.Signing.Pattern = pattern
			}

			signingConfig, err := cfg.SigningFromEnv(os.LookupEnv)
			if err != nil {
				return &models.RelengError{Type: models.ErrInvalidConfig, Err: err}
			}
			signingConfig.VerifyChecks = !noVerify

			logrus.Infof("Signing files in %s", signingConfig.BuildDir)
			_, err = signer.NewInvoker(signingConfig, runner.NewExecRunner()).Run(cmd.Context())
			return err
		},
	}

	cmd.Flags().StringVarP(&buildDir, "build-dir", "d", "", "Directory holding the build outputs (default /buildd)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Files to sign (default *.changes)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip checking .changes checksums before signing")

	return cmd
}
