// Package signer imports the release signing key and signs the .changes
// files of a build with debsign.
package signer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hybris-mobian/releng/internal/changes"
	"github.com/hybris-mobian/releng/internal/models"
	"github.com/hybris-mobian/releng/internal/runner"
	"github.com/hybris-mobian/releng/internal/scanner"
	"github.com/hybris-mobian/releng/internal/utils"
	"github.com/sirupsen/logrus"
)

// Invoker imports a signing key and runs the signing command over a build
// directory
type Invoker struct {
	cfg     *models.SigningConfig
	runner  runner.Runner
	scanner scanner.Scanner
}

// NewInvoker creates a signing invoker. The configuration is read once and
// never modified.
func NewInvoker(cfg *models.SigningConfig, r runner.Runner) *Invoker {
	return &Invoker{
		cfg:     cfg,
		runner:  r,
		scanner: scanner.NewFileSystemScanner(),
	}
}

// Run imports the key and signs every matching file in the build directory
// with a single signing command. It returns the signed files.
func (i *Invoker) Run(ctx context.Context) ([]string, error) {
	if err := i.validate(); err != nil {
		return nil, &models.RelengError{Type: models.ErrInvalidConfig, Err: err}
	}

	// Step 1: Check the payload before handing it to gpg. gpg decides
	// whether the key can be imported.
	info, err := InspectKey([]byte(i.cfg.Key))
	switch {
	case err != nil:
		logrus.Warnf("Could not inspect signing key, leaving it to %s: %v", i.cfg.GPGCommand, err)
	case !info.Matches(i.cfg.KeyID):
		logrus.Warnf("Key id %s does not match any key in the payload (%s)", i.cfg.KeyID, strings.Join(info.KeyIDs, ", "))
	default:
		logrus.Debugf("Signing key %s found in payload", i.cfg.KeyID)
	}

	// Step 2: Point debsign at the key
	profile := fmt.Sprintf("DEBSIGN_KEYID=%s\n", i.cfg.KeyID)
	if err := utils.WriteFileAtomic(i.cfg.ProfilePath, []byte(profile), 0644); err != nil {
		return nil, &models.RelengError{
			Type:    models.ErrFileOp,
			Subject: i.cfg.ProfilePath,
			Err:     fmt.Errorf("failed to write profile: %w", err),
		}
	}
	logrus.Infof("Wrote %s", i.cfg.ProfilePath)

	// Step 3: Import the key
	err = i.runner.Run(ctx, runner.Command{
		Name:  i.cfg.GPGCommand,
		Args:  []string{"--batch", "--import"},
		Stdin: strings.NewReader(i.cfg.Key),
	})
	if err != nil {
		return nil, &models.RelengError{
			Type: models.ErrKeyImport,
			Err:  fmt.Errorf("failed to import signing key: %w", err),
		}
	}
	logrus.Info("Signing key imported")

	// Step 4: Locate build outputs
	artifacts, err := i.scanner.Scan(ctx, i.cfg.BuildDir, i.cfg.Pattern)
	if err != nil {
		return nil, &models.RelengError{
			Type:    models.ErrFileOp,
			Subject: i.cfg.BuildDir,
			Err:     err,
		}
	}
	if len(artifacts) == 0 {
		return nil, &models.RelengError{
			Type:    models.ErrSigning,
			Subject: i.cfg.BuildDir,
			Err:     fmt.Errorf("no files matching %s", i.cfg.Pattern),
		}
	}

	files := make([]string, 0, len(artifacts))
	resign := false
	for _, artifact := range artifacts {
		if i.cfg.VerifyChecks && artifact.Type == scanner.TypeChanges {
			if err := changes.Verify(artifact.Path); err != nil {
				return nil, &models.RelengError{
					Type:    models.ErrSigning,
					Subject: filepath.Base(artifact.Path),
					Err:     fmt.Errorf("refusing to sign: %w", err),
				}
			}
		}
		if artifact.Signed {
			logrus.Debugf("%s is already signed, it will be re-signed", artifact.Path)
			resign = true
		}
		logrus.Debugf("Signing %s file %s", artifact.Type, filepath.Base(artifact.Path))
		files = append(files, artifact.Path)
	}

	// Step 5: Sign everything in one call
	args := []string{}
	if resign {
		args = append(args, "--re-sign")
	}
	args = append(args, files...)

	err = i.runner.Run(ctx, runner.Command{
		Dir:  i.cfg.BuildDir,
		Name: i.cfg.SignCommand,
		Args: args,
	})
	if err != nil {
		return nil, &models.RelengError{
			Type: models.ErrSigning,
			Err:  err,
		}
	}

	logrus.Infof("Signed %d files", len(files))
	return files, nil
}

func (i *Invoker) validate() error {
	switch {
	case i.cfg == nil:
		return fmt.Errorf("signing configuration is missing")
	case i.cfg.KeyID == "":
		return fmt.Errorf("signing key id is empty")
	case strings.TrimSpace(i.cfg.Key) == "":
		return fmt.Errorf("signing key is empty")
	case i.cfg.BuildDir == "":
		return fmt.Errorf("build directory is empty")
	case i.cfg.Pattern == "":
		return fmt.Errorf("file pattern is empty")
	case i.cfg.ProfilePath == "":
		return fmt.Errorf("profile path is empty")
	case i.cfg.GPGCommand == "" || i.cfg.SignCommand == "":
		return fmt.Errorf("gpg and signing commands must be set")
	}
	return nil
}
