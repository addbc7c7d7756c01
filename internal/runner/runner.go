// Package runner executes the external tools releng delegates to.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Command is a single invocation of an external program
type Command struct {
	Dir   string
	Name  string
	Args  []string
	Stdin io.Reader
}

// String renders the command line for logs. Stdin is never included.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner runs external commands
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands with os/exec, streaming their output
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates a runner attached to the process' stdout and stderr
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes the command and waits for it to finish
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	if c.Name == "" {
		return errors.New("command executable can not be empty")
	}

	// nolint:gosec
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	logrus.Debugf("Running %s", c)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", c.Name, err)
	}
	return nil
}

// ExitCode returns the exit status of a failed external command found in
// err's chain.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code > 0 {
			return code, true
		}
	}
	return 0, false
}
