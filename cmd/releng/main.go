package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hybris-mobian/releng/internal/cli"
	"github.com/hybris-mobian/releng/internal/runner"
	"github.com/sirupsen/logrus"
)

func main() {
	// Setup logging format
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		stop()
		// Propagate the exit status of a failed external tool
		if code, ok := runner.ExitCode(err); ok {
			os.Exit(code)
		}
		os.Exit(1)
	}
}
