package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gosom/virk-cvr/runner"
	"github.com/gosom/virk-cvr/runner/clirunner"
	"github.com/gosom/virk-cvr/runner/lambdarunner"
)

func main() {
	if _, err := os.Stat("/.dockerenv"); os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("error loading .env file, continuing without it", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := runner.NewRootCommand(run)

	err := cmd.ExecuteContext(ctx)

	stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *runner.Config) error {
	if cfg.Output == runner.OutputTable && cfg.RunMode != runner.RunModeLambda {
		runner.Banner()
	}

	runnerInstance, err := runnerFactory(cfg)
	if err != nil {
		return err
	}

	defer func() {
		_ = runnerInstance.Close(ctx)
	}()

	return runnerInstance.Run(ctx)
}

func runnerFactory(cfg *runner.Config) (runner.Runner, error) {
	switch cfg.RunMode {
	case runner.RunModeSearch, runner.RunModeCVR, runner.RunModePNumber:
		return clirunner.New(cfg, os.Stdout)
	case runner.RunModeLambda:
		return lambdarunner.New(cfg)
	default:
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}
}
