package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/unitrun/unitrun"
	"github.com/unitrun/unitrun/exitcodes"
	"github.com/unitrun/unitrun/flags"
	"github.com/unitrun/unitrun/selftest"
	"github.com/unitrun/unitrun/service"
)

var (
	Version   = "v1.0.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "unitrun"
	app.Usage = "Unit test execution framework"
	app.Description = "unitrun executes registered test cases and reports the aggregate result"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			cli.HandleExitCoder(cli.Exit(err.Error(), exitCodeFor(err)))
		}
	}

	// Start telemetry
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer otelShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the operational endpoints
	svc := service.New(service.Config{})
	svc.Start(ctx)
	defer svc.Shutdown()

	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(cliCtx *cli.Context) error {
	logger := setupLogger(cliCtx)

	cfg, err := unitrun.NewConfig(cliCtx, logger)
	if err != nil {
		return unitrun.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	runCtx, cancel := context.WithCancelCause(cliCtx.Context)
	defer cancel(nil)

	app, err := unitrun.New(runCtx, cfg, Version, selftest.Suite(), cancel)
	if err != nil {
		return unitrun.NewRuntimeError(fmt.Errorf("failed to create app: %w", err))
	}

	if err := app.Start(runCtx); err != nil {
		return err
	}

	if !cfg.RunOnce {
		// Continuous mode: run until a signal arrives or the app asks to stop.
		<-runCtx.Done()

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := app.Stop(stopCtx); err != nil {
			return unitrun.NewRuntimeError(fmt.Errorf("failed to stop app: %w", err))
		}
	}
	return nil
}

// exitCodeFor maps typed errors onto process exit codes: runtime errors are
// operational problems, everything else counts as a test failure.
func exitCodeFor(err error) int {
	if err == nil {
		return exitcodes.Success
	}
	if unitrun.IsRuntimeError(err) {
		return exitcodes.RuntimeErr
	}
	return exitcodes.TestFailure
}

func setupLogger(cliCtx *cli.Context) log.Logger {
	level := slog.LevelInfo
	if cliCtx.Bool(flags.Verbose.Name) {
		level = slog.LevelDebug
	}
	handler := log.NewTerminalHandlerWithLevel(os.Stdout, level, true)
	logger := log.NewLogger(handler)
	log.SetDefault(logger)
	return logger
}
