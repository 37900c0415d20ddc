package cli

import (
	"context"
	"fmt"
	"os"

	"runcurry/internal/config"
	"runcurry/internal/core"
	"runcurry/internal/telemetry"
)

// Execute loads the configuration, wires the dispatcher and runs the
// classified invocation.
//
// Responsibilities:
//   - Build the logger and, when configured, the telemetry pipeline, and
//     flush telemetry on every return path.
//   - Translate setup failures to InvocationError.
//   - Return the exit code of the last toolchain process that mattered.
func Execute(ctx context.Context, inv CLIInvocation, env Environment) (code int, execErr error) {
	getenv := env.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg, err := config.Load(getenv)
	if err != nil {
		return ExitFailure, invocationErr(err, "configuration error")
	}

	logger, err := newLogger(cfg.LogLevel, env.Stderr)
	if err != nil {
		return ExitFailure, invocationErr(err, "configuration error")
	}

	if cfg.Telemetry.TraceFile != "" {
		shutdown, err := setupTelemetry(ctx, cfg.Telemetry.TraceFile, env.Version)
		if err != nil {
			return ExitFailure, invocationErr(err, "telemetry setup failed")
		}
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Error("Failed to shutdown telemetry", "err", err)
			}
		}()
	}

	defaultOptions, err := cfg.ToolchainOptions()
	if err != nil {
		return ExitFailure, invocationErr(err, "configuration error")
	}

	defer func() {
		if r := recover(); r != nil {
			code = ExitFailure
			execErr = fmt.Errorf("internal error: %v", r)
		}
	}()

	executor := &core.Executor{Stdin: env.Stdin, Stdout: env.Stdout, Stderr: env.Stderr}
	toolchain := core.NewExecToolchain(cfg.ToolchainConfig(), executor)

	names := core.NewTempNames(cfg.IdentitySource())
	names.Prefix = cfg.TempPrefix

	dispatcher := core.NewDispatcher(toolchain, names, env.Stdin, env.Stderr, logger)
	dispatcher.DefaultOptions = defaultOptions
	dispatcher.JITDirective = cfg.JITDirective
	dispatcher.Prompt = cfg.PromptText()

	detector := core.NewDetector(cfg.Suffixes, core.FSProber{})
	program := detector.Classify(inv.Args)

	code, err = dispatcher.Dispatch(ctx, program)
	if err != nil {
		return ExitCode(err), err
	}
	return code, nil
}

// setupTelemetry appends spans, metrics and dispatch events to path.
func setupTelemetry(ctx context.Context, path, version string) (func(context.Context) error, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	shutdown, err := telemetry.Setup(ctx,
		telemetry.WithOutput(f),
		telemetry.WithVersion(version),
		telemetry.WithInstanceId(fmt.Sprint(os.Getpid())),
	)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return func(ctx context.Context) error {
		err := shutdown(ctx)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}, nil
}
