package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// CacheDecision is the outcome of checking a script's compiled artifact.
type CacheDecision int

const (
	// Missing means no artifact exists yet.
	Missing CacheDecision = iota
	// Stale means the script changed after the artifact was written.
	Stale
	// Fresh means the artifact is strictly newer than the script.
	Fresh
	// RebuildAfterFailure means a fresh artifact ran and failed, so it is
	// rebuilt once.
	RebuildAfterFailure
)

func (d CacheDecision) String() string {
	switch d {
	case Missing:
		return "missing"
	case Stale:
		return "stale"
	case Fresh:
		return "fresh"
	case RebuildAfterFailure:
		return "rebuild-after-failure"
	default:
		return fmt.Sprintf("CacheDecision(%d)", int(d))
	}
}

// ArtifactCache compiles JIT scripts into sibling executables and reuses them
// while they are fresh.
//
// Freshness is judged by modification time only. Two concurrent runs of a
// just-edited script may both rebuild; the last rename wins and both still run
// a complete executable.
type ArtifactCache struct {
	// Toolchain compiles and runs artifacts.
	Toolchain Toolchain

	// TempNames allocates the source file handed to the compiler.
	TempNames *TempNames

	Logger *slog.Logger
}

// NewArtifactCache returns a cache using toolchain and names.
func NewArtifactCache(toolchain Toolchain, names *TempNames, logger *slog.Logger) *ArtifactCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactCache{Toolchain: toolchain, TempNames: names, Logger: logger}
}

// Lookup stats the artifact of script. It returns nil without error when no
// artifact exists.
func (c *ArtifactCache) Lookup(script string) (*CompiledArtifact, error) {
	path := ArtifactPath(script)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking artifact: %w", err)
	}
	return &CompiledArtifact{Path: path, ModTime: info.ModTime()}, nil
}

// Decide reports whether the artifact of script can be reused.
func (c *ArtifactCache) Decide(script string) (CacheDecision, string, error) {
	artifact, err := c.Lookup(script)
	if err != nil {
		return Missing, "", err
	}
	if artifact == nil {
		return Missing, ArtifactPath(script), nil
	}
	info, err := os.Stat(script)
	if err != nil {
		return Missing, "", fmt.Errorf("checking script: %w", err)
	}
	if artifact.FresherThan(info.ModTime()) {
		return Fresh, artifact.Path, nil
	}
	return Stale, artifact.Path, nil
}

// Resolve runs script through its compiled artifact and returns the exit code
// of the last process that mattered.
//
// The flow:
//  1. Derive the artifact path and decide freshness.
//  2. Fresh: run the artifact. Exit code 0 is returned as is.
//  3. Any other outcome rebuilds: programText goes to a temp source file,
//     the toolchain saves it as the artifact, and the temp file and the
//     toolchain's intermediates are removed whatever the result.
//  4. A failed compile returns its code without running. Otherwise the new
//     artifact runs once and its code is returned. There is no second retry.
func (c *ArtifactCache) Resolve(ctx context.Context, script, programText string, options, args []string) (int, error) {
	ctx, span := tracer.Start(ctx, "cache.resolve")
	defer span.End()

	decision, artifact, err := c.Decide(script)
	if err != nil {
		return 0, err
	}

	if decision == Fresh {
		recordDecision(ctx, Fresh)
		c.Logger.Debug("reusing artifact", "script", script, "artifact", artifact)
		code, err := c.Toolchain.Run(ctx, artifact, args)
		switch {
		case ctx.Err() != nil:
			return code, err
		case err == nil && code == 0:
			span.SetAttributes(attribute.String("decision", Fresh.String()))
			return 0, nil
		case err != nil:
			c.Logger.Debug("artifact failed to start", "artifact", artifact, "err", err)
		default:
			c.Logger.Debug("artifact exited non-zero", "artifact", artifact, "exit_code", code)
		}
		decision = RebuildAfterFailure
	}

	recordDecision(ctx, decision)
	span.SetAttributes(attribute.String("decision", decision.String()))
	c.Logger.Debug("rebuilding artifact", "script", script, "artifact", artifact, "decision", decision)

	code, err := c.rebuild(ctx, artifact, programText, options)
	if err != nil || code != 0 {
		return code, err
	}
	return c.Toolchain.Run(ctx, artifact, args)
}

func (c *ArtifactCache) rebuild(ctx context.Context, artifact, programText string, options []string) (int, error) {
	src, err := createTempProgram(c.TempNames, strings.NewReader(programText), c.Toolchain, c.Logger)
	if err != nil {
		return 0, err
	}
	defer src.Release(ctx)
	return c.Toolchain.CompileAndSave(ctx, options, src.path, artifact)
}
