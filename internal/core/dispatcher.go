package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPrompt is shown before program text is read from standard input.
const DefaultPrompt = "Type in your program:"

// Dispatcher carries out a classified Invocation.
type Dispatcher struct {
	Toolchain Toolchain
	Cache     *ArtifactCache
	TempNames *TempNames

	// DefaultOptions precede the invocation's own toolchain options.
	DefaultOptions []string

	// JITDirective marks scripts that go through Cache.
	JITDirective string

	// Prompt is written to Stderr in stdin mode. Empty disables it.
	Prompt string

	Stdin  io.Reader
	Stderr io.Writer
	Logger *slog.Logger
}

// NewDispatcher wires a Dispatcher around toolchain with default settings.
func NewDispatcher(toolchain Toolchain, names *TempNames, stdin io.Reader, stderr io.Writer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		Toolchain:    toolchain,
		Cache:        NewArtifactCache(toolchain, names, logger),
		TempNames:    names,
		JITDirective: DefaultJITDirective,
		Prompt:       DefaultPrompt,
		Stdin:        stdin,
		Stderr:       stderr,
		Logger:       logger,
	}
}

// Dispatch runs inv and returns the exit code for this process. Errors are
// reserved for failures outside the toolchain, such as unreadable scripts or
// temp files that cannot be written.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) (code int, err error) {
	src := inv.Source()
	ctx, span := tracer.Start(ctx, "dispatch", trace.WithAttributes(
		attribute.String("mode", src.Kind.String()),
		attribute.String("source", src.Path),
	))
	defer func() {
		span.SetAttributes(attribute.Int("exit_code", code))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		emitDispatchEvent(ctx, src.Kind, code, err)
	}()

	options := slices.Concat(d.DefaultOptions, inv.ToolchainOptions())
	d.Logger.Debug("dispatching", "mode", src.Kind, "source", src.Path, "options", options)

	switch src.Kind {
	case SourceFile:
		return d.Toolchain.CompileAndRun(ctx, options, src.Path, inv.RuntimeArgs())
	case SourceScript:
		return d.runScript(ctx, options, src.Path, inv.RuntimeArgs())
	default:
		return d.runStdin(ctx, options)
	}
}

func (d *Dispatcher) runStdin(ctx context.Context, options []string) (int, error) {
	if d.Prompt != "" && d.Stderr != nil {
		fmt.Fprintln(d.Stderr, d.Prompt)
	}
	stdin := d.Stdin
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	return d.runTemp(ctx, options, stdin, nil)
}

func (d *Dispatcher) runScript(ctx context.Context, options []string, script string, args []string) (int, error) {
	source, err := ReadScript(script)
	if err != nil {
		return 0, err
	}
	if source.HasDirective(d.JITDirective) {
		return d.Cache.Resolve(ctx, script, source.ProgramText(), options, args)
	}
	return d.runTemp(ctx, options, strings.NewReader(source.ProgramText()), args)
}

// runTemp copies program into a fresh temp file, evaluates it and removes it.
func (d *Dispatcher) runTemp(ctx context.Context, options []string, program io.Reader, args []string) (int, error) {
	prog, err := createTempProgram(d.TempNames, program, d.Toolchain, d.Logger)
	if err != nil {
		return 0, err
	}
	defer prog.Release(ctx)
	return d.Toolchain.CompileAndRun(ctx, options, prog.path, args)
}
