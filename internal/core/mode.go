package core

import (
	"path/filepath"
	"slices"
)

// DefaultSuffixes are the file extensions of native Curry source files.
var DefaultSuffixes = []string{".curry", ".lcurry"}

// SourceKind identifies where the program of an invocation comes from.
type SourceKind int

const (
	// SourceStdin reads the program text from standard input.
	SourceStdin SourceKind = iota
	// SourceFile loads a native source file in place.
	SourceFile
	// SourceScript loads an executable script with its '#' lines stripped.
	SourceScript
)

func (k SourceKind) String() string {
	switch k {
	case SourceFile:
		return "file"
	case SourceScript:
		return "script"
	default:
		return "stdin"
	}
}

// SourceRef points at the program of an invocation. Path is empty for
// SourceStdin.
type SourceRef struct {
	Kind SourceKind
	Path string
}

// Invocation is the classified form of a command line. It is built once per
// run and never modified; accessors hand out copies.
type Invocation struct {
	options []string
	source  SourceRef
	args    []string
}

// NewInvocation copies its slices so later changes by the caller do not leak in.
func NewInvocation(options []string, source SourceRef, args []string) Invocation {
	return Invocation{
		options: slices.Clone(options),
		source:  source,
		args:    slices.Clone(args),
	}
}

// ToolchainOptions are passed verbatim and in order to every toolchain call.
func (i Invocation) ToolchainOptions() []string { return slices.Clone(i.options) }

// Source returns the program reference.
func (i Invocation) Source() SourceRef { return i.source }

// RuntimeArgs are bound as the program's arguments.
func (i Invocation) RuntimeArgs() []string { return slices.Clone(i.args) }

// Prober answers the filesystem questions the classifier asks.
type Prober interface {
	// IsExecutable reports whether path names an existing file the current
	// user may execute.
	IsExecutable(path string) bool
}

// Detector classifies raw command-line arguments into an Invocation.
type Detector struct {
	// Suffixes marks arguments that are native source files.
	Suffixes []string

	// Prober decides whether an argument is an executable script.
	Prober Prober
}

// NewDetector returns a Detector. A nil suffix list selects DefaultSuffixes
// and a nil prober selects FSProber.
func NewDetector(suffixes []string, prober Prober) *Detector {
	if len(suffixes) == 0 {
		suffixes = DefaultSuffixes
	}
	if prober == nil {
		prober = FSProber{}
	}
	return &Detector{Suffixes: slices.Clone(suffixes), Prober: prober}
}

// HasNativeSuffix reports whether path ends in one of the native suffixes.
func (d *Detector) HasNativeSuffix(path string) bool {
	ext := filepath.Ext(path)
	return ext != "" && slices.Contains(d.Suffixes, ext)
}

// Classify scans args left to right. The first native source file or
// executable script becomes the program and everything after it the runtime
// arguments. Any other argument is taken as a toolchain option, so options may
// precede the program in any mixture. If no program is found the invocation
// reads from standard input and all arguments are options.
//
// A mistyped script name is therefore silently treated as an option.
func (d *Detector) Classify(args []string) Invocation {
	var options []string
	remaining := args
	for len(remaining) > 0 {
		arg := remaining[0]
		rest := remaining[1:]
		switch {
		case d.HasNativeSuffix(arg):
			return NewInvocation(options, SourceRef{Kind: SourceFile, Path: arg}, rest)
		case d.Prober.IsExecutable(arg):
			return NewInvocation(options, SourceRef{Kind: SourceScript, Path: arg}, rest)
		}
		options = append(options, arg)
		remaining = rest
	}
	return NewInvocation(options, SourceRef{Kind: SourceStdin}, nil)
}
