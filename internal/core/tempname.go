package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultTempPrefix starts every temporary program name. The resulting stem
// is the module name the toolchain sees, so it must stay a valid identifier.
const DefaultTempPrefix = "RUNCURRY_"

// IdentitySource yields the per-process part of temporary program names.
type IdentitySource interface {
	Identity() string
}

// ProcessIdentity uses the process id.
type ProcessIdentity struct{}

func (ProcessIdentity) Identity() string { return strconv.Itoa(os.Getpid()) }

// UUIDIdentity uses a time-ordered UUID without dashes.
type UUIDIdentity struct{}

func (UUIDIdentity) Identity() string {
	return strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")
}

// TempNames allocates temporary program names in a directory.
type TempNames struct {
	// Dir is where names are allocated. Empty means the working directory.
	Dir string

	// Prefix and Suffix surround the identity.
	Prefix string
	Suffix string

	Identity IdentitySource
}

// NewTempNames returns an allocator for the working directory using the
// default prefix and the ".curry" suffix.
func NewTempNames(identity IdentitySource) *TempNames {
	if identity == nil {
		identity = ProcessIdentity{}
	}
	return &TempNames{
		Prefix:   DefaultTempPrefix,
		Suffix:   DefaultSuffixes[0],
		Identity: identity,
	}
}

// Allocate returns a path that did not exist when it was probed. Each
// collision appends '_' to the stem. The caller must create the file promptly;
// nothing reserves the name.
func (t *TempNames) Allocate() (string, error) {
	stem := t.Prefix + t.Identity.Identity()
	for {
		path := filepath.Join(t.Dir, stem+t.Suffix)
		_, err := os.Lstat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("probing temp name %s: %w", path, err)
		}
		stem += "_"
	}
}

// tempProgram is a program file owned by the current run.
type tempProgram struct {
	path      string
	toolchain Toolchain
	logger    *slog.Logger
}

// createTempProgram allocates a name and writes src into it. The file is
// created exclusively so a name taken since Allocate fails loudly.
func createTempProgram(names *TempNames, src io.Reader, toolchain Toolchain, logger *slog.Logger) (*tempProgram, error) {
	path, err := names.Allocate()
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating temp program: %w", err)
	}
	p := &tempProgram{path: path, toolchain: toolchain, logger: logger}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("writing temp program: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("writing temp program: %w", err)
	}
	return p, nil
}

// Release runs the toolchain cleaner on the program and deletes it. The
// cleaner's exit code is logged, never propagated. Release still runs the
// cleaner after ctx has been cancelled.
func (p *tempProgram) Release(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	code, err := p.toolchain.Cleanup(ctx, p.path)
	switch {
	case err != nil:
		p.logger.Warn("cleanup failed", "source", p.path, "err", err)
	case code != 0:
		p.logger.Debug("cleanup exited non-zero", "source", p.path, "exit_code", code)
	}
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		p.logger.Warn("removing temp program failed", "source", p.path, "err", err)
	}
}
