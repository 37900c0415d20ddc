package core

import (
	"path/filepath"
	"time"
)

// ArtifactSuffix is appended to a script path to name its compiled artifact.
const ArtifactSuffix = ".bin"

// ArtifactPath returns the compiled artifact path for a script.
//
// The mapping is fixed so that separate invocations agree on it: a relative
// script "s" maps to "./s.bin", an absolute script "/p/s" to "/p/s.bin".
func ArtifactPath(script string) string {
	if filepath.IsAbs(script) {
		return script + ArtifactSuffix
	}
	return "./" + script + ArtifactSuffix
}

// CompiledArtifact describes an artifact found on disk.
type CompiledArtifact struct {
	// Path is the artifact location as produced by ArtifactPath.
	Path string

	// ModTime is the freshness oracle compared against the script.
	ModTime time.Time
}

// FresherThan reports whether the artifact is strictly newer than source.
func (a CompiledArtifact) FresherThan(source time.Time) bool {
	return a.ModTime.After(source)
}
