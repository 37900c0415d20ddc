package core

import "os"

// FSProber probes the real filesystem.
type FSProber struct{}

// IsExecutable reports whether path is a regular file with execute permission
// for the current user. Directories never count as scripts.
func (FSProber) IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return accessExecutable(path, info)
}
