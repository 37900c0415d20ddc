//go:build unix

package core

import (
	"os"

	"golang.org/x/sys/unix"
)

func accessExecutable(path string, _ os.FileInfo) bool {
	return unix.Access(path, unix.X_OK) == nil
}
