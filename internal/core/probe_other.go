//go:build !unix

package core

import "os"

func accessExecutable(_ string, info os.FileInfo) bool {
	return info.Mode().Perm()&0o111 != 0
}
