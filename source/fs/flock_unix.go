//go:build unix

package fs

import (
	"errors"
	"syscall"
)

func flockExclusive(fd int) error {
	return syscall.Flock(fd, syscall.LOCK_EX)
}

func flockUnlock(fd int) error {
	return syscall.Flock(fd, syscall.LOCK_UN)
}

// isLockNotSupportedError reports whether err means the filesystem cannot
// lock (ENOTSUP, EOPNOTSUPP, ENOLCK), as seen on NFS and SMB mounts.
func isLockNotSupportedError(err error) bool {
	return errors.Is(err, syscall.ENOTSUP) ||
		errors.Is(err, syscall.EOPNOTSUPP) ||
		errors.Is(err, syscall.ENOLCK)
}
