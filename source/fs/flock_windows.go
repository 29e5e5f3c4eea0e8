//go:build windows

package fs

// Saves on Windows rely on the atomic rename alone; no advisory lock is taken.
func flockExclusive(fd int) error {
	return nil
}

func flockUnlock(fd int) error {
	return nil
}

func isLockNotSupportedError(err error) bool {
	return false
}
