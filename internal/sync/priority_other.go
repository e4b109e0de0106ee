//go:build windows

package sync

// lowerPriority is a no-op on platforms without a POSIX nice value.
func lowerPriority(niceValue int) {}
