//go:build !windows

package sync

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/llmc/ragcore/internal/logging"
)

// lowerPriority drops the controller process to a nice value so a heavy
// enrichment cycle doesn't starve the rest of the host.
func lowerPriority(niceValue int) {
	if err := unix.Setpriority(unix.PRIO_PROCESS, os.Getpid(), niceValue); err != nil {
		logging.For(logging.CategorySync).Warnw("failed to lower process priority", "err", err)
	}
}
