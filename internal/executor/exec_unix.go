//go:build unix

package executor

import (
	"os"
	"syscall"
)

// exitCode returns the status a POSIX shell would report for state: the
// exit status, or 128 plus the signal number for a child killed by a signal.
func exitCode(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
