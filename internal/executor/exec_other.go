//go:build !unix

package executor

import "os"

// exitCode returns the exit status of state.
func exitCode(state *os.ProcessState) int {
	code := state.ExitCode()
	if code < 0 {
		return 1
	}
	return code
}
