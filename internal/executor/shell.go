package executor

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cesarferreira/robin/internal/logging"
)

// Shell runs command lines through a shell binary.
type Shell struct {
	Path string
	Dir  string
	Env  []string
	IO   IO
}

// Run implements Executor. The child is never killed by robin: it shares
// the terminal's process group, so Ctrl-C reaches it directly, and Run
// waits for it to exit however long that takes. ctx is only consulted
// before the child starts.
func (s *Shell) Run(ctx context.Context, commandLine string) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	cmd := exec.Command(s.Path, shellFlag(s.Path), commandLine)
	cmd.Dir = s.Dir
	cmd.Env = s.Env
	cmd.Stdin = s.IO.Stdin
	cmd.Stdout = s.IO.Stdout
	cmd.Stderr = s.IO.Stderr

	logging.Debug().Str("shell", s.Path).Str("command", commandLine).Msg("exec")

	if err := cmd.Start(); err != nil {
		return -1, &SpawnError{Shell: s.Path, Err: err}
	}

	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitCode(exitErr.ProcessState), nil
	}
	return -1, err
}

// shellFlag returns the flag that makes the shell run a command string.
func shellFlag(shell string) string {
	base := strings.ToLower(filepath.Base(shell))
	switch strings.TrimSuffix(base, ".exe") {
	case "cmd":
		return "/C"
	case "powershell", "pwsh":
		return "-Command"
	default:
		return "-c"
	}
}
