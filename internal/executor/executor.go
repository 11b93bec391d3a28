// Package executor runs resolved command lines.
//
// Three implementations share the Executor interface:
//
//   - Shell hands the line to the host shell (sh -c, or cmd /C on Windows)
//     with the parent's standard streams attached.
//   - Builtin interprets the line with the POSIX interpreter from
//     mvdan.cc/sh, so scripts behave the same on every platform.
//   - DryRun prints the line instead of running it.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
)

// Executor runs one fully substituted command line and reports the child's
// exit code. A non-nil error means the command could not be started.
type Executor interface {
	Run(ctx context.Context, commandLine string) (int, error)
}

// SpawnError is returned when the interpreter cannot be started.
type SpawnError struct {
	Shell string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Shell, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExitError reports a command that finished with a non-zero status.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d: %s", e.Code, e.Command)
}

// IO holds the standard streams given to commands.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// StdIO returns the process's own standard streams.
func StdIO() IO {
	return IO{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Options selects and configures an executor.
type Options struct {
	// Shell is "" for the host shell, "builtin" for the embedded
	// interpreter, or the path or name of a shell binary.
	Shell string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is the child environment. Nil means the parent's environment.
	Env []string
	// DryRun prints command lines instead of running them.
	DryRun bool
	IO     IO
}

// ShellBuiltin selects the embedded interpreter.
const ShellBuiltin = "builtin"

// New returns the executor described by opts.
func New(opts Options) Executor {
	if opts.IO.Stdin == nil && opts.IO.Stdout == nil && opts.IO.Stderr == nil {
		opts.IO = StdIO()
	}
	switch {
	case opts.DryRun:
		return &DryRun{Out: opts.IO.Stdout}
	case opts.Shell == ShellBuiltin:
		return &Builtin{Dir: opts.Dir, Env: opts.Env, IO: opts.IO}
	default:
		shell := opts.Shell
		if shell == "" {
			shell = detectShell()
		}
		return &Shell{Path: shell, Dir: opts.Dir, Env: opts.Env, IO: opts.IO}
	}
}

// detectShell returns the host's command interpreter.
func detectShell() string {
	if runtime.GOOS == "windows" {
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return comspec
		}
		return "cmd.exe"
	}
	return "sh"
}

// DryRun writes each command line to Out and reports success.
type DryRun struct {
	Out io.Writer
}

// Run implements Executor.
func (d *DryRun) Run(_ context.Context, commandLine string) (int, error) {
	_, err := fmt.Fprintln(d.Out, commandLine)
	return 0, err
}
