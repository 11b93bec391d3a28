package executor

import (
	"context"
	"errors"
	"strings"

	"github.com/cesarferreira/robin/internal/logging"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Builtin runs command lines with the embedded POSIX interpreter. External
// programs are still started as child processes.
type Builtin struct {
	Dir string
	Env []string
	IO  IO
}

// Run implements Executor. Like Shell it leaves interrupting the program to
// the terminal, so cancelling ctx after the start has no effect.
func (b *Builtin) Run(ctx context.Context, commandLine string) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	prog, err := parser.Parse(strings.NewReader(commandLine), "")
	if err != nil {
		return -1, &SpawnError{Shell: ShellBuiltin, Err: err}
	}

	opts := []interp.RunnerOption{
		interp.StdIO(b.IO.Stdin, b.IO.Stdout, b.IO.Stderr),
	}
	if b.Env != nil {
		opts = append(opts, interp.Env(expand.ListEnviron(b.Env...)))
	}
	if b.Dir != "" {
		opts = append(opts, interp.Dir(b.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return -1, &SpawnError{Shell: ShellBuiltin, Err: err}
	}

	logging.Debug().Str("shell", ShellBuiltin).Str("command", commandLine).Msg("exec")

	err = runner.Run(context.WithoutCancel(ctx), prog)
	if err == nil {
		return 0, nil
	}

	var status interp.ExitStatus
	if errors.As(err, &status) {
		return int(status), nil
	}
	return -1, err
}

// Check reports whether commandLine parses as a shell program.
func Check(commandLine string) error {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	_, err := parser.Parse(strings.NewReader(commandLine), "")
	return err
}
