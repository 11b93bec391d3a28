package commands

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/cesarferreira/robin/internal/config"
	"github.com/cesarferreira/robin/internal/executor"
	"github.com/cesarferreira/robin/internal/logging"
	"github.com/cesarferreira/robin/internal/notify"
	"github.com/cesarferreira/robin/internal/params"
	"github.com/cesarferreira/robin/internal/picker"
	"github.com/cesarferreira/robin/internal/runner"
	"golang.org/x/term"
)

// invocation carries what one run of robin works with.
type invocation struct {
	dir    string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	dryRun bool
	prompt bool
	// notify is told the outcome of the run; nil disables notifications.
	notify notify.Notifier
}

// project is a loaded config plus the runner configured from it.
type project struct {
	cfg    *config.Config
	runner *runner.Runner
}

// loadProject loads the config in inv.dir and builds a runner for it.
func loadProject(inv invocation) (*project, error) {
	store := config.NewStore(nil, inv.dir)
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}
	logging.Debug().Str("path", cfg.Path).Int("scripts", len(cfg.Scripts)).Msg("config loaded")

	env, err := executor.Environ(store.Fs(), inv.dir, os.Environ(), cfg.Env)
	if err != nil {
		return nil, err
	}

	exec := executor.New(executor.Options{
		Shell:  cfg.Shell,
		Dir:    inv.dir,
		Env:    env,
		DryRun: inv.dryRun,
		IO:     executor.IO{Stdin: inv.stdin, Stdout: inv.stdout, Stderr: inv.stderr},
	})

	r := &runner.Runner{
		Executor:    exec,
		Prompter:    params.NewLinePrompter(inv.stdin, inv.stdout),
		QuoteParams: cfg.QuoteParams,
	}
	if !inv.dryRun {
		r.Out = inv.stdout
		r.Notifier = inv.notify
	}
	return &project{cfg: cfg, runner: r}, nil
}

// runScript resolves the command named by the leading words of args and runs
// it with the remaining --param flags.
func runScript(ctx context.Context, inv invocation, args []string) error {
	p, err := loadProject(inv)
	if err != nil {
		return err
	}
	name, flags := params.ParseArgs(args)
	logging.Debug().Str("name", name).Int("flags", len(flags)).Msg("resolving command")
	return p.runner.Run(ctx, p.cfg.Scripts, name, flags, inv.prompt)
}

// errNotTerminal is returned when the picker is started without a terminal.
var errNotTerminal = errors.New("interactive mode needs a terminal")

// runInteractive lets the user pick a script and runs it, asking for any
// parameter it needs.
func runInteractive(ctx context.Context, inv invocation, query string) error {
	p, err := loadProject(inv)
	if err != nil {
		return err
	}
	if !isTerminal(inv.stdin) {
		return errNotTerminal
	}

	entry, ok, err := picker.Choose(ctx, p.cfg.Scripts, query, inv.stdin, inv.stderr)
	if err != nil {
		return err
	}
	if !ok {
		logging.Debug().Msg("picker canceled")
		return nil
	}
	return p.runner.Execute(ctx, entry, nil, true)
}

// runList prints the scripts of the project.
func runList(inv invocation, format string) error {
	store := config.NewStore(nil, inv.dir)
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	return writeList(inv.stdout, cfg.Scripts, format)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
