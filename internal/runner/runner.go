// Package runner ties the pieces of one invocation together: it resolves a
// command name against the table, binds its placeholders and hands the
// resulting command lines to an executor.
package runner

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cesarferreira/robin/internal/command"
	"github.com/cesarferreira/robin/internal/executor"
	"github.com/cesarferreira/robin/internal/logging"
	"github.com/cesarferreira/robin/internal/notify"
	"github.com/cesarferreira/robin/internal/params"
	"github.com/fatih/color"
)

var titleColor = color.New(color.FgCyan, color.Bold)

// Runner executes command-table entries.
type Runner struct {
	Executor executor.Executor
	// Prompter supplies missing values in interactive mode.
	Prompter params.Prompter
	// QuoteParams shell-quotes bound values before substitution.
	QuoteParams bool
	// Out receives the "==> Running" title. Nil disables it.
	Out io.Writer
	// Notifier is told the outcome once the steps have run. Nil disables it.
	Notifier notify.Notifier
}

// Run finds name in table and executes it. Lookup is exact and
// case-sensitive; the first entry with that name wins.
func (r *Runner) Run(ctx context.Context, table command.Table, name string, flags params.Flags, interactive bool) error {
	entry, ok := table.Find(name)
	if !ok {
		return &command.NotFoundError{Name: name}
	}
	return r.Execute(ctx, entry, flags, interactive)
}

// Execute binds the entry's placeholders and runs its steps in order. Every
// step is resolved before the first one starts. A step with a non-zero exit
// code stops the sequence with an *executor.ExitError.
func (r *Runner) Execute(ctx context.Context, entry command.Entry, flags params.Flags, interactive bool) error {
	lines, err := r.Resolve(ctx, entry, flags, interactive)
	if err != nil {
		return err
	}

	if r.Out != nil {
		titleColor.Fprintf(r.Out, "==> Running: %s\n", entry.Name)
	}
	logging.Info().Str("name", entry.Name).Strs("lines", lines).Msg("running command")

	start := time.Now()
	err = r.runSteps(ctx, entry.Name, lines)
	r.notify(lines, err, time.Since(start))
	return err
}

func (r *Runner) runSteps(ctx context.Context, name string, lines []string) error {
	log := logging.With().Str("name", name).Int("steps", len(lines)).Logger()
	for i, line := range lines {
		// A step that survived an interrupt must not start the next one.
		if err := ctx.Err(); err != nil {
			log.Warn().Int("step", i+1).Msg("interrupted, skipping remaining steps")
			return err
		}
		log.Debug().Int("step", i+1).Msg("running step")
		code, err := r.Executor.Run(ctx, line)
		if err != nil {
			return err
		}
		if code != 0 {
			log.Info().Int("step", i+1).Int("code", code).Msg("step failed")
			return &executor.ExitError{Command: line, Code: code}
		}
	}
	return nil
}

// notify reports the outcome of the steps to the Notifier.
func (r *Runner) notify(lines []string, err error, elapsed time.Duration) {
	if r.Notifier == nil {
		return
	}
	ok := err == nil
	var msg string
	if len(lines) == 1 {
		subject := fmt.Sprintf("Command '%s'", firstWord(lines[0]))
		if ok {
			msg = subject + " completed in " + notify.Seconds(elapsed)
		} else {
			msg = subject + " failed"
		}
	} else if ok {
		msg = "Command sequence completed in " + notify.Seconds(elapsed)
	} else {
		msg = "Command sequence failed"
	}
	notify.Send(r.Notifier, "Robin", msg, ok)
}

func firstWord(line string) string {
	if fields := strings.Fields(line); len(fields) > 0 {
		return fields[0]
	}
	return line
}

// Resolve returns the entry's command lines with every placeholder
// substituted. Placeholders are collected across all steps in
// first-occurrence order and bound once.
func (r *Runner) Resolve(ctx context.Context, entry command.Entry, flags params.Flags, interactive bool) ([]string, error) {
	templates := entry.Templates()
	for _, tmpl := range templates {
		if err := command.Validate(tmpl); err != nil {
			return nil, err
		}
	}
	placeholders := command.Extract(templates...)

	var prompter params.Prompter
	if interactive {
		prompter = r.Prompter
	}
	bindings, err := params.Resolve(ctx, placeholders, flags, prompter)
	if err != nil {
		return nil, err
	}

	if r.QuoteParams {
		for name, value := range bindings {
			quoted, err := executor.Quote(value)
			if err != nil {
				return nil, err
			}
			bindings[name] = quoted
		}
	}

	lines := make([]string, len(templates))
	for i, tmpl := range templates {
		if lines[i], err = command.Substitute(tmpl, bindings); err != nil {
			return nil, err
		}
	}
	return lines, nil
}
