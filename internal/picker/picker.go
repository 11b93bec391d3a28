package picker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cesarferreira/robin/internal/command"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrEmptyTable is returned when there is nothing to choose from.
var ErrEmptyTable = errors.New("no commands to choose from")

// Choose runs the picker on the given terminal streams and returns the
// selected entry. It returns false when the user cancels.
func Choose(ctx context.Context, table command.Table, query string, in io.Reader, out io.Writer) (command.Entry, bool, error) {
	if len(table) == 0 {
		return command.Entry{}, false, ErrEmptyTable
	}

	program := tea.NewProgram(
		NewModel(table, query),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return command.Entry{}, false, ctx.Err()
		}
		return command.Entry{}, false, fmt.Errorf("picker: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return command.Entry{}, false, fmt.Errorf("picker: unexpected model %T", final)
	}
	entry, chosen := m.Chosen()
	return entry, chosen, nil
}
