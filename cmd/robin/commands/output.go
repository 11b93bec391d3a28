package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cesarferreira/robin/internal/command"
	"github.com/cesarferreira/robin/internal/executor"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

var (
	arrowColor = color.New(color.FgBlue)
	errorArrow = color.New(color.FgRed)
	boldText   = color.New(color.Bold)
	greyText   = color.New(color.FgHiBlack)
	okMark     = color.New(color.FgGreen)
	failMark   = color.New(color.FgRed)
)

// title prints "==> text".
func title(w io.Writer, format string, a ...any) {
	arrowColor.Fprint(w, "==>")
	boldText.Fprintf(w, " "+format+"\n", a...)
}

// titleError prints "==> text" with a red arrow.
func titleError(w io.Writer, format string, a ...any) {
	errorArrow.Fprint(w, "==>")
	boldText.Fprintf(w, " "+format+"\n", a...)
}

// ExitCode maps an error returned by Execute to a process exit status: the
// child's own status for a failed command, 130 for an interrupt, 1 for
// anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	var exitErr *executor.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}

// List output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeList prints the command table in the given format.
func writeList(w io.Writer, table command.Table, format string) error {
	switch strings.ToLower(format) {
	case "", formatText:
		width := 0
		for _, e := range table {
			width = max(width, len(e.Name))
		}
		for _, e := range table {
			arrowColor.Fprint(w, "==>")
			boldText.Fprintf(w, " %-*s", width, e.Name)
			greyText.Fprintf(w, "  # %s\n", e.Command)
		}
		return nil
	case formatJSON:
		entries := table
		if entries == nil {
			entries = command.Table{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode([]command.Entry(table)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (use text, json or yaml)", format)
	}
}
