package params

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cesarferreira/robin/internal/command"
	"github.com/fatih/color"
)

// ErrNoInput is returned when the input ends before an answer is given.
var ErrNoInput = errors.New("no input for parameter prompt")

var (
	labelColor = color.New(color.FgCyan, color.Bold)
	hintColor  = color.New(color.Faint)
	warnColor  = color.New(color.FgYellow)
)

// LinePrompter reads one line per placeholder.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter creates a prompter reading answers from in and writing
// prompts to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Prompt asks for the value of p. Answers outside p's choices are asked again.
func (lp *LinePrompter) Prompt(ctx context.Context, p command.Placeholder) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		labelColor.Fprint(lp.out, p.Name)
		switch {
		case len(p.Choices) > 0:
			hintColor.Fprintf(lp.out, " (%s)", strings.Join(p.Choices, "|"))
		case p.HasDefault:
			hintColor.Fprintf(lp.out, " [%s]", p.Default)
		}
		fmt.Fprint(lp.out, ": ")

		line, err := lp.readLine(ctx)
		if ctx.Err() != nil {
			fmt.Fprintln(lp.out)
			return "", ctx.Err()
		}
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(lp.out)
				return "", ErrNoInput
			}
			return "", err
		}

		answer := strings.TrimRight(line, "\r\n")
		if len(p.Choices) == 0 || p.Allows(answer) {
			return answer, nil
		}
		warnColor.Fprintf(lp.out, "pick one of: %s\n", strings.Join(p.Choices, ", "))
	}
}

type lineResult struct {
	line string
	err  error
}

// readLine reads one line from the input, giving up when ctx is done. The
// prompter must not be used again after a cancel.
func (lp *LinePrompter) readLine(ctx context.Context) (string, error) {
	done := make(chan lineResult, 1)
	go func() {
		line, err := lp.in.ReadString('\n')
		done <- lineResult{line, err}
	}()
	select {
	case r := <-done:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
