// Package params collects placeholder values from command-line flags and
// interactive prompts.
package params

import (
	"context"
	"strings"

	"github.com/cesarferreira/robin/internal/command"
)

// Flags maps parameter names to the values given on the command line.
// A key that is present with an empty value is treated as not supplied.
type Flags map[string]string

// Value returns the flag value and whether a non-empty one was given.
func (f Flags) Value(name string) (string, bool) {
	v, ok := f[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ParseArgs splits the words following robin's own flags into the command
// name and parameter flags. Positional words up to the first flag form the
// name, joined with a single space. Accepted flag forms are --key=value,
// --key value and a bare --key, which binds "true". Words after the first
// flag that are not consumed as a value are ignored.
func ParseArgs(args []string) (name string, flags Flags) {
	flags = make(Flags)
	var words []string
	i := 0
	for ; i < len(args) && !isFlag(args[i]); i++ {
		words = append(words, args[i])
	}
	for ; i < len(args); i++ {
		arg := args[i]
		if !isFlag(arg) {
			continue
		}
		key := strings.TrimLeft(arg, "-")
		if k, v, ok := strings.Cut(key, "="); ok {
			setFirst(flags, k, v)
			continue
		}
		if i+1 < len(args) && !isFlag(args[i+1]) {
			setFirst(flags, key, args[i+1])
			i++
			continue
		}
		setFirst(flags, key, "true")
	}
	return strings.Join(words, " "), flags
}

func isFlag(arg string) bool {
	return strings.HasPrefix(arg, "-") && strings.TrimLeft(arg, "-") != ""
}

// setFirst keeps the first value given for a key.
func setFirst(flags Flags, key, value string) {
	if key == "" {
		return
	}
	if _, ok := flags[key]; !ok {
		flags[key] = value
	}
}

// Prompter asks the user for the value of one placeholder.
type Prompter interface {
	Prompt(ctx context.Context, p command.Placeholder) (string, error)
}

// Resolve binds every placeholder, in order: a non-empty flag value first,
// then a prompt answer when prompter is non-nil, then the placeholder's
// default. A nil prompter means non-interactive mode, where placeholders
// left without a value fail with *command.MissingParametersError. Values
// outside a placeholder's choices fail with *command.InvalidParameterError.
func Resolve(ctx context.Context, placeholders []command.Placeholder, flags Flags, prompter Prompter) (command.Bindings, error) {
	bindings := make(command.Bindings, len(placeholders))
	var missing []string

	for _, p := range placeholders {
		value, ok := flags.Value(p.Name)
		if !ok && prompter != nil {
			answer, err := prompter.Prompt(ctx, p)
			if err != nil {
				return nil, err
			}
			value, ok = answer, true
			if answer == "" && (p.HasDefault || len(p.Choices) > 0) {
				ok = false
			}
		}
		if !ok && p.HasDefault {
			value, ok = p.Default, true
		}
		if !ok {
			missing = append(missing, p.Name)
			continue
		}
		if !p.Allows(value) {
			return nil, &command.InvalidParameterError{Name: p.Name, Value: value, Choices: p.Choices}
		}
		bindings[p.Name] = value
	}

	if len(missing) > 0 {
		return nil, &command.MissingParametersError{Names: missing}
	}
	return bindings, nil
}
