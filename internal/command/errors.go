package command

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when no command matches the typed name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("command not found: %q", e.Name)
}

// MissingParametersError lists placeholders that have no value.
type MissingParametersError struct {
	Names []string
}

func (e *MissingParametersError) Error() string {
	flags := make([]string, len(e.Names))
	for i, n := range e.Names {
		flags[i] = "--" + n + "=<value>"
	}
	return fmt.Sprintf("missing parameters: %s (pass %s)",
		strings.Join(e.Names, ", "), strings.Join(flags, " "))
}

// InvalidParameterError is returned when a value is not one of the allowed choices.
type InvalidParameterError struct {
	Name    string
	Value   string
	Choices []string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("value %q for %s must be one of: %s",
		e.Value, e.Name, strings.Join(e.Choices, ", "))
}

// MalformedPlaceholderError is returned for a token that looks like a
// placeholder but cannot be bound.
type MalformedPlaceholderError struct {
	Token string
}

func (e *MalformedPlaceholderError) Error() string {
	return fmt.Sprintf("malformed placeholder %s: names use letters, digits and _ with no spaces, e.g. {{name}}", e.Token)
}
