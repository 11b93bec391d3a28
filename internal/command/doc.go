// Package command provides the command table and the placeholder engine for Robin.
//
// A command table is the ordered list of named shell templates loaded from the
// project's .robin.json. Lookup is exact and case-sensitive; when a name is
// declared twice the first declaration wins.
//
// # Templates
//
// A template is a shell command line that may contain placeholders:
//
//   - {{name}} is a required parameter
//   - {{name=default}} falls back to default when no value is supplied
//   - {{name=[a,b,c]}} only accepts one of the listed choices
//
// Identifiers match [A-Za-z0-9_]+. Extract returns the distinct placeholders in
// first-occurrence order, and Substitute replaces every occurrence of every
// placeholder or fails without producing a partially substituted string.
//
// # Example Usage
//
//	entry, ok := table.Find("greet")
//	if !ok {
//		return &command.NotFoundError{Name: "greet"}
//	}
//
//	resolved, err := command.Substitute(entry.Command, command.Bindings{"who": "world"})
//	if err != nil {
//		return err // *command.MissingParametersError
//	}
package command
