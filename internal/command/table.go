package command

import "strings"

// Entry is a named command template from the project config.
type Entry struct {
	Name string `json:"name" yaml:"name"`
	// Command is the template as shown to the user. For a sequence it is the
	// steps joined with " && ".
	Command string `json:"command" yaml:"command"`
	// Steps holds the individual templates of a sequence. It is nil for a
	// single command.
	Steps []string `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// NewEntry creates a single-command entry.
func NewEntry(name, template string) Entry {
	return Entry{Name: name, Command: template}
}

// NewSequence creates an entry that runs its steps one after another.
func NewSequence(name string, steps []string) Entry {
	return Entry{
		Name:    name,
		Command: strings.Join(steps, " && "),
		Steps:   append([]string(nil), steps...),
	}
}

// IsSequence reports whether the entry was declared as an array of steps.
func (e Entry) IsSequence() bool {
	return e.Steps != nil
}

// Templates returns the templates to execute, in order.
func (e Entry) Templates() []string {
	if e.IsSequence() {
		return e.Steps
	}
	return []string{e.Command}
}

// Table is the ordered set of commands loaded for one invocation.
type Table []Entry

// Find returns the first entry whose name equals name exactly.
func (t Table) Find(name string) (Entry, bool) {
	for _, e := range t {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Has reports whether an entry named name exists.
func (t Table) Has(name string) bool {
	_, ok := t.Find(name)
	return ok
}

// Names returns the entry names in declaration order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for _, e := range t {
		names = append(names, e.Name)
	}
	return names
}

// Merge appends the entries of other whose names are not yet present.
func (t Table) Merge(other Table) Table {
	out := append(Table(nil), t...)
	for _, e := range other {
		if !out.Has(e.Name) {
			out = append(out, e)
		}
	}
	return out
}
