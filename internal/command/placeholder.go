package command

import (
	"regexp"
	"strings"
)

// placeholderPattern matches {{name}}, {{name=default}} and {{name=[a,b]}}.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)(?:=(\[[^\]]*\]|[^}]*))?\}\}`)

// lookalikePattern matches tokens that read as a placeholder, including
// ones with spaces around the name or a dash in it. Other {{...}} content,
// such as docker's {{.Names}}, is left to the shell.
var lookalikePattern = regexp.MustCompile(`\{\{\s*[A-Za-z0-9_-]+\s*(?:=[^}]*)?\}\}`)

// Placeholder is a named slot in a command template.
type Placeholder struct {
	Name       string
	Default    string
	HasDefault bool
	// Choices restricts the accepted values when non-empty.
	Choices []string
}

// Allows reports whether value is acceptable for the placeholder.
func (p Placeholder) Allows(value string) bool {
	if len(p.Choices) == 0 {
		return true
	}
	for _, c := range p.Choices {
		if c == value {
			return true
		}
	}
	return false
}

// Bindings maps placeholder names to their resolved values.
type Bindings map[string]string

// token is one placeholder occurrence in a template.
type token struct {
	start, end  int
	placeholder Placeholder
}

// tokenize returns every placeholder occurrence in template, left to right.
func tokenize(template string) []token {
	matches := placeholderPattern.FindAllStringSubmatchIndex(template, -1)
	tokens := make([]token, 0, len(matches))
	for _, m := range matches {
		p := Placeholder{Name: template[m[2]:m[3]]}
		if m[4] >= 0 {
			opt := template[m[4]:m[5]]
			if strings.HasPrefix(opt, "[") && strings.HasSuffix(opt, "]") {
				p.Choices = parseChoices(opt[1 : len(opt)-1])
			} else {
				p.Default = opt
				p.HasDefault = true
			}
		}
		tokens = append(tokens, token{start: m[0], end: m[1], placeholder: p})
	}
	return tokens
}

func parseChoices(list string) []string {
	var choices []string
	for _, c := range strings.Split(list, ",") {
		if c = strings.TrimSpace(c); c != "" {
			choices = append(choices, c)
		}
	}
	return choices
}

// Validate returns a *MalformedPlaceholderError for the first token in
// template that reads as a placeholder but does not follow the placeholder
// grammar, e.g. {{ name }} or {{my-name}}.
func Validate(template string) error {
	valid := make(map[int]bool)
	for _, tok := range tokenize(template) {
		valid[tok.start] = true
	}
	for _, m := range lookalikePattern.FindAllStringIndex(template, -1) {
		if !valid[m[0]] {
			return &MalformedPlaceholderError{Token: template[m[0]:m[1]]}
		}
	}
	return nil
}

// Extract returns the distinct placeholders of the given templates in
// first-occurrence order. The first occurrence of a name defines its default
// and choices.
func Extract(templates ...string) []Placeholder {
	seen := make(map[string]bool)
	var out []Placeholder
	for _, tmpl := range templates {
		for _, tok := range tokenize(tmpl) {
			if seen[tok.placeholder.Name] {
				continue
			}
			seen[tok.placeholder.Name] = true
			out = append(out, tok.placeholder)
		}
	}
	return out
}

// Names returns the names of the given placeholders.
func Names(placeholders []Placeholder) []string {
	names := make([]string, len(placeholders))
	for i, p := range placeholders {
		names[i] = p.Name
	}
	return names
}

// Substitute replaces every placeholder occurrence in template with its bound
// value. If any placeholder is unbound nothing is substituted and a
// *MissingParametersError is returned.
func Substitute(template string, bindings Bindings) (string, error) {
	tokens := tokenize(template)

	var missing []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		name := tok.placeholder.Name
		if _, ok := bindings[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return "", &MissingParametersError{Names: missing}
	}

	var sb strings.Builder
	last := 0
	for _, tok := range tokens {
		sb.WriteString(template[last:tok.start])
		sb.WriteString(bindings[tok.placeholder.Name])
		last = tok.end
	}
	sb.WriteString(template[last:])
	return sb.String(), nil
}
