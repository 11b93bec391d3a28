// Package doctor checks that the tools used by the project's scripts are
// installed and configured.
package doctor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cesarferreira/robin/internal/command"
)

// Tool is a program that scripts may depend on.
type Tool struct {
	Name       string
	Command    string
	VersionArg string
	// Patterns are command words that indicate the tool is used.
	Patterns []string
}

// KnownTools lists the tools doctor can detect.
var KnownTools = []Tool{
	{Name: "Node.js", Command: "node", VersionArg: "--version", Patterns: []string{"node", "npm", "npx"}},
	{Name: "Python", Command: "python", VersionArg: "--version", Patterns: []string{"python", "pip", "python3"}},
	{Name: "Ruby", Command: "ruby", VersionArg: "--version", Patterns: []string{"ruby", "gem", "bundle"}},
	{Name: "Fastlane", Command: "fastlane", VersionArg: "--version", Patterns: []string{"fastlane"}},
	{Name: "Flutter", Command: "flutter", VersionArg: "--version", Patterns: []string{"flutter"}},
	{Name: "Cargo", Command: "cargo", VersionArg: "--version", Patterns: []string{"cargo"}},
	{Name: "Go", Command: "go", VersionArg: "version", Patterns: []string{"go"}},
	{Name: "ADB", Command: "adb", VersionArg: "version", Patterns: []string{"adb"}},
	{Name: "Gradle", Command: "gradle", VersionArg: "--version", Patterns: []string{"gradle", "./gradlew"}},
	{Name: "CocoaPods", Command: "pod", VersionArg: "--version", Patterns: []string{"pod", "cocoapods"}},
	{Name: "Xcode CLI", Command: "xcrun", VersionArg: "--version", Patterns: []string{"xcrun", "xcodebuild"}},
	{Name: "Docker", Command: "docker", VersionArg: "--version", Patterns: []string{"docker"}},
	{Name: "Git", Command: "git", VersionArg: "--version", Patterns: []string{"git"}},
	{Name: "Maven", Command: "mvn", VersionArg: "--version", Patterns: []string{"mvn", "maven"}},
}

// Section groups checks in the report.
type Section string

const (
	SectionTools Section = "Required Tools"
	SectionEnv   Section = "Environment Variables"
	SectionGit   Section = "Git Configuration"
)

// Check is the outcome of one check.
type Check struct {
	Section Section `json:"section" yaml:"section"`
	Name    string  `json:"name" yaml:"name"`
	OK      bool    `json:"ok" yaml:"ok"`
	Detail  string  `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Report is the result of a doctor run.
type Report struct {
	Checks   []Check
	Duration time.Duration
}

// Passed counts the successful checks.
func (r Report) Passed() int {
	n := 0
	for _, c := range r.Checks {
		if c.OK {
			n++
		}
	}
	return n
}

// Failed counts the failed checks.
func (r Report) Failed() int { return len(r.Checks) - r.Passed() }

// OK reports whether every check passed.
func (r Report) OK() bool { return r.Failed() == 0 }

// Probe inspects the host.
type Probe interface {
	// Version runs "name arg" and returns the first line of its output.
	Version(ctx context.Context, name, arg string) (string, error)
	// Getenv reports whether an environment variable is set.
	Getenv(key string) (string, bool)
	// GitConfig reports whether a git config key has a value.
	GitConfig(ctx context.Context, key string) bool
}

// Detect returns the known tools used by any script in table.
func Detect(table command.Table) []Tool {
	var tools []Tool
	for _, tool := range KnownTools {
		if usesAny(table, tool.Patterns...) {
			tools = append(tools, tool)
		}
	}
	return tools
}

// Run checks the detected tools, the environment variables they need and
// the git identity when git is used.
func Run(ctx context.Context, table command.Table, probe Probe) Report {
	start := time.Now()
	var report Report

	tools := Detect(table)
	needsAndroid := false
	for _, tool := range tools {
		check := Check{Section: SectionTools, Name: tool.Name}
		version, err := probe.Version(ctx, tool.Command, tool.VersionArg)
		if err == nil {
			check.OK = true
			check.Detail = version
		} else {
			check.Detail = "not found"
		}
		report.Checks = append(report.Checks, check)
		if tool.Command == "flutter" {
			needsAndroid = true
		}
	}

	needsJava := needsAndroid || usesAny(table, "java", "gradle", "./gradlew")
	if needsAndroid {
		report.Checks = append(report.Checks, envCheck(probe, "ANDROID_HOME"))
	}
	if needsJava {
		report.Checks = append(report.Checks, envCheck(probe, "JAVA_HOME"))
	}

	if usesAny(table, "git") {
		for _, key := range []string{"user.name", "user.email"} {
			check := Check{Section: SectionGit, Name: key, OK: probe.GitConfig(ctx, key)}
			if !check.OK {
				check.Detail = "not set"
			}
			report.Checks = append(report.Checks, check)
		}
	}

	report.Duration = time.Since(start)
	return report
}

func envCheck(probe Probe, key string) Check {
	check := Check{Section: SectionEnv, Name: key}
	if v, ok := probe.Getenv(key); ok {
		check.OK = true
		check.Detail = v
	} else {
		check.Detail = "not set"
	}
	return check
}

func usesAny(table command.Table, words ...string) bool {
	for _, e := range table {
		for _, tmpl := range e.Templates() {
			for _, w := range words {
				if usesWord(tmpl, w) {
					return true
				}
			}
		}
	}
	return false
}

// usesWord reports whether word appears in template as a command word:
// preceded by start, whitespace or a shell operator and followed by
// whitespace or the end.
func usesWord(template, word string) bool {
	for i := 0; ; {
		j := strings.Index(template[i:], word)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(word)
		before := start == 0 || strings.ContainsRune(" \t\n;&|(", rune(template[start-1]))
		after := end == len(template) || strings.ContainsRune(" \t\n", rune(template[end]))
		if before && after {
			return true
		}
		i = start + 1
	}
}

// HostProbe inspects the real machine.
type HostProbe struct {
	// Timeout bounds each version command. Zero means no limit.
	Timeout time.Duration
}

// Version implements Probe.
func (p HostProbe) Version(ctx context.Context, name, arg string) (string, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	out, err := exec.CommandContext(ctx, name, arg).Output()
	if err != nil {
		return "", err
	}
	line, _, _ := bytes.Cut(out, []byte("\n"))
	return strings.TrimSpace(string(line)), nil
}

// Getenv implements Probe.
func (HostProbe) Getenv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// GitConfig implements Probe.
func (HostProbe) GitConfig(ctx context.Context, key string) bool {
	return exec.CommandContext(ctx, "git", "config", key).Run() == nil
}
