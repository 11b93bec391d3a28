package doctor

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/cesarferreira/robin/internal/command"
	"github.com/cesarferreira/robin/internal/executor"
	"github.com/cesarferreira/robin/internal/logging"
)

// Updater upgrades the tools it serves.
type Updater struct {
	// Label names what gets updated in the report.
	Label string
	// Tools are the detected tool names that call for this updater.
	Tools []string
	// Command is the updater binary; it must answer --version to be used.
	Command string
	// Line is the command line that performs the update.
	Line string
	// GOOS restricts the updater to one platform when set.
	GOOS string
}

// Updaters lists the updates doctor update knows how to run.
var Updaters = []Updater{
	{Label: "npm packages", Tools: []string{"Node.js"}, Command: "npm", Line: "npm update -g"},
	{Label: "Fastlane", Tools: []string{"Ruby", "Fastlane"}, Command: "gem", Line: "gem update fastlane"},
	{Label: "Flutter", Tools: []string{"Flutter"}, Command: "flutter", Line: "flutter upgrade"},
	{Label: "Rust", Tools: []string{"Cargo"}, Command: "rustup", Line: "rustup update"},
	{Label: "CocoaPods", Tools: []string{"CocoaPods"}, Command: "pod", Line: "pod repo update", GOOS: "darwin"},
}

var goos = runtime.GOOS

// Plan returns the updaters for the tools used by table whose updater
// binary is installed, each at most once.
func Plan(ctx context.Context, table command.Table, probe Probe) []Updater {
	detected := make(map[string]bool)
	for _, tool := range Detect(table) {
		detected[tool.Name] = true
	}

	var plan []Updater
	for _, u := range Updaters {
		if u.GOOS != "" && u.GOOS != goos {
			continue
		}
		if !slices.ContainsFunc(u.Tools, func(name string) bool { return detected[name] }) {
			continue
		}
		if _, err := probe.Version(ctx, u.Command, "--version"); err != nil {
			logging.Info().Str("updater", u.Command).Msg("updater not installed, skipping")
			continue
		}
		plan = append(plan, u)
	}
	return plan
}

// UpdateResult is the outcome of one updater.
type UpdateResult struct {
	Label  string `json:"label" yaml:"label"`
	Line   string `json:"command" yaml:"command"`
	OK     bool   `json:"ok" yaml:"ok"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// UpdateReport is the result of a doctor update run.
type UpdateReport struct {
	Results  []UpdateResult
	Duration time.Duration
}

// OK reports whether every update succeeded.
func (r UpdateReport) OK() bool {
	for _, res := range r.Results {
		if !res.OK {
			return false
		}
	}
	return true
}

// Apply runs the planned updates in order through exec. A failed update does
// not stop the others. before, when set, is called ahead of each update.
func Apply(ctx context.Context, plan []Updater, exec executor.Executor, before func(Updater)) UpdateReport {
	start := time.Now()
	var report UpdateReport
	for _, u := range plan {
		if ctx.Err() != nil {
			break
		}
		if before != nil {
			before(u)
		}
		res := UpdateResult{Label: u.Label, Line: u.Line}
		code, err := exec.Run(ctx, u.Line)
		switch {
		case err != nil:
			res.Detail = err.Error()
		case code != 0:
			res.Detail = fmt.Sprintf("exit status %d", code)
		default:
			res.OK = true
		}
		if !res.OK {
			logging.Info().Str("updater", u.Label).Str("detail", res.Detail).Msg("update failed")
		}
		report.Results = append(report.Results, res)
	}
	report.Duration = time.Since(start)
	return report
}
