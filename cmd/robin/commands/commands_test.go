package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cesarferreira/robin/internal/command"
	"github.com/cesarferreira/robin/internal/config"
	"github.com/cesarferreira/robin/internal/doctor"
	"github.com/cesarferreira/robin/internal/executor"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0644))
	return dir
}

func newInvocation(dir string, stdout *bytes.Buffer) invocation {
	return invocation{
		dir:    dir,
		stdin:  strings.NewReader(""),
		stdout: stdout,
		stderr: &bytes.Buffer{},
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 1, ExitCode(config.ErrConfigMissing))
	assert.Equal(t, 3, ExitCode(&executor.ExitError{Command: "x", Code: 3}))
	assert.Equal(t, 1, ExitCode(&executor.SpawnError{Shell: "sh", Err: errors.New("x")}))
	assert.Equal(t, 130, ExitCode(context.Canceled))
}

func TestRunScriptDryRun(t *testing.T) {
	dir := writeConfig(t, `{"scripts": {"greet": "echo {{who}}", "deploy staging": "deploy --tag {{tag=latest}}"}}`)

	var out bytes.Buffer
	inv := newInvocation(dir, &out)
	inv.dryRun = true

	require.NoError(t, runScript(context.Background(), inv, []string{"greet", "--who=world"}))
	require.NoError(t, runScript(context.Background(), inv, []string{"deploy", "staging"}))
	assert.Equal(t, "echo world\ndeploy --tag latest\n", out.String())
}

func TestRunScriptBuiltinShell(t *testing.T) {
	dir := writeConfig(t, `{"shell": "builtin", "scripts": {"greet": "echo hello {{who}}"}}`)

	var out bytes.Buffer
	require.NoError(t, runScript(context.Background(), newInvocation(dir, &out), []string{"greet", "--who", "robin"}))
	assert.Contains(t, out.String(), "==> Running: greet")
	assert.Contains(t, out.String(), "hello robin\n")
}

func TestRunScriptExitStatus(t *testing.T) {
	dir := writeConfig(t, `{"shell": "builtin", "scripts": {"fail": "exit 7"}}`)

	err := runScript(context.Background(), newInvocation(dir, &bytes.Buffer{}), []string{"fail"})
	assert.Equal(t, 7, ExitCode(err))
}

func TestRunScriptEnvFile(t *testing.T) {
	dir := writeConfig(t, `{"shell": "builtin", "env": [".env"], "scripts": {"show": "echo $ROBIN_TEST_GREETING"}}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ROBIN_TEST_GREETING=from-dotenv\n"), 0644))

	var out bytes.Buffer
	require.NoError(t, runScript(context.Background(), newInvocation(dir, &out), []string{"show"}))
	assert.Contains(t, out.String(), "from-dotenv\n")
}

func TestRunScriptErrors(t *testing.T) {
	dir := writeConfig(t, `{"scripts": {"greet": "echo {{who}}"}}`)
	inv := newInvocation(dir, &bytes.Buffer{})

	err := runScript(context.Background(), inv, []string{"nope"})
	assert.IsType(t, &command.NotFoundError{}, err)

	err = runScript(context.Background(), inv, []string{"greet"})
	assert.IsType(t, &command.MissingParametersError{}, err)

	err = runScript(context.Background(), newInvocation(t.TempDir(), &bytes.Buffer{}), []string{"greet"})
	assert.ErrorIs(t, err, config.ErrConfigMissing)
}

func TestRunScriptPrompt(t *testing.T) {
	dir := writeConfig(t, `{"scripts": {"greet": "echo {{who}}"}}`)

	var out bytes.Buffer
	inv := newInvocation(dir, &out)
	inv.dryRun = true
	inv.prompt = true
	inv.stdin = strings.NewReader("prompted\n")

	require.NoError(t, runScript(context.Background(), inv, []string{"greet"}))
	assert.Contains(t, out.String(), "echo prompted\n")
}

func TestRunInteractiveNeedsTerminal(t *testing.T) {
	dir := writeConfig(t, `{"scripts": {"greet": "echo hi"}}`)

	err := runInteractive(context.Background(), newInvocation(dir, &bytes.Buffer{}), "")
	assert.ErrorIs(t, err, errNotTerminal)
}

var listTable = command.Table{
	command.NewEntry("clean", "rm -rf dist"),
	command.NewSequence("ci", []string{"go vet ./...", "go test ./..."}),
}

func TestWriteListText(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeList(&out, listTable, formatText))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "==> clean  # rm -rf dist", lines[0])
	assert.Equal(t, "==> ci     # go vet ./... && go test ./...", lines[1])
}

func TestWriteListJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeList(&out, listTable, formatJSON))

	var entries []command.Entry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	assert.Equal(t, []command.Entry(listTable), entries)

	out.Reset()
	require.NoError(t, writeList(&out, nil, formatJSON))
	assert.Equal(t, "[]\n", out.String())
}

func TestWriteListYAML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeList(&out, listTable, "YAML"))

	var entries []command.Entry
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &entries))
	assert.Equal(t, []command.Entry(listTable), entries)
}

func TestWriteListUnknownFormat(t *testing.T) {
	assert.Error(t, writeList(&bytes.Buffer{}, listTable, "xml"))
}

func TestParseRootFlagsStopsAtCommandName(t *testing.T) {
	var list, dryRun bool
	var level string
	cmd := &cobra.Command{Use: "robin"}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "")
	cmd.PersistentFlags().StringVar(&level, "log-level", "", "")

	rest, err := parseRootFlags(cmd, []string{"--dry-run", "--log-level", "DEBUG", "greet", "--list", "--who=x"})
	require.NoError(t, err)
	assert.True(t, dryRun)
	assert.Equal(t, "DEBUG", level)
	assert.False(t, list, "flags after the command name belong to the script")
	assert.Equal(t, []string{"greet", "--list", "--who=x"}, rest)
}

func TestParseRootFlagsUnknown(t *testing.T) {
	cmd := &cobra.Command{Use: "robin"}
	_, err := parseRootFlags(cmd, []string{"--nope", "greet"})
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	var out bytes.Buffer
	writeReport(&out, doctor.Report{Checks: []doctor.Check{
		{Section: doctor.SectionTools, Name: "Go", OK: true, Detail: "go version go1.24.0"},
		{Section: doctor.SectionEnv, Name: "JAVA_HOME", Detail: "not set"},
	}})

	text := out.String()
	assert.Contains(t, text, "==> Required Tools")
	assert.Contains(t, text, "✓ Go  go version go1.24.0")
	assert.Contains(t, text, "==> Environment Variables")
	assert.Contains(t, text, "✗ JAVA_HOME  not set")
	assert.Contains(t, text, "1 passed, 1 failed")
}

func TestWriteReportEmpty(t *testing.T) {
	var out bytes.Buffer
	writeReport(&out, doctor.Report{})
	assert.Contains(t, out.String(), "No known tools")
}

type recordingNotifier struct {
	titles   []string
	messages []string
}

func (n *recordingNotifier) Notify(title, message string, _ bool) error {
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
	return nil
}

type hostStub struct {
	versions map[string]string
}

func (h hostStub) Version(_ context.Context, name, _ string) (string, error) {
	if v, ok := h.versions[name]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func (hostStub) Getenv(string) (string, bool)           { return "", false }
func (hostStub) GitConfig(context.Context, string) bool { return true }

type recordingExecutor struct {
	ran   []string
	codes map[string]int
}

func (e *recordingExecutor) Run(_ context.Context, line string) (int, error) {
	e.ran = append(e.ran, line)
	return e.codes[line], nil
}

func TestRunScriptNotifies(t *testing.T) {
	dir := writeConfig(t, `{"shell": "builtin", "scripts": {"greet": "echo hi"}}`)
	n := &recordingNotifier{}
	inv := newInvocation(dir, &bytes.Buffer{})
	inv.notify = n

	require.NoError(t, runScript(context.Background(), inv, []string{"greet"}))
	require.Len(t, n.messages, 1)
	assert.Equal(t, "Robin", n.titles[0])
	assert.True(t, strings.HasPrefix(n.messages[0], "Command 'echo' completed in "))
}

func TestRunScriptDryRunDoesNotNotify(t *testing.T) {
	dir := writeConfig(t, `{"scripts": {"greet": "echo hi"}}`)
	n := &recordingNotifier{}
	inv := newInvocation(dir, &bytes.Buffer{})
	inv.dryRun = true
	inv.notify = n

	require.NoError(t, runScript(context.Background(), inv, []string{"greet"}))
	assert.Empty(t, n.messages)
}

func TestRunScriptMalformedPlaceholder(t *testing.T) {
	dir := writeConfig(t, `{"scripts": {"greet": "echo {{ who }}"}}`)

	err := runScript(context.Background(), newInvocation(dir, &bytes.Buffer{}), []string{"greet", "--who=x"})
	assert.IsType(t, &command.MalformedPlaceholderError{}, err)
}

func TestRunDoctor(t *testing.T) {
	dir := writeConfig(t, `{"scripts": {"build": "go build ./...", "app": "flutter run"}}`)
	probe := hostStub{versions: map[string]string{"go": "go version go1.24.0"}}
	n := &recordingNotifier{}

	var out bytes.Buffer
	err := runDoctor(context.Background(), dir, &out, formatText, probe, n)
	assert.EqualError(t, err, "3 of 4 checks failed")
	assert.Contains(t, out.String(), "✗ Flutter  not found")
	require.Len(t, n.messages, 1)
	assert.Equal(t, "Robin Doctor", n.titles[0])
	assert.True(t, strings.HasPrefix(n.messages[0], "1 passed, 3 failed ("))
}

func TestRunDoctorJSON(t *testing.T) {
	dir := writeConfig(t, `{"scripts": {"build": "go build ./..."}}`)
	probe := hostStub{versions: map[string]string{"go": "go version go1.24.0"}}

	var out bytes.Buffer
	require.NoError(t, runDoctor(context.Background(), dir, &out, formatJSON, probe, nil))

	var doc struct {
		Checks []doctor.Check `json:"checks"`
		Passed int            `json:"passed"`
		Failed int            `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, []doctor.Check{{Section: doctor.SectionTools, Name: "Go", OK: true, Detail: "go version go1.24.0"}}, doc.Checks)
	assert.Equal(t, 1, doc.Passed)
	assert.Zero(t, doc.Failed)
}

func TestWriteReportFormatYAML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeReportFormat(&out, doctor.Report{}, formatYAML))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, []any{}, doc["checks"])
	assert.Error(t, writeReportFormat(&bytes.Buffer{}, doctor.Report{}, "xml"))
}

func TestRunDoctorUpdate(t *testing.T) {
	dir := writeConfig(t, `{"scripts": {"install": "npm ci", "build": "cargo build"}}`)
	probe := hostStub{versions: map[string]string{"npm": "10.8.0", "rustup": "rustup 1.27.1"}}
	exec := &recordingExecutor{codes: map[string]int{"rustup update": 1}}
	n := &recordingNotifier{}

	var out bytes.Buffer
	err := runDoctorUpdate(context.Background(), dir, &out, probe, exec, n)
	assert.EqualError(t, err, "update failed: Rust")
	assert.Equal(t, []string{"npm update -g", "rustup update"}, exec.ran)
	assert.Contains(t, out.String(), "==> Updating npm packages")
	assert.Contains(t, out.String(), "✗ Rust  exit status 1")
	assert.Equal(t, []string{"Update failed"}, n.messages)
}

func TestRunDoctorUpdateNothingToDo(t *testing.T) {
	dir := writeConfig(t, `{"scripts": {"build": "make"}}`)
	exec := &recordingExecutor{}
	n := &recordingNotifier{}

	var out bytes.Buffer
	require.NoError(t, runDoctorUpdate(context.Background(), dir, &out, hostStub{}, exec, n))
	assert.Contains(t, out.String(), "No tools to update")
	assert.Empty(t, exec.ran)
	assert.Empty(t, n.messages)
}
