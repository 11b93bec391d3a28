package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cesarferreira/robin/internal/command"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/sjson"
)

//go:embed default.json
var defaultConfig []byte

// ShellBuiltin selects the embedded POSIX interpreter instead of the host shell.
const ShellBuiltin = "builtin"

// Config is a loaded project configuration.
type Config struct {
	// Path is the file the config was loaded from.
	Path string
	// Scripts holds the commands in declaration order, followed by the
	// commands of included files.
	Scripts command.Table
	// Include lists further config files or glob patterns.
	Include []string
	// Shell selects the interpreter: empty for the host shell, ShellBuiltin,
	// or a shell binary.
	Shell string
	// Env lists dotenv files loaded into the child environment.
	Env []string
	// QuoteParams shell-quotes parameter values before substitution.
	QuoteParams bool
}

// Store reads and writes the project config in a directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates a store for the config file in dir.
func NewStore(fsys afero.Fs, dir string) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Store{fs: fsys, dir: dir}
}

// Dir returns the project directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the config file path.
func (s *Store) Path() string { return ProjectConfigPath(s.dir) }

// Fs returns the filesystem the store reads from.
func (s *Store) Fs() afero.Fs { return s.fs }

// Exists reports whether the config file is present.
func (s *Store) Exists() bool {
	ok, err := afero.Exists(s.fs, s.Path())
	return err == nil && ok
}

// Load reads and parses the config file and its includes.
func (s *Store) Load() (*Config, error) {
	path := s.Path()
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigMissing
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s.parse(path, data, map[string]bool{filepath.Clean(path): true})
}

func (s *Store) parse(path string, data []byte, visiting map[string]bool) (*Config, error) {
	// Strip JSONC comments and trailing commas
	data = jsonc.ToJSON(data)
	if !gjson.ValidBytes(data) {
		return nil, &MalformedError{Path: path, Reason: "not valid JSON"}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &MalformedError{Path: path, Reason: "top level must be an object"}
	}

	scripts := root.Get("scripts")
	if !scripts.IsObject() {
		return nil, &MalformedError{Path: path, Reason: `missing "scripts" object`}
	}

	table, err := parseScripts(path, scripts)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Path: path, Scripts: table}

	if v := root.Get("shell"); v.Exists() {
		if v.Type != gjson.String {
			return nil, &MalformedError{Path: path, Reason: `"shell" must be a string`}
		}
		cfg.Shell = v.String()
	}
	if cfg.Include, err = stringList(path, root, "include"); err != nil {
		return nil, err
	}
	if cfg.Env, err = stringList(path, root, "env"); err != nil {
		return nil, err
	}
	if v := root.Get("quoteParams"); v.Exists() {
		if v.Type != gjson.True && v.Type != gjson.False {
			return nil, &MalformedError{Path: path, Reason: `"quoteParams" must be a boolean`}
		}
		cfg.QuoteParams = v.Bool()
	}

	// Included scripts never shadow names declared earlier
	for _, pattern := range cfg.Include {
		files, err := s.expandInclude(filepath.Dir(path), pattern)
		if err != nil {
			return nil, &MalformedError{Path: path, Reason: fmt.Sprintf("include %q", pattern), Err: err}
		}
		for _, file := range files {
			clean := filepath.Clean(file)
			if visiting[clean] {
				return nil, &MalformedError{Path: path, Reason: fmt.Sprintf("include cycle through %s", file)}
			}
			incData, err := afero.ReadFile(s.fs, file)
			if err != nil {
				return nil, &MalformedError{Path: path, Reason: fmt.Sprintf("include %q", pattern), Err: err}
			}
			visiting[clean] = true
			included, err := s.parse(file, incData, visiting)
			delete(visiting, clean)
			if err != nil {
				return nil, err
			}
			cfg.Scripts = cfg.Scripts.Merge(included.Scripts)
		}
	}

	return cfg, nil
}

// parseScripts converts the "scripts" object into a table, keeping
// declaration order and duplicate keys.
func parseScripts(path string, scripts gjson.Result) (command.Table, error) {
	var (
		table command.Table
		err   error
	)
	scripts.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		switch {
		case strings.TrimSpace(name) == "":
			err = &MalformedError{Path: path, Reason: "script names must not be empty"}
		case value.Type == gjson.String:
			table = append(table, command.NewEntry(name, value.String()))
		case value.IsArray():
			var steps []string
			for _, step := range value.Array() {
				if step.Type != gjson.String {
					err = &MalformedError{Path: path, Reason: fmt.Sprintf("script %q: every step must be a string", name)}
					return false
				}
				steps = append(steps, step.String())
			}
			if len(steps) == 0 {
				err = &MalformedError{Path: path, Reason: fmt.Sprintf("script %q has no steps", name)}
				return false
			}
			table = append(table, command.NewSequence(name, steps))
		case value.IsObject():
			err = &MalformedError{
				Path:   path,
				Reason: fmt.Sprintf("script %q uses the nested {\"name\": {\"label\": \"command\"}} form, which is no longer supported; run 'robin migrate'", name),
			}
		default:
			err = &MalformedError{Path: path, Reason: fmt.Sprintf("script %q must be a string or an array of strings", name)}
		}
		return err == nil
	})
	return table, err
}

func stringList(path string, root gjson.Result, key string) ([]string, error) {
	v := root.Get(key)
	if !v.Exists() {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, &MalformedError{Path: path, Reason: fmt.Sprintf("%q must be an array of strings", key)}
	}
	var out []string
	for _, item := range v.Array() {
		if item.Type != gjson.String {
			return nil, &MalformedError{Path: path, Reason: fmt.Sprintf("%q must be an array of strings", key)}
		}
		out = append(out, item.String())
	}
	return out, nil
}

// expandInclude resolves an include entry relative to baseDir. Glob patterns
// are matched with doublestar and return files in lexical order.
func (s *Store) expandInclude(baseDir, pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		if filepath.IsAbs(pattern) {
			return []string{pattern}, nil
		}
		return []string{filepath.Join(baseDir, pattern)}, nil
	}
	if filepath.IsAbs(pattern) {
		return nil, errors.New("glob patterns must be relative to the config file")
	}

	fsys := afero.NewIOFS(afero.NewBasePathFs(s.fs, baseDir))
	matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Join(baseDir, filepath.FromSlash(m))
	}
	return files, nil
}

// DefaultConfig returns the config written by init.
func DefaultConfig() []byte {
	return append([]byte(nil), defaultConfig...)
}

// WriteDefault writes the default config. It fails with ErrConfigExists when
// a config is present, unless force is set.
func (s *Store) WriteDefault(force bool) error {
	if s.Exists() && !force {
		return ErrConfigExists
	}
	return afero.WriteFile(s.fs, s.Path(), defaultConfig, 0644)
}

// AddScript adds or replaces a script. More than one step stores a sequence.
// The config is created from the default template when missing. Other keys
// keep their order and formatting; comments are dropped.
func (s *Store) AddScript(name string, steps ...string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("script name must not be empty")
	}
	if len(steps) == 0 {
		return errors.New("script must have at least one command")
	}

	data, commented, err := s.readRaw()
	if errors.Is(err, ErrConfigMissing) {
		data, commented, err = DefaultConfig(), false, nil
	}
	if err != nil {
		return err
	}

	var value any = steps[0]
	if len(steps) > 1 {
		value = steps
	}

	out, err := sjson.SetBytes(data, "scripts."+escapePath(name), value)
	if err != nil {
		return fmt.Errorf("updating %s: %w", FileName, err)
	}
	if commented {
		out = prettyJSON(out)
	}
	return afero.WriteFile(s.fs, s.Path(), out, 0644)
}

// Migrate rewrites deprecated nested entries ({"deploy": {"staging": "..."}})
// into flat ones ({"deploy staging": "..."}). It returns the number of
// entries written; zero means the file was left untouched.
func (s *Store) Migrate() (int, error) {
	data, _, err := s.readRaw()
	if err != nil {
		return 0, err
	}

	scripts := gjson.GetBytes(data, "scripts")
	if !scripts.IsObject() {
		return 0, &MalformedError{Path: s.Path(), Reason: `missing "scripts" object`}
	}

	var (
		buf      bytes.Buffer
		migrated int
	)
	write := func(key, raw string) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(raw)
	}

	buf.WriteByte('{')
	scripts.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			write(key.String(), value.Raw)
			return true
		}
		value.ForEach(func(label, cmd gjson.Result) bool {
			write(key.String()+" "+label.String(), cmd.Raw)
			migrated++
			return true
		})
		return true
	})
	buf.WriteByte('}')

	if migrated == 0 {
		return 0, nil
	}

	out, err := sjson.SetRawBytes(data, "scripts", buf.Bytes())
	if err != nil {
		return 0, fmt.Errorf("updating %s: %w", FileName, err)
	}
	if err := afero.WriteFile(s.fs, s.Path(), prettyJSON(out), 0644); err != nil {
		return 0, err
	}
	return migrated, nil
}

// readRaw returns the config as plain JSON and whether comments were stripped.
func (s *Store) readRaw() ([]byte, bool, error) {
	data, err := afero.ReadFile(s.fs, s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, ErrConfigMissing
		}
		return nil, false, err
	}
	stripped := jsonc.ToJSON(data)
	if !gjson.ValidBytes(stripped) {
		return nil, false, &MalformedError{Path: s.Path(), Reason: "not valid JSON"}
	}
	return stripped, !bytes.Equal(stripped, data), nil
}

// escapePath escapes a key for use as a single sjson path component.
func escapePath(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '\\', '.', '*', '?':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func prettyJSON(data []byte) []byte {
	return []byte(gjson.GetBytes(data, "@pretty").Raw)
}
