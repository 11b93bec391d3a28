package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/syntax"
)

// Environ returns base extended with the variables of the given dotenv
// files, read relative to dir. Variables already present in base are never
// overridden, and earlier files win over later ones.
func Environ(fsys afero.Fs, dir string, base []string, files []string) ([]string, error) {
	env := append([]string(nil), base...)
	if len(files) == 0 {
		return env, nil
	}

	present := make(map[string]bool, len(base))
	for _, kv := range base {
		if k, _, ok := strings.Cut(kv, "="); ok {
			present[k] = true
		}
	}

	for _, name := range files {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		f, err := fsys.Open(path)
		if err != nil {
			return nil, fmt.Errorf("env file %s: %w", name, err)
		}
		vars, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("env file %s: %w", name, err)
		}

		keys := make([]string, 0, len(vars))
		for k := range vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if present[k] {
				continue
			}
			present[k] = true
			env = append(env, k+"="+vars[k])
		}
	}
	return env, nil
}

// OSEnviron is Environ over the real filesystem and process environment.
func OSEnviron(dir string, files []string) ([]string, error) {
	return Environ(afero.NewOsFs(), dir, os.Environ(), files)
}

// Quote returns value quoted for a POSIX shell. Values that need no quoting
// are returned unchanged.
func Quote(value string) (string, error) {
	return syntax.Quote(value, syntax.LangPOSIX)
}
