package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigMissing is returned when the project has no config file.
	ErrConfigMissing = errors.New("no " + FileName + " found, run 'robin init' first")

	// ErrConfigExists is returned by init when a config file is already present.
	ErrConfigExists = errors.New(FileName + " already exists")
)

// MalformedError describes a config file that cannot be used.
type MalformedError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid config %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid config %s: %s", e.Path, e.Reason)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}
