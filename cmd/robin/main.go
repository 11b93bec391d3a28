// Package main provides the entry point for the Robin CLI.
package main

import (
	"os"

	"github.com/cesarferreira/robin/cmd/robin/commands"
)

func main() {
	os.Exit(commands.ExitCode(commands.Execute()))
}
