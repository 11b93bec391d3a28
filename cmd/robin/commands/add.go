package commands

import (
	"os"

	"github.com/cesarferreira/robin/internal/config"
	"github.com/cesarferreira/robin/internal/executor"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <name> <script> [script...]",
	Short: "Add or replace a script",
	Long: `Add a script to .robin.json, creating the file when needed.

More than one script argument stores a sequence that runs step by step:

  robin add "deploy staging" "fastlane deploy --lane {{lane=beta}}"
  robin add ci "go vet ./..." "go test ./..."`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		name, steps := args[0], args[1:]
		for _, step := range steps {
			if err := executor.Check(step); err != nil {
				titleError(cmd.ErrOrStderr(), "warning: %q may not be valid shell: %v", step, err)
			}
		}

		store := config.NewStore(nil, dir)
		if err := store.AddScript(name, steps...); err != nil {
			return err
		}
		title(cmd.OutOrStdout(), "Added %q", name)
		return nil
	},
}
