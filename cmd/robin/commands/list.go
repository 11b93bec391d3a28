package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the available scripts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		return runList(invocation{dir: dir, stdout: cmd.OutOrStdout()}, listFormat)
	},
}

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", formatText, "Output format (text|json|yaml)")
}
