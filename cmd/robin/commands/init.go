package commands

import (
	"os"

	"github.com/cesarferreira/robin/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .robin.json in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		store := config.NewStore(nil, dir)
		if err := store.WriteDefault(initForce); err != nil {
			return err
		}
		title(cmd.OutOrStdout(), "Created %s", config.FileName)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config")
}
