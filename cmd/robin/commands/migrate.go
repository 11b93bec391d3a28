package commands

import (
	"os"

	"github.com/cesarferreira/robin/internal/config"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert nested script entries into flat names",
	Long: `Rewrite scripts declared in the old nested form

  "deploy": {"staging": "...", "production": "..."}

into flat entries named "deploy staging" and "deploy production".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		n, err := config.NewStore(nil, dir).Migrate()
		if err != nil {
			return err
		}
		if n == 0 {
			title(cmd.OutOrStdout(), "Nothing to migrate")
			return nil
		}
		title(cmd.OutOrStdout(), "Migrated %d scripts", n)
		return nil
	},
}
