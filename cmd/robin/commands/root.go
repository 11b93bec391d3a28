// Package commands provides the CLI commands for Robin.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/cesarferreira/robin/internal/config"
	"github.com/cesarferreira/robin/internal/executor"
	"github.com/cesarferreira/robin/internal/logging"
	"github.com/cesarferreira/robin/internal/notify"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	printLogs  bool
	logLevel   string
	logToFile  bool
	notifyFlag bool
)

// Root-only flags. They are only recognized before the command name.
var (
	listFlag        bool
	interactiveFlag bool
	promptFlag      bool
	dryRunFlag      bool
)

var rootCmd = &cobra.Command{
	Use:   "robin [flags] <command> [--param=value ...]",
	Short: "Robin - run the scripts of your project",
	Long: `Robin runs the named scripts declared in .robin.json.

Scripts may contain {{placeholders}} that are filled from --param=value
flags, from defaults ({{name=default}}) or, with --prompt or in the
interactive picker, by asking for them.

  robin init                       create a .robin.json
  robin deploy staging --tag=v1    run "deploy staging" with tag=v1
  robin -i                         pick a script interactively`,
	Version:            Version,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceErrors:      true,
	SilenceUsage:       true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The root command parses its own flags in RunE
		if cmd.DisableFlagParsing {
			return nil
		}
		return setupLogging()
	},
	RunE: runRoot,
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print human-readable logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR), defaults to $ROBIN_LOG_LEVEL or WARN")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-file", false, "Also write logs to a file in the state directory")
	rootCmd.PersistentFlags().BoolVar(&notifyFlag, "notify", false, "Show a desktop notification when the command finishes")

	rootCmd.Flags().BoolVarP(&listFlag, "list", "l", false, "List the available scripts")
	rootCmd.Flags().BoolVarP(&interactiveFlag, "interactive", "i", false, "Pick a script with fuzzy search")
	rootCmd.Flags().BoolVarP(&promptFlag, "prompt", "p", false, "Ask for parameters that were not passed as flags")
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Print the resolved command instead of running it")

	// Version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("robin %s (%s)\n", Version, BuildTime))

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(doctorUpdateAliasCmd)
}

// Execute runs the root command. Errors other than a failed script are
// printed to stderr; use ExitCode to turn the result into an exit status.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer logging.Close()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		var exitErr *executor.ExitError
		switch {
		case errors.As(err, &exitErr):
			logging.Debug().Int("code", exitErr.Code).Str("command", exitErr.Command).Msg("script failed")
		case errors.Is(err, context.Canceled):
			titleError(os.Stderr, "interrupted")
		default:
			titleError(os.Stderr, "%s", err)
		}
	}
	return err
}

// parseRootFlags parses robin's own flags up to the first positional
// argument and returns the remaining words.
func parseRootFlags(cmd *cobra.Command, args []string) ([]string, error) {
	flags := cmd.Flags()
	flags.AddFlagSet(cmd.PersistentFlags())
	flags.SetInterspersed(false)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil
		}
		return nil, err
	}
	return flags.Args(), nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	rest, err := parseRootFlags(cmd, args)
	if err != nil {
		return err
	}
	if err := setupLogging(); err != nil {
		return err
	}

	if help, _ := cmd.Flags().GetBool("help"); help {
		return cmd.Help()
	}
	if version, _ := cmd.Flags().GetBool("version"); version {
		fmt.Fprint(cmd.OutOrStdout(), cmd.VersionTemplate())
		return nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	inv := invocation{
		dir:    dir,
		stdin:  os.Stdin,
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		dryRun: dryRunFlag,
		prompt: promptFlag,
		notify: notifier(),
	}

	switch {
	case listFlag:
		return runList(inv, formatText)
	case interactiveFlag:
		return runInteractive(cmd.Context(), inv, strings.Join(rest, " "))
	case len(rest) == 0:
		return cmd.Help()
	default:
		return runScript(cmd.Context(), inv, rest)
	}
}

// setupLogging initializes the logger from the global flags.
func setupLogging() error {
	level := logLevel
	if level == "" {
		level = os.Getenv("ROBIN_LOG_LEVEL")
	}

	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(level)
	cfg.Pretty = printLogs
	cfg.RunID = ulid.Make().String()
	if logToFile {
		paths := config.GetPaths()
		if err := paths.EnsurePaths(); err != nil {
			return fmt.Errorf("creating state directory: %w", err)
		}
		cfg.LogToFile = true
		cfg.LogDir = paths.LogDir()
	}
	logging.Init(cfg)
	if path := logging.GetLogFilePath(); path != "" {
		logging.Info().Str("path", path).Msg("logging to file")
	}
	return nil
}

// notifier returns the notifier for this invocation, nil without --notify.
func notifier() notify.Notifier {
	if !notifyFlag {
		return nil
	}
	return notify.Desktop{}
}
