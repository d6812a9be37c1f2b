package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gtaskall/gtaskall/internal/config"
)

// rootCmd represents the base command for the gtaskall application
var rootCmd = &cobra.Command{
	Use:   "gtaskall",
	Short: "Aggregates Google Tasks from all your accounts into one agenda",
	Long: `gtaskall connects multiple Google accounts and merges their Google Tasks
into a single agenda and board.

It can run as:
  - A one-shot CLI showing your agenda or board (default)
  - A background sync daemon (gtaskall run) that keeps a local snapshot fresh`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

var (
	cfgPath   string
	debugMode bool
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gtaskall version %s\n" .Version}}`)

	// If no subcommand is provided, show the agenda by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "agenda")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to the config file (default ~/.config/gtaskall/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		level := slog.LevelInfo
		if debugMode {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newAccountsCmd())
	rootCmd.AddCommand(newAgendaCmd())
	rootCmd.AddCommand(newBoardCmd())
	rootCmd.AddCommand(newTaskCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func loadConfig() (*config.AppConfig, error) {
	path := cfgPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}
