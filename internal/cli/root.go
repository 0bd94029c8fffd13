package cli

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazypower/thoughtgraph/internal/config"
	"github.com/lazypower/thoughtgraph/internal/logging"
)

var (
	configPath string
	logLevel   string

	appConfig config.Config
	appLogger = zap.NewNop()

	uiFS fs.FS
)

var rootCmd = &cobra.Command{
	Use:   "thoughtgraph",
	Short: "Force-directed viewer for the Book of Thoughts",
	Long: "thoughtgraph serves topics, thoughts, quotes and passages and lays out the " +
		"relationship graph between them with a force simulation.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
		if err != nil {
			return fmt.Errorf("logging: %w", err)
		}
		appConfig, appLogger = cfg, logger
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		appLogger.Sync()
	},
}

// SetUI sets the embedded viewer UI served by the serve command.
func SetUI(fsys fs.FS) {
	uiFS = fsys
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(configCmd)
}
