package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazypower/thoughtgraph/internal/ui"
)

var importCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Load items and relations from a YAML seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(appConfig)
		if err != nil {
			return err
		}
		defer db.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open seed: %w", err)
		}
		defer f.Close()

		res, err := db.ImportYAML(f)
		if err != nil {
			return err
		}
		appLogger.Info("seed imported",
			zap.String("file", args[0]),
			zap.Int("items", res.Items),
			zap.Int("relations", res.Relations))
		fmt.Fprintf(cmd.OutOrStdout(), "%s imported %d items, %d relations into %s\n",
			ui.StatusIcon(true), res.Items, res.Relations, db.Path)
		return nil
	},
}
