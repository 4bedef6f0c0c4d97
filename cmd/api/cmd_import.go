package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roguepikachu/reviewsite/internal/app"
	"github.com/roguepikachu/reviewsite/internal/config"
	"github.com/roguepikachu/reviewsite/internal/importer"
)

var importMisusesCmd = &cobra.Command{
	Use:   "import-misuses <data-dir>",
	Short: "Load misuse metadata (meta.yml) from a benchmark data directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stores, err := app.OpenStores(ctx, config.Conf)
		if err != nil {
			return err
		}
		defer stores.Close()
		if err := stores.Migrate(ctx); err != nil {
			return err
		}
		n, err := importer.New(stores.Misuses).ImportDir(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d misuses\n", n)
		return nil
	},
}
