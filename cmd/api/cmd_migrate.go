package main

import (
	"github.com/spf13/cobra"

	"github.com/roguepikachu/reviewsite/internal/app"
	"github.com/roguepikachu/reviewsite/internal/config"
	"github.com/roguepikachu/reviewsite/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		stores, err := app.OpenStores(ctx, config.Conf)
		if err != nil {
			return err
		}
		defer stores.Close()
		if err := stores.Migrate(ctx); err != nil {
			return err
		}
		logger.Info(ctx, "schema ready for %s store", config.Conf.StoreDriver)
		return nil
	},
}
