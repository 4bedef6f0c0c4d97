// Package main is the entry point for the review site snippet service.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/roguepikachu/reviewsite/internal/config"
	"github.com/roguepikachu/reviewsite/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "reviewsite",
	Short: "Snippet service of the misuse review site",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.InitLogging()
		config.InitConf()
	},
	// no subcommand serves HTTP
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, importMisusesCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error(context.Background(), "command failed: %v", err)
		os.Exit(1)
	}
}
