package cmd

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/octobees/mapleads/internal/repository"
)

// purgeCmd removes expired search cache rows
var purgeCmd = &cobra.Command{
	Use:   "purge-cache",
	Short: "Delete expired search cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, zl, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = zl.Sync() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		pool, err := connect(ctx, cfg, zl)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := repository.NewPGXSearchCacheRepository(pool).DeleteExpired(ctx)
		if err != nil {
			return err
		}
		color.Green("deleted %d expired entries\n", n)
		return nil
	},
}

// migrateCmd applies the schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the search cache and saved leads tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, zl, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = zl.Sync() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		pool, err := connect(ctx, cfg, zl)
		if err != nil {
			return err
		}
		pool.Close()
		color.Green("schema is up to date\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(migrateCmd)
}
