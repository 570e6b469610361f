package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/foodielens/dishbook/internal/infra/providers"
)

func newMigrateCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := rootOpts.load()
			if err != nil {
				return err
			}

			db, err := providers.NewDatabase(conf.Database)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := providers.MigrateDatabase(db); err != nil {
				return err
			}
			slog.Info("database migrated", slog.String("driver", conf.Database.Driver))
			return nil
		},
	}
}
