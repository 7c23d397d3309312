package main

import (
	"github.com/spf13/cobra"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
)

func newMigrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(cmd.Context(), connectionConfig(opts.cfg), opts.logger)
			if err != nil {
				return err
			}
			defer db.Close()
			return migrationService(opts).Migrate(db)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(cmd.Context(), connectionConfig(opts.cfg), opts.logger)
			if err != nil {
				return err
			}
			defer db.Close()
			return migrationService(opts).Down(db, steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(down)
	return cmd
}

func migrationService(opts *options) *database.MigrationService {
	cfg := opts.cfg
	return database.NewMigrationService(opts.logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		DatabaseName:        cfg.DatabaseName,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
}
