package main

import (
	"github.com/phrazzld/todo-reminders/internal/app"
	"github.com/phrazzld/todo-reminders/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|reset|status|version]",
		Short: "Run database migrations",
		Long: `Run a goose migration command against the configured database
using the migrations embedded in the binary. The default command is "up".`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateReset, postgres.MigrateStatus, postgres.MigrateVersion},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := postgres.MigrateUp
			if len(args) == 1 {
				command = args[0]
			}

			cfg, err := env.config()
			if err != nil {
				return err
			}
			log, err := env.logger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, err := app.OpenDatabase(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return postgres.Migrate(cmd.Context(), db, log, command)
		},
	}
}
