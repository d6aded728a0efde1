package main

import (
	"fmt"

	"clipquiz/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := database.NewSQLXOracleDB(cmd.Context(), cfg.GetDSN())
			if err != nil {
				return err
			}
			defer db.Close()

			migrator, err := database.NewMigrator(db, ctx.logger().Named("migrate"))
			if err != nil {
				return err
			}
			applied, err := migrator.Up(cmd.Context())
			for _, version := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", version)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			}
			return nil
		},
	}
}
