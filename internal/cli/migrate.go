package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"companion-booking-backend/internal/db"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			gormDB, err := db.Open(&cfg.Database)
			if err != nil {
				return err
			}
			if sqlDB, err := gormDB.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := db.Migrate(gormDB, &cfg.Database); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}
