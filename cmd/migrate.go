package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-reservations/app/catalog"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
)

var skipSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema and seed the room catalog",
	Run:   runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "Only create the schema")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := repository.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		logrus.WithError(err).Fatal("Migration failed")
	}
	logrus.WithField("driver", cfg.Database.Driver).Info("Schema up to date")

	if skipSeed {
		return
	}

	rooms, err := catalog.LoadRooms(cfg.App.RoomsFile)
	if err != nil {
		logrus.WithError(err).WithField("file", cfg.App.RoomsFile).Fatal("Failed to load room catalog")
	}
	if err := catalog.SeedRooms(ctx, repository.NewStore(db).Rooms(), rooms); err != nil {
		logrus.WithError(err).Fatal("Failed to seed rooms")
	}
	logrus.WithField("rooms", len(rooms)).Info("Room catalog seeded")
}
