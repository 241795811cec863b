package helper

//nolint:revive
import (
	"errors"
	"fmt"
	"net/url"

	"feastline/config"
	"feastline/infras/postgres"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

const (
	migrationsSource      = "file://migrations/postgres"
	defaultMigrationTable = "schema_migrations"
)

type action struct {
	run  func(mig *migrate.Migrate) error
	done string
}

var actions = map[string]action{
	"up":      {run: func(mig *migrate.Migrate) error { return mig.Up() }, done: "Database migrations completed successfully"},
	"step-up": {run: func(mig *migrate.Migrate) error { return mig.Steps(1) }, done: "Database migrated one step up"},
	"down":    {run: func(mig *migrate.Migrate) error { return mig.Steps(-1) }, done: "Database migrations rolled back one step"},
	"drop":    {run: func(mig *migrate.Migrate) error { return mig.Down() }, done: "Database migrations rolled back successfully"},
}

// databaseURL points golang-migrate at the write endpoint and its own bookkeeping table.
func databaseURL(config *config.Config) string {
	table := config.DB.Postgres.MigrationTable
	if table == "" {
		table = defaultMigrationTable
	}

	return postgres.DSN(config) + "&x-migrations-table=" + url.QueryEscape(table)
}

func Runner(config *config.Config, name string) error {
	act, ok := actions[name]
	if !ok {
		return fmt.Errorf("unknown migration action %q", name)
	}

	mig, err := migrate.New(migrationsSource, databaseURL(config))
	if err != nil {
		return fmt.Errorf("error creating migrate instance: %w", err)
	}

	defer func() {
		if srcErr, dbErr := mig.Close(); srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("failed to close migrate instance")
		}
	}()

	if err := act.run(mig); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running %s migration: %w", name, err)
	}

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("error reading migration version: %w", err)
	}

	log.Info().Uint("version", version).Bool("dirty", dirty).Msg(act.done)

	return nil
}

func Up(config *config.Config) error {
	return Runner(config, "up")
}

func StepUp(config *config.Config) error {
	return Runner(config, "step-up")
}

func Down(config *config.Config) error {
	return Runner(config, "down")
}

func Drop(config *config.Config) error {
	return Runner(config, "drop")
}
