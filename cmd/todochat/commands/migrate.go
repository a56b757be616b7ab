package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/todochat/internal/storage/sqlite"
	"github.com/slok/todochat/internal/storage/sqlite/migrations"
)

const (
	migrateUp   = "up"
	migrateDown = "down"
)

type MigrateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	direction string
}

// NewMigrateCommand returns the migrate command.
func NewMigrateCommand(rootCmd *RootCommand, app *kingpin.Application) *MigrateCommand {
	c := &MigrateCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("migrate", "Apply or revert the SQLite schema migrations.")
	c.Cmd.Arg("direction", "Migration direction (up, down).").Required().EnumVar(&c.direction, migrateUp, migrateDown)

	return c
}

func (c MigrateCommand) Name() string { return c.Cmd.FullCommand() }

func (c MigrateCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	store, err := sqlite.NewStore(ctx, sqlite.StoreConfig{
		DBPath:         c.rootCmd.DBPath,
		SkipMigrations: true,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}
	defer store.Close()

	migrator, err := migrations.NewMigrator(store.DB(), logger)
	if err != nil {
		return fmt.Errorf("could not create migrator: %w", err)
	}

	switch c.direction {
	case migrateDown:
		err = migrator.Down(ctx)
	default:
		err = migrator.Up(ctx)
	}
	if err != nil {
		return fmt.Errorf("could not migrate %s: %w", c.direction, err)
	}

	version, dirty, err := migrator.Version(ctx)
	if err != nil {
		return fmt.Errorf("could not get schema version: %w", err)
	}

	logger.Infof("Schema at version %d (dirty: %t)", version, dirty)
	fmt.Fprintf(c.rootCmd.Stdout, "Schema version: %d\n", version)

	return nil
}
