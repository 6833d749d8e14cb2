package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mtx/internal/repositories"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the built-in config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = defaultConfigPath
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set api.base_url to your tracker server\n")
	r.writePlain("2. Configure [identity.oidc] or pass --assertion to 'mtx auth login'\n")
	return nil
}

// SetupStorage creates the local storage database and runs migrations.
func (r *Runner) SetupStorage(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing storage", "path", r.config.Storage.Path)

	db, err := shared.OpenStorage(r.config.Storage)
	if err != nil {
		return fmt.Errorf("failed to set up storage: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for storage: %v", r.config.Storage.Path)
	return r.writePlain("✓ Storage ready at %s\n", r.config.Storage.Path)
}

// StorageRollback rolls back the most recent migration.
func (r *Runner) StorageRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Storage.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}

	r.logger.Info("rolled back migration", "path", r.config.Storage.Path)
	return r.writePlain("✓ Rolled back the latest migration\n")
}

// StorageList prints every local storage entry. Values may hold an access token, so only sizes are shown
// in plain output.
func (r *Runner) StorageList(ctx context.Context, cmd *cli.Command) error {
	storage, closeFn, err := r.localStorage()
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := storage.List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	if len(entries) == 0 {
		return r.writePlain("No entries.\n")
	}
	for _, e := range entries {
		r.writePlain("%-24s %5d bytes  %s\n", e.Key, len(e.Value), e.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// StorageClear removes every local storage entry.
func (r *Runner) StorageClear(ctx context.Context, cmd *cli.Command) error {
	storage, closeFn, err := r.localStorage()
	if err != nil {
		return err
	}
	defer closeFn()

	n, err := storage.Clear()
	if err != nil {
		return err
	}

	r.logger.Info("cleared local storage", "entries", n)
	return r.writePlain("✓ Removed %d entries\n", n)
}

// localStorage returns the runner's SQLite storage, or opens one from config for the duration of a command.
func (r *Runner) localStorage() (*repositories.LocalStorage, func(), error) {
	if ls, ok := r.storage.(*repositories.LocalStorage); ok {
		return ls, func() {}, nil
	}

	db, err := shared.OpenStorage(r.config.Storage)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewLocalStorage(db), func() { db.Close() }, nil
}
