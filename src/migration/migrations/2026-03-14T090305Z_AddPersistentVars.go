package migrations

import (
	"context"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/migration/types"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"github.com/jackc/pgx/v5"
)

func init() {
	registerMigration(AddPersistentVars{})
}

type AddPersistentVars struct{}

func (m AddPersistentVars) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 3, 14, 9, 3, 5, 0, time.UTC))
}

func (m AddPersistentVars) Name() string {
	return "AddPersistentVars"
}

func (m AddPersistentVars) Description() string {
	return "Create table for persistent_vars, used for the admin's public name"
}

func (m AddPersistentVars) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		CREATE TABLE persistent_var (
			name VARCHAR(255) NOT NULL,
			value TEXT NOT NULL
		);
		CREATE UNIQUE INDEX persistent_var_name ON persistent_var (name);
		`,
	)
	if err != nil {
		return oops.New(err, "failed to create persistent_var table")
	}
	return nil
}

func (m AddPersistentVars) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		DROP INDEX persistent_var_name;
		DROP TABLE persistent_var;
		`,
	)
	if err != nil {
		return oops.New(err, "failed to drop persistent_var table")
	}
	return nil
}
