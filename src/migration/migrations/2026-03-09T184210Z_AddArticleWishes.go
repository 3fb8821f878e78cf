package migrations

import (
	"context"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/migration/types"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"github.com/jackc/pgx/v5"
)

func init() {
	registerMigration(AddArticleWishes{})
}

type AddArticleWishes struct{}

func (m AddArticleWishes) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 3, 9, 18, 42, 10, 0, time.UTC))
}

func (m AddArticleWishes) Name() string {
	return "AddArticleWishes"
}

func (m AddArticleWishes) Description() string {
	return "Add a table for visitor suggestions of future articles"
}

func (m AddArticleWishes) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		CREATE TABLE article_wish (
			id SERIAL PRIMARY KEY,
			wish TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '-',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL
		);
		`,
	)
	if err != nil {
		return oops.New(err, "failed to create article_wish table")
	}
	return nil
}

func (m AddArticleWishes) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `DROP TABLE article_wish;`)
	if err != nil {
		return oops.New(err, "failed to drop article_wish table")
	}
	return nil
}
