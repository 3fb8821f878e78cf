package migrations

import (
	"context"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/migration/types"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"github.com/jackc/pgx/v5"
)

func init() {
	registerMigration(InitialSchema{})
}

type InitialSchema struct{}

func (m InitialSchema) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC))
}

func (m InitialSchema) Name() string {
	return "InitialSchema"
}

func (m InitialSchema) Description() string {
	return "Create users, writers, articles and likes"
}

func (m InitialSchema) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		CREATE TABLE blog_user (
			id SERIAL PRIMARY KEY,
			email TEXT NOT NULL,
			username VARCHAR(20) NOT NULL CONSTRAINT blog_user_username_key UNIQUE,
			password TEXT NOT NULL,
			date_joined TIMESTAMP WITH TIME ZONE NOT NULL,
			last_login TIMESTAMP WITH TIME ZONE,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE UNIQUE INDEX blog_user_username_lower ON blog_user (LOWER(username));
		CREATE UNIQUE INDEX blog_user_single_admin ON blog_user (is_admin) WHERE is_admin;

		CREATE TABLE writer (
			username VARCHAR(20) PRIMARY KEY REFERENCES blog_user (username) ON DELETE CASCADE ON UPDATE CASCADE,
			date_added TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE TABLE article (
			id SERIAL PRIMARY KEY,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			title VARCHAR(30) NOT NULL,
			body TEXT NOT NULL,
			likes INT NOT NULL DEFAULT 0 CHECK (likes >= 0),
			author_id INT NOT NULL REFERENCES blog_user (id) ON DELETE CASCADE
		);
		CREATE INDEX article_created_at ON article (created_at);
		CREATE INDEX article_likes ON article (likes);

		CREATE TABLE liked_article (
			user_id INT NOT NULL REFERENCES blog_user (id) ON DELETE CASCADE,
			article_id INT NOT NULL REFERENCES article (id) ON DELETE CASCADE,
			liked_at TIMESTAMP WITH TIME ZONE NOT NULL,
			PRIMARY KEY (user_id, article_id)
		);
		CREATE INDEX liked_article_article_id ON liked_article (article_id);
		`,
	)
	if err != nil {
		return oops.New(err, "failed to create initial tables")
	}
	return nil
}

func (m InitialSchema) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		DROP TABLE liked_article;
		DROP TABLE article;
		DROP TABLE writer;
		DROP TABLE blog_user;
		`,
	)
	if err != nil {
		return oops.New(err, "failed to drop initial tables")
	}
	return nil
}
