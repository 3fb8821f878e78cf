/*
Package db contains the low-level helpers for querying Postgres. It maps query
results onto Go types while letting you write plain SQL.

The primary functions are Query, QueryOne, QueryOneScalar and QueryIterator.

# Query syntax

Arguments use the normal pgx placeholders $1, $2, etc.

	count, err := db.QueryOneScalar[int](ctx, conn,
		`
		SELECT COUNT(*)
		FROM article
		WHERE author_id = ANY($1)
		`,
		[]int{1, 2, 3},
	)

(If you want to use a slice in a query, use Postgres arrays instead of IN.)

To query several columns at once, use a struct type with `db:"column_name"`
tags and the special $columns placeholder:

	type Article struct {
		ID        int       `db:"id"`
		Title     string    `db:"title"`
		CreatedAt time.Time `db:"created_at"`
	}
	articles, err := db.Query[Article](ctx, conn, `SELECT $columns FROM article`)
	// SELECT id, title, created_at FROM article

Nested structs with a `db` tag expand to prefixed columns, which pairs well
with table aliases in a JOIN. A prefix can also be given explicitly with
$columns{prefix}:

	type articleAndAuthor struct {
		Article models.Article `db:"article"`
		Author  models.User    `db:"author"`
	}
	rows, err := db.Query[articleAndAuthor](ctx, conn, `
		SELECT $columns
		FROM
			article
			JOIN blog_user AS author ON author.id = article.author_id
	`)
	// SELECT article.id, article.title, ..., author.id, author.username, ...

A line of the form "---- Name" at the top of a query names it for the
request profiler and the query duration metric.
*/
package db
