package blogdata

import (
	"context"
	"errors"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/models"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"git.inkwell.blog/inkwell/inkwell/src/perf"
)

type ArticleOrder int

const (
	OrderNewest ArticleOrder = iota
	OrderOldest
	OrderMostLiked
)

func (o ArticleOrder) sql() string {
	switch o {
	case OrderOldest:
		return `ORDER BY article.created_at ASC, article.id ASC`
	case OrderMostLiked:
		return `ORDER BY article.likes DESC, article.created_at DESC, article.id DESC`
	default:
		return `ORDER BY article.created_at DESC, article.id DESC`
	}
}

type ArticlesQuery struct {
	AuthorIDs []int // if empty, all authors
	Order     ArticleOrder

	Limit, Offset int // if empty, no pagination
}

type ArticleAndAuthor struct {
	Article models.Article `db:"article"`
	Author  models.User    `db:"author"`
}

func FetchArticles(
	ctx context.Context,
	dbConn db.ConnOrTx,
	q ArticlesQuery,
) ([]*ArticleAndAuthor, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Fetch articles").End()

	var qb db.QueryBuilder
	qb.Add(`
		SELECT $columns
		FROM
			article
			JOIN blog_user AS author ON author.id = article.author_id
		WHERE
			TRUE
	`)
	if len(q.AuthorIDs) > 0 {
		qb.Add(`AND article.author_id = ANY($?)`, q.AuthorIDs)
	}
	qb.Add(q.Order.sql())
	if q.Limit > 0 {
		qb.Add(`LIMIT $? OFFSET $?`, q.Limit, q.Offset)
	}

	articles, err := db.Query[ArticleAndAuthor](ctx, dbConn, qb.String(), qb.Args()...)
	if err != nil {
		return nil, oops.New(err, "failed to fetch articles")
	}
	return articles, nil
}

func CountArticles(ctx context.Context, dbConn db.ConnOrTx) (int, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Count articles").End()

	count, err := db.QueryOneScalar[int](ctx, dbConn, `SELECT COUNT(*) FROM article`)
	if err != nil {
		return 0, oops.New(err, "failed to count articles")
	}
	return count, nil
}

// Returns db.NotFound if there is no article with the given id.
func FetchArticle(ctx context.Context, dbConn db.ConnOrTx, articleID int) (*ArticleAndAuthor, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Fetch article").End()

	article, err := db.QueryOne[ArticleAndAuthor](ctx, dbConn,
		`
		SELECT $columns
		FROM
			article
			JOIN blog_user AS author ON author.id = article.author_id
		WHERE article.id = $1
		`,
		articleID,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, db.NotFound
		}
		return nil, oops.New(err, "failed to fetch article %d", articleID)
	}
	return article, nil
}

// Creates an article from already-validated input and returns it as stored.
func CreateArticle(ctx context.Context, dbConn db.ConnOrTx, authorID int, in ArticleInput) (*models.Article, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Create article").End()

	article, err := db.QueryOne[models.Article](ctx, dbConn,
		`
		INSERT INTO article (created_at, title, body, likes, author_id)
		VALUES ($1, $2, $3, 0, $4)
		RETURNING $columns
		`,
		time.Now(),
		in.Title,
		in.Body,
		authorID,
	)
	if err != nil {
		return nil, oops.New(err, "failed to create article")
	}
	return article, nil
}

// Replaces the title and body of an article. Authorship, creation time and
// likes are untouched.
func UpdateArticle(ctx context.Context, dbConn db.ConnOrTx, articleID int, in ArticleInput) error {
	tag, err := dbConn.Exec(ctx,
		`
		UPDATE article
		SET title = $1, body = $2
		WHERE id = $3
		`,
		in.Title,
		in.Body,
		articleID,
	)
	if err != nil {
		return oops.New(err, "failed to update article")
	} else if tag.RowsAffected() < 1 {
		return db.NotFound
	}
	return nil
}

// Deletes an article along with its likes.
func DeleteArticle(ctx context.Context, dbConn db.ConnOrTx, articleID int) error {
	tag, err := dbConn.Exec(ctx, `DELETE FROM article WHERE id = $1`, articleID)
	if err != nil {
		return oops.New(err, "failed to delete article")
	} else if tag.RowsAffected() < 1 {
		return db.NotFound
	}
	return nil
}
