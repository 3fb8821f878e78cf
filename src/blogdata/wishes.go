package blogdata

import (
	"context"
	"strings"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/models"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"git.inkwell.blog/inkwell/inkwell/src/parsing"
)

// Cleans up a submitted wish. An empty email is stored as models.NoWishEmail.
func ValidateWish(wish, email string) (string, string, ValidationErrors) {
	wish = strings.TrimSpace(parsing.StripHTML(wish))
	email = strings.TrimSpace(email)
	if email == "" {
		email = models.NoWishEmail
	}

	var errs ValidationErrors
	if wish == "" {
		errs.add("Wish must not be empty.")
	}
	return wish, email, errs
}

func CreateWish(ctx context.Context, dbConn db.ConnOrTx, wish, email string) error {
	_, err := dbConn.Exec(ctx,
		`
		INSERT INTO article_wish (wish, email, created_at)
		VALUES ($1, $2, $3)
		`,
		wish,
		email,
		time.Now(),
	)
	if err != nil {
		return oops.New(err, "failed to save article wish")
	}
	return nil
}

// Oldest first.
func FetchWishes(ctx context.Context, dbConn db.ConnOrTx) ([]*models.ArticleWish, error) {
	wishes, err := db.Query[models.ArticleWish](ctx, dbConn,
		`
		SELECT $columns
		FROM article_wish
		ORDER BY created_at, id
		`,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch article wishes")
	}
	return wishes, nil
}
