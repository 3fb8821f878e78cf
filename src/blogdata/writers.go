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

func IsWriter(ctx context.Context, dbConn db.ConnOrTx, username string) (bool, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Check writer").End()

	isWriter, err := db.QueryOneScalar[bool](ctx, dbConn,
		`
		SELECT EXISTS (
			SELECT 1 FROM writer WHERE LOWER(username) = LOWER($1)
		)
		`,
		username,
	)
	if err != nil {
		return false, oops.New(err, "failed to check writer status")
	}
	return isWriter, nil
}

// Writers may author articles. The administrator can always write, with or
// without a marker.
func CanWrite(ctx context.Context, dbConn db.ConnOrTx, user *models.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin {
		return true, nil
	}
	return IsWriter(ctx, dbConn, user.Username)
}

// Marks an existing user as a writer. Adding someone twice is not an error.
func AddWriter(ctx context.Context, dbConn db.ConnOrTx, username string) error {
	user, err := FetchUserByUsername(ctx, dbConn, username)
	if errors.Is(err, db.NotFound) {
		return ErrNoSuchUser
	} else if err != nil {
		return err
	}

	_, err = dbConn.Exec(ctx,
		`
		INSERT INTO writer (username, date_added)
		VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING
		`,
		user.Username,
		time.Now(),
	)
	if err != nil {
		return oops.New(err, "failed to add writer")
	}
	return nil
}

// Returns ErrNoSuchUser if the username was not a writer.
func RemoveWriter(ctx context.Context, dbConn db.ConnOrTx, username string) error {
	tag, err := dbConn.Exec(ctx, `DELETE FROM writer WHERE LOWER(username) = LOWER($1)`, username)
	if err != nil {
		return oops.New(err, "failed to remove writer")
	} else if tag.RowsAffected() < 1 {
		return ErrNoSuchUser
	}
	return nil
}

func FetchWriters(ctx context.Context, dbConn db.ConnOrTx) ([]*models.Writer, error) {
	writers, err := db.Query[models.Writer](ctx, dbConn,
		`
		SELECT $columns
		FROM writer
		ORDER BY date_added, username
		`,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch writers")
	}
	return writers, nil
}
