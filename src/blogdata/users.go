package blogdata

import (
	"context"
	"errors"
	"strings"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/auth"
	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/models"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"git.inkwell.blog/inkwell/inkwell/src/perf"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrNoSuchUser    = errors.New("no such user")
)

const (
	usernameIndexName      = "blog_user_username_lower"
	usernameConstraintName = "blog_user_username_key"
	singleAdminIndexName   = "blog_user_single_admin"
)

func FetchUser(ctx context.Context, dbConn db.ConnOrTx, userID int) (*models.User, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Fetch user").End()

	user, err := db.QueryOne[models.User](ctx, dbConn,
		`
		SELECT $columns
		FROM blog_user
		WHERE id = $1
		`,
		userID,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, db.NotFound
		}
		return nil, oops.New(err, "failed to fetch user %d", userID)
	}
	return user, nil
}

// Usernames are matched case-insensitively.
func FetchUserByUsername(ctx context.Context, dbConn db.ConnOrTx, username string) (*models.User, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Fetch user by username").End()

	user, err := db.QueryOne[models.User](ctx, dbConn,
		`
		SELECT $columns
		FROM blog_user
		WHERE LOWER(username) = $1
		`,
		strings.ToLower(strings.TrimSpace(username)),
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, db.NotFound
		}
		return nil, oops.New(err, "failed to fetch user by username")
	}
	return user, nil
}

func FetchUsers(ctx context.Context, dbConn db.ConnOrTx) ([]*models.User, error) {
	users, err := db.Query[models.User](ctx, dbConn,
		`
		SELECT $columns
		FROM blog_user
		ORDER BY date_joined, id
		`,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch users")
	}
	return users, nil
}

// Returns db.NotFound when the site has no administrator yet.
func FetchAdmin(ctx context.Context, dbConn db.ConnOrTx) (*models.User, error) {
	admin, err := db.QueryOne[models.User](ctx, dbConn,
		`
		SELECT $columns
		FROM blog_user
		WHERE is_admin
		`,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, db.NotFound
		}
		return nil, oops.New(err, "failed to fetch admin")
	}
	return admin, nil
}

/*
Creates a user from already-validated input. The password is hashed with a
fresh salt. If the site has no administrator, the new user becomes it.

Returns ErrUsernameTaken if the username is in use by anyone, regardless of
case. Nothing is written in that case.
*/
func CreateUser(ctx context.Context, dbConn db.ConnOrTx, in RegistrationInput) (*models.User, error) {
	hashed := auth.HashPassword(in.Password)

	user, err := createUser(ctx, dbConn, in, hashed, true)
	if db.IsUniqueViolation(err, singleAdminIndexName) {
		// Someone else claimed the admin role between our check and our insert.
		user, err = createUser(ctx, dbConn, in, hashed, false)
	}
	return user, err
}

func createUser(ctx context.Context, dbConn db.ConnOrTx, in RegistrationInput, hashed auth.HashedPassword, adminIfNone bool) (*models.User, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Create user").End()

	tx, err := dbConn.Begin(ctx)
	if err != nil {
		return nil, oops.New(err, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	user, err := db.QueryOne[models.User](ctx, tx,
		`
		INSERT INTO blog_user (email, username, password, date_joined, is_admin)
		VALUES ($1, $2, $3, $4, $5 AND NOT EXISTS (SELECT 1 FROM blog_user WHERE is_admin))
		RETURNING $columns
		`,
		in.Email,
		in.Username,
		hashed.String(),
		time.Now(),
		adminIfNone,
	)
	if err != nil {
		if db.IsUniqueViolation(err, usernameIndexName) || db.IsUniqueViolation(err, usernameConstraintName) {
			return nil, ErrUsernameTaken
		}
		if db.IsUniqueViolation(err, singleAdminIndexName) {
			return nil, err
		}
		return nil, oops.New(err, "failed to insert user")
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, oops.New(err, "failed to commit new user")
	}
	return user, nil
}

func UpdateEmail(ctx context.Context, dbConn db.ConnOrTx, userID int, email string) error {
	tag, err := dbConn.Exec(ctx, `UPDATE blog_user SET email = $1 WHERE id = $2`, email, userID)
	if err != nil {
		return oops.New(err, "failed to update email")
	} else if tag.RowsAffected() < 1 {
		return ErrNoSuchUser
	}
	return nil
}

func UpdateLastLogin(ctx context.Context, dbConn db.ConnOrTx, userID int) error {
	_, err := dbConn.Exec(ctx, `UPDATE blog_user SET last_login = $1 WHERE id = $2`, time.Now(), userID)
	if err != nil {
		return oops.New(err, "failed to update last login")
	}
	return nil
}

/*
Gives the administrator role to the named user. Fails if a different user is
already the administrator; there is only ever one.
*/
func MakeAdmin(ctx context.Context, dbConn db.ConnOrTx, username string) error {
	user, err := FetchUserByUsername(ctx, dbConn, username)
	if errors.Is(err, db.NotFound) {
		return ErrNoSuchUser
	} else if err != nil {
		return err
	}

	_, err = dbConn.Exec(ctx, `UPDATE blog_user SET is_admin = TRUE WHERE id = $1`, user.ID)
	if err != nil {
		if db.IsUniqueViolation(err, singleAdminIndexName) {
			return oops.New(nil, "another user is already the administrator")
		}
		return oops.New(err, "failed to make user admin")
	}
	return nil
}

/*
Checks a username and password. On success, outdated or legacy password hashes
are replaced with a current one. Returns ErrNoSuchUser for both an unknown
username and a wrong password so callers cannot tell the two apart.
*/
func Authenticate(ctx context.Context, dbConn db.ConnOrTx, username, password string) (*models.User, error) {
	user, err := FetchUserByUsername(ctx, dbConn, username)
	if errors.Is(err, db.NotFound) {
		return nil, ErrNoSuchUser
	} else if err != nil {
		return nil, err
	}

	hashed, err := auth.ParsePasswordString(user.Password)
	if err != nil {
		return nil, oops.New(err, "failed to parse password for user %d", user.ID)
	}

	ok, err := auth.CheckPassword(password, hashed)
	if err != nil {
		return nil, oops.New(err, "failed to check password")
	}
	if !ok {
		return nil, ErrNoSuchUser
	}

	if hashed.IsOutdated() {
		rehashed := auth.HashPassword(password)
		if err := auth.UpdatePassword(ctx, dbConn, user.ID, rehashed); err != nil {
			return nil, err
		}
		user.Password = rehashed.String()
	}

	return user, nil
}
