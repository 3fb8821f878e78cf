package admintools

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/auth"
	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/logging"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

func addImportLegacyCommand(parent *cobra.Command) {
	importCommand := &cobra.Command{
		Use:   "importlegacy <path to ourApp.db>",
		Short: "Load users, articles, writers, wishes and likes from the old SQLite database",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				fmt.Printf("You must provide the path to the old database.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			if _, err := os.Stat(args[0]); err != nil {
				fmt.Printf("Cannot read %s: %v\n", args[0], err)
				os.Exit(1)
			}

			legacy, err := sql.Open("sqlite3", "file:"+args[0]+"?mode=ro")
			if err != nil {
				panic(oops.New(err, "failed to open legacy database"))
			}
			defer legacy.Close()

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			tx, err := conn.Begin(ctx)
			if err != nil {
				panic(oops.New(err, "failed to start transaction"))
			}
			defer tx.Rollback(ctx)

			res, err := ImportLegacy(ctx, legacy, tx)
			if err != nil {
				logging.Error().Err(err).Msg("legacy import failed, nothing was written")
				os.Exit(1)
			}
			if err := tx.Commit(ctx); err != nil {
				panic(oops.New(err, "failed to commit legacy import"))
			}

			fmt.Printf(
				"Imported %d users, %d writers, %d articles, %d likes and %d wishes.\n",
				res.Users, res.Writers, res.Articles, res.Likes, res.Wishes,
			)
		},
	}
	parent.AddCommand(importCommand)
}

type LegacyImportResult struct {
	Users, Writers, Articles, Likes, Wishes int
}

/*
Copies the contents of the old SQLite database into an empty Inkwell database.
Callers should pass a transaction so that a failed import leaves nothing behind.

The old database stored each user's likes in a table named after the user, and
the administrator was always the user with id 1. Passwords stay bcrypt hashes
until each user next logs in. Like counts are recomputed from the imported
likes rather than trusted.
*/
func ImportLegacy(ctx context.Context, legacy *sql.DB, dbConn db.ConnOrTx) (LegacyImportResult, error) {
	logger := logging.ExtractLogger(ctx)
	var res LegacyImportResult

	existing, err := db.QueryOneScalar[int](ctx, dbConn, `SELECT COUNT(*) FROM blog_user`)
	if err != nil {
		return res, oops.New(err, "failed to count existing users")
	}
	if existing > 0 {
		return res, oops.New(nil, "the database already has %d user(s); legacy import needs an empty database", existing)
	}

	// Users

	userIDs := make(map[int64]int)
	usernames := make(map[string]string) // lowercase -> stored
	legacyUsernames := make([]string, 0)
	userRows, err := legacy.QueryContext(ctx, `SELECT id, email, username, password FROM users ORDER BY id ASC`)
	if err != nil {
		return res, oops.New(err, "failed to read legacy users")
	}
	defer userRows.Close()
	first := true
	for userRows.Next() {
		var legacyID int64
		var email, username, bcryptHash string
		if err := userRows.Scan(&legacyID, &email, &username, &bcryptHash); err != nil {
			return res, oops.New(err, "failed to scan legacy user")
		}

		hashed, err := auth.LegacyBcryptPassword(bcryptHash)
		if err != nil {
			return res, oops.New(err, "legacy user %s has an unusable password", username)
		}

		newID, err := db.QueryOneScalar[int](ctx, dbConn,
			`
			INSERT INTO blog_user (email, username, password, date_joined, is_admin)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
			`,
			email,
			username,
			hashed.String(),
			time.Now(),
			first,
		)
		if err != nil {
			return res, oops.New(err, "failed to import user %s", username)
		}
		first = false

		userIDs[legacyID] = newID
		usernames[strings.ToLower(username)] = username
		legacyUsernames = append(legacyUsernames, username)
		res.Users++
	}
	if err := userRows.Err(); err != nil {
		return res, oops.New(err, "failed to read legacy users")
	}

	// Writers

	writerRows, err := legacy.QueryContext(ctx, `SELECT writer FROM writers ORDER BY id ASC`)
	if err != nil {
		return res, oops.New(err, "failed to read legacy writers")
	}
	defer writerRows.Close()
	for writerRows.Next() {
		var writer string
		if err := writerRows.Scan(&writer); err != nil {
			return res, oops.New(err, "failed to scan legacy writer")
		}
		username, ok := usernames[strings.ToLower(writer)]
		if !ok {
			logger.Warn().Str("writer", writer).Msg("skipping writer with no matching user")
			continue
		}
		tag, err := dbConn.Exec(ctx,
			`
			INSERT INTO writer (username, date_added)
			VALUES ($1, $2)
			ON CONFLICT (username) DO NOTHING
			`,
			username,
			time.Now(),
		)
		if err != nil {
			return res, oops.New(err, "failed to import writer %s", username)
		}
		res.Writers += int(tag.RowsAffected())
	}
	if err := writerRows.Err(); err != nil {
		return res, oops.New(err, "failed to read legacy writers")
	}

	// Articles

	articleIDs := make(map[string]int)
	articleRows, err := legacy.QueryContext(ctx, `SELECT id, createdDate, title, article, authorid FROM articles ORDER BY id ASC`)
	if err != nil {
		return res, oops.New(err, "failed to read legacy articles")
	}
	defer articleRows.Close()
	for articleRows.Next() {
		var legacyID int64
		var createdDate sql.NullString
		var title, body string
		var authorID sql.NullInt64
		if err := articleRows.Scan(&legacyID, &createdDate, &title, &body, &authorID); err != nil {
			return res, oops.New(err, "failed to scan legacy article")
		}

		newAuthorID, ok := userIDs[authorID.Int64]
		if !authorID.Valid || !ok {
			logger.Warn().Int64("article", legacyID).Msg("skipping article with no matching author")
			continue
		}

		createdAt := time.Now()
		if createdDate.Valid {
			if parsed, err := time.Parse(time.RFC3339, createdDate.String); err == nil {
				createdAt = parsed
			} else {
				logger.Warn().Int64("article", legacyID).Str("createdDate", createdDate.String).Msg("unparseable article date, using now")
			}
		}

		newID, err := db.QueryOneScalar[int](ctx, dbConn,
			`
			INSERT INTO article (created_at, title, body, likes, author_id)
			VALUES ($1, $2, $3, 0, $4)
			RETURNING id
			`,
			createdAt,
			title,
			body,
			newAuthorID,
		)
		if err != nil {
			return res, oops.New(err, "failed to import article %d", legacyID)
		}
		articleIDs[strconv.FormatInt(legacyID, 10)] = newID
		res.Articles++
	}
	if err := articleRows.Err(); err != nil {
		return res, oops.New(err, "failed to read legacy articles")
	}

	// Likes

	for _, username := range legacyUsernames {
		liked, err := legacyLikes(ctx, legacy, username)
		if err != nil {
			return res, err
		}
		if len(liked) == 0 {
			continue
		}

		user, err := blogdata.FetchUserByUsername(ctx, dbConn, username)
		if err != nil {
			return res, oops.New(err, "failed to look up imported user %s", username)
		}
		for _, legacyArticleID := range liked {
			articleID, ok := articleIDs[legacyArticleID]
			if !ok {
				continue
			}
			tag, err := dbConn.Exec(ctx,
				`
				INSERT INTO liked_article (user_id, article_id, liked_at)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING
				`,
				user.ID,
				articleID,
				time.Now(),
			)
			if err != nil {
				return res, oops.New(err, "failed to import like")
			}
			res.Likes += int(tag.RowsAffected())
		}
	}
	if _, err := blogdata.ReconcileLikes(ctx, dbConn); err != nil {
		return res, err
	}

	// Wishes

	wishRows, err := legacy.QueryContext(ctx, `SELECT email, articlewish FROM articlewishes ORDER BY id ASC`)
	if err != nil {
		return res, oops.New(err, "failed to read legacy wishes")
	}
	defer wishRows.Close()
	for wishRows.Next() {
		var email sql.NullString
		var wish string
		if err := wishRows.Scan(&email, &wish); err != nil {
			return res, oops.New(err, "failed to scan legacy wish")
		}
		wish, cleanEmail, errs := blogdata.ValidateWish(wish, email.String)
		if len(errs) > 0 {
			continue
		}
		if err := blogdata.CreateWish(ctx, dbConn, wish, cleanEmail); err != nil {
			return res, err
		}
		res.Wishes++
	}
	if err := wishRows.Err(); err != nil {
		return res, oops.New(err, "failed to read legacy wishes")
	}

	// Admin visual name

	var visualName string
	err = legacy.QueryRowContext(ctx, `SELECT adminVisualName FROM adminVisualName WHERE id = 1`).Scan(&visualName)
	if err == nil {
		name, errs := blogdata.ValidateVisualName(visualName)
		if len(errs) == 0 {
			if err := blogdata.SetAdminVisualName(ctx, dbConn, name); err != nil {
				return res, err
			}
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return res, oops.New(err, "failed to read legacy admin visual name")
	}

	return res, nil
}

// Returns the article ids stored in a user's like table, or nothing if the
// user never got one.
func legacyLikes(ctx context.Context, legacy *sql.DB, username string) ([]string, error) {
	var tableName string
	err := legacy.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`,
		username,
	).Scan(&tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, oops.New(err, "failed to look for like table of %s", username)
	}

	quoted := `"` + strings.ReplaceAll(tableName, `"`, `""`) + `"`
	rows, err := legacy.QueryContext(ctx, `SELECT likedArticles FROM `+quoted)
	if err != nil {
		return nil, oops.New(err, "failed to read likes of %s", username)
	}
	defer rows.Close()

	var liked []string
	for rows.Next() {
		var articleID string
		if err := rows.Scan(&articleID); err != nil {
			return nil, oops.New(err, "failed to scan like of %s", username)
		}
		liked = append(liked, strings.TrimSpace(articleID))
	}
	return liked, rows.Err()
}
