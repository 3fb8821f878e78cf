package admintools

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/models"
	"git.inkwell.blog/inkwell/inkwell/src/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func legacyDB(t *testing.T) *sql.DB {
	t.Helper()

	legacy, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	legacy.SetMaxOpenConns(1) // each connection gets its own in-memory database
	t.Cleanup(func() { legacy.Close() })

	hash := func(pw string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
		require.NoError(t, err)
		return string(h)
	}

	stmts := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, email STRING NOT NULL, username STRING NOT NULL UNIQUE, password STRING NOT NULL)`,
		`CREATE TABLE articles (id INTEGER PRIMARY KEY AUTOINCREMENT, createdDate TEXT, title STRING NOT NULL, article TEXT NOT NULL, likes INTEGER, authorid INTEGER)`,
		`CREATE TABLE articlewishes (id INTEGER PRIMARY KEY AUTOINCREMENT, email STRING, articlewish STRING NOT NULL)`,
		`CREATE TABLE writers (id INTEGER PRIMARY KEY AUTOINCREMENT, writer STRING NOT NULL)`,
		`CREATE TABLE adminVisualName (id INTEGER PRIMARY KEY AUTOINCREMENT, adminVisualName STRING NOT NULL)`,
		`CREATE TABLE boss (id INTEGER PRIMARY KEY AUTOINCREMENT, likedArticles STRING NOT NULL)`,
		`CREATE TABLE bob (id INTEGER PRIMARY KEY AUTOINCREMENT, likedArticles STRING NOT NULL)`,
		fmt.Sprintf(`INSERT INTO users (email, username, password) VALUES ('boss@example.com', 'boss', '%s')`, hash("bosspassword")),
		fmt.Sprintf(`INSERT INTO users (email, username, password) VALUES ('bob@example.com', 'bob', '%s')`, hash("bobpassword")),
		fmt.Sprintf(`INSERT INTO users (email, username, password) VALUES ('eve@example.com', 'eve', '%s')`, hash("evepassword")),
		`INSERT INTO writers (writer) VALUES ('bob'), ('ghost')`,
		`INSERT INTO articles (createdDate, title, article, likes, authorid) VALUES ('2023-05-01T10:00:00.000Z', 'First', 'Hello there', 7, 2)`,
		`INSERT INTO articles (createdDate, title, article, likes, authorid) VALUES ('2023-06-01T10:00:00.000Z', 'Second', 'More words', 0, 2)`,
		`INSERT INTO articles (createdDate, title, article, likes, authorid) VALUES (NULL, 'Orphan', 'Nobody wrote this', 0, 99)`,
		`INSERT INTO boss (likedArticles) VALUES ('1')`,
		`INSERT INTO bob (likedArticles) VALUES ('1'), ('2'), ('3')`,
		`INSERT INTO articlewishes (email, articlewish) VALUES (NULL, 'More about gardening')`,
		`INSERT INTO articlewishes (email, articlewish) VALUES ('reader@example.com', 'Bread recipes')`,
		`INSERT INTO adminVisualName (adminVisualName) VALUES ('The Editor')`,
	}
	for _, stmt := range stmts {
		_, err := legacy.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return legacy
}

func TestImportLegacy(t *testing.T) {
	ctx := context.Background()
	conn := testdb.Pool(t)
	legacy := legacyDB(t)

	tx, err := conn.Begin(ctx)
	require.NoError(t, err)
	res, err := ImportLegacy(ctx, legacy, tx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, LegacyImportResult{Users: 3, Writers: 1, Articles: 2, Likes: 3, Wishes: 2}, res)

	t.Run("first user is admin", func(t *testing.T) {
		admin, err := blogdata.FetchAdmin(ctx, conn)
		require.NoError(t, err)
		assert.Equal(t, "boss", admin.Username)
	})

	t.Run("bcrypt passwords still work", func(t *testing.T) {
		user, err := blogdata.Authenticate(ctx, conn, "bob", "bobpassword")
		require.NoError(t, err)
		assert.Equal(t, "bob", user.Username)

		_, err = blogdata.Authenticate(ctx, conn, "eve", "wrong")
		assert.ErrorIs(t, err, blogdata.ErrNoSuchUser)
	})

	t.Run("writers", func(t *testing.T) {
		isWriter, err := blogdata.IsWriter(ctx, conn, "bob")
		require.NoError(t, err)
		assert.True(t, isWriter)

		isWriter, err = blogdata.IsWriter(ctx, conn, "eve")
		require.NoError(t, err)
		assert.False(t, isWriter)
	})

	t.Run("like counts come from likes", func(t *testing.T) {
		articles, err := blogdata.FetchArticles(ctx, conn, blogdata.ArticlesQuery{Order: blogdata.OrderOldest})
		require.NoError(t, err)
		require.Len(t, articles, 2)
		assert.Equal(t, "First", articles[0].Article.Title)
		assert.Equal(t, 2, articles[0].Article.Likes)
		assert.Equal(t, 2023, articles[0].Article.CreatedAt.Year())
		assert.Equal(t, 1, articles[1].Article.Likes)
	})

	t.Run("wishes", func(t *testing.T) {
		wishes, err := blogdata.FetchWishes(ctx, conn)
		require.NoError(t, err)
		require.Len(t, wishes, 2)
		assert.Equal(t, models.NoWishEmail, wishes[0].Email)
		assert.Equal(t, "reader@example.com", wishes[1].Email)
	})

	t.Run("visual name", func(t *testing.T) {
		name, err := blogdata.FetchAdminVisualName(ctx, conn)
		require.NoError(t, err)
		assert.Equal(t, "The Editor", name)
	})

	t.Run("refuses a non-empty database", func(t *testing.T) {
		_, err := ImportLegacy(ctx, legacy, conn)
		assert.Error(t, err)
	})
}
