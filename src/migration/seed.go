package migration

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/config"
	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/models"
	lorem "github.com/HandmadeNetwork/golorem"
	"github.com/jackc/pgx/v5/tracelog"
)

// Seeds the database with sample data for local dev. Expects an empty,
// fully migrated database.
func SampleSeed() {
	ctx := context.Background()
	conn := db.NewConnWithConfig(config.PostgresConfig{
		LogLevel: tracelog.LogLevelWarn,
	})
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		panic(err)
	}
	defer tx.Rollback(ctx)

	fmt.Println("Creating admin user (\"admin\"/\"password\")...")
	admin := seedUser(ctx, tx, "admin")
	if !admin.IsAdmin {
		panic(fmt.Errorf("the database already has an administrator; seed an empty database"))
	}
	err = blogdata.SetAdminVisualName(ctx, tx, "The Editor")
	if err != nil {
		panic(err)
	}

	fmt.Println("Creating normal users (all with password \"password\")...")
	alice := seedUser(ctx, tx, "alice")
	bob := seedUser(ctx, tx, "bob")
	charlie := seedUser(ctx, tx, "charlie")
	readers := []*models.User{alice, bob, charlie}

	fmt.Println("Making alice and bob writers...")
	for _, writer := range []*models.User{alice, bob} {
		if err := blogdata.AddWriter(ctx, tx, writer.Username); err != nil {
			panic(err)
		}
	}

	fmt.Println("Writing articles...")
	for _, author := range []*models.User{admin, alice, alice, bob} {
		for i := 0; i < 3; i++ {
			article, err := blogdata.CreateArticle(ctx, tx, author.ID, blogdata.ArticleInput{
				Title: randomTitle(),
				Body:  randomBody(),
			})
			if err != nil {
				panic(err)
			}
			for _, reader := range readers {
				if randomBool() {
					if _, _, err := blogdata.ToggleLike(ctx, tx, reader.ID, article.ID); err != nil {
						panic(err)
					}
				}
			}
		}
	}

	fmt.Println("Adding article wishes...")
	err = blogdata.CreateWish(ctx, tx, lorem.Sentence(4, 12), "reader@example.com")
	if err != nil {
		panic(err)
	}
	err = blogdata.CreateWish(ctx, tx, lorem.Sentence(4, 12), models.NoWishEmail)
	if err != nil {
		panic(err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Println("Done!")
}

func seedUser(ctx context.Context, conn db.ConnOrTx, username string) *models.User {
	user, err := blogdata.CreateUser(ctx, conn, blogdata.RegistrationInput{
		Email:    fmt.Sprintf("%s@example.com", username),
		Username: username,
		Password: "password",
	})
	if err != nil {
		panic(err)
	}
	return user
}

func randomTitle() string {
	title := []rune(strings.TrimSuffix(lorem.Sentence(1, 4), "."))
	if len(title) > blogdata.TitleMaxLength {
		title = title[:blogdata.TitleMaxLength]
	}
	return strings.TrimSpace(string(title))
}

func randomBody() string {
	paragraphs := make([]string, 1+rand.Intn(4))
	for i := range paragraphs {
		paragraphs[i] = lorem.Paragraph(2, 6)
	}
	return strings.Join(paragraphs, "\n\n")
}

func randomBool() bool {
	return rand.Intn(2) == 1
}
