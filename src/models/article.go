package models

import "time"

type Article struct {
	ID        int       `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Likes     int       `db:"likes"`
	AuthorID  int       `db:"author_id"`
}

type LikedArticle struct {
	UserID    int       `db:"user_id"`
	ArticleID int       `db:"article_id"`
	LikedAt   time.Time `db:"liked_at"`
}

// Suggestions for future articles, submitted by anyone.
type ArticleWish struct {
	ID        int       `db:"id"`
	Wish      string    `db:"wish"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// Stored in place of an empty contact email on a wish.
const NoWishEmail = "-"

type PersistentVar struct {
	Name  string `db:"name"`
	Value string `db:"value"`
}
