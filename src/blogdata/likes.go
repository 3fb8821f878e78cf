package blogdata

import (
	"context"
	"errors"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"git.inkwell.blog/inkwell/inkwell/src/perf"
)

type LikeState bool

const (
	NotLiked LikeState = false
	Liked    LikeState = true
)

func (s LikeState) String() string {
	if s == Liked {
		return "liked"
	}
	return "not_liked"
}

/*
Flips whether the user likes the article and returns the new state along with
the article's new like count. The article row is locked for the duration, so
concurrent toggles on the same article are serialized and the stored count
always equals the number of liked_article rows.

Returns db.NotFound if the article does not exist.
*/
func ToggleLike(ctx context.Context, dbConn db.ConnOrTx, userID, articleID int) (LikeState, int, error) {
	defer perf.ExtractPerf(ctx).StartBlock("SQL", "Toggle like").End()

	tx, err := dbConn.Begin(ctx)
	if err != nil {
		return NotLiked, 0, oops.New(err, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	_, err = db.QueryOneScalar[int](ctx, tx,
		`
		SELECT id FROM article
		WHERE id = $1
		FOR UPDATE
		`,
		articleID,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return NotLiked, 0, db.NotFound
		}
		return NotLiked, 0, oops.New(err, "failed to lock article")
	}

	tag, err := tx.Exec(ctx,
		`
		DELETE FROM liked_article
		WHERE user_id = $1 AND article_id = $2
		`,
		userID,
		articleID,
	)
	if err != nil {
		return NotLiked, 0, oops.New(err, "failed to remove like")
	}

	state := NotLiked
	delta := -1
	if tag.RowsAffected() == 0 {
		_, err = tx.Exec(ctx,
			`
			INSERT INTO liked_article (user_id, article_id, liked_at)
			VALUES ($1, $2, $3)
			`,
			userID,
			articleID,
			time.Now(),
		)
		if err != nil {
			return NotLiked, 0, oops.New(err, "failed to add like")
		}
		state = Liked
		delta = 1
	}

	likes, err := db.QueryOneScalar[int](ctx, tx,
		`
		UPDATE article
		SET likes = likes + $1
		WHERE id = $2
		RETURNING likes
		`,
		delta,
		articleID,
	)
	if err != nil {
		return NotLiked, 0, oops.New(err, "failed to update like count")
	}

	err = tx.Commit(ctx)
	if err != nil {
		return NotLiked, 0, oops.New(err, "failed to commit like toggle")
	}

	perf.LikesToggled.WithLabelValues(state.String()).Inc()
	return state, likes, nil
}

func HasLiked(ctx context.Context, dbConn db.ConnOrTx, userID, articleID int) (bool, error) {
	liked, err := db.QueryOneScalar[bool](ctx, dbConn,
		`
		SELECT EXISTS (
			SELECT 1 FROM liked_article
			WHERE user_id = $1 AND article_id = $2
		)
		`,
		userID,
		articleID,
	)
	if err != nil {
		return false, oops.New(err, "failed to check like")
	}
	return liked, nil
}

// Recomputes every article's like count from liked_article. Returns the
// number of articles whose count was wrong.
func ReconcileLikes(ctx context.Context, dbConn db.ConnOrTx) (int, error) {
	tag, err := dbConn.Exec(ctx,
		`
		UPDATE article
		SET likes = counted.n
		FROM (
			SELECT a.id, COUNT(la.user_id) AS n
			FROM article AS a
			LEFT JOIN liked_article AS la ON la.article_id = a.id
			GROUP BY a.id
		) AS counted
		WHERE article.id = counted.id AND article.likes <> counted.n
		`,
	)
	if err != nil {
		return 0, oops.New(err, "failed to reconcile likes")
	}
	return int(tag.RowsAffected()), nil
}
