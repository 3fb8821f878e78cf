package templates

import (
	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/models"
	"git.inkwell.blog/inkwell/inkwell/src/parsing"
)

const ExcerptLength = 200

func UserToTemplate(u *models.User) User {
	return User{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		IsAdmin:    u.IsAdmin,
		DateJoined: u.DateJoined,
	}
}

/*
Converts an article for display. The body is rendered from markdown; callers
that only list articles can skip that with renderBody false. adminVisualName
replaces the author's username when the author is the administrator.
*/
func ArticleToTemplate(a *models.Article, author *models.User, adminVisualName string, renderBody bool) Article {
	result := Article{
		ID:        a.ID,
		Title:     a.Title,
		Excerpt:   parsing.Excerpt(a.Body, ExcerptLength),
		Likes:     a.Likes,
		CreatedAt: a.CreatedAt,

		Url:              blogurl.BuildArticle(a.ID),
		PictureUrl:       blogurl.BuildArticlePicture(a.ID),
		LikeUrl:          blogurl.BuildLikeArticle(a.ID),
		EditUrl:          blogurl.BuildEditArticle(a.ID),
		DeleteUrl:        blogurl.BuildDeleteArticle(a.ID),
		UploadPictureUrl: blogurl.BuildUploadPicture(a.ID),
	}
	if renderBody {
		result.Body = parsing.RenderArticleBody(a.Body)
	}
	if author != nil {
		result.Author = UserToTemplate(author)
		result.AuthorName = author.Username
		if author.IsAdmin && adminVisualName != "" {
			result.AuthorName = adminVisualName
		}
	}
	return result
}

func WriterToTemplate(w *models.Writer) Writer {
	return Writer{
		Username:  w.Username,
		DateAdded: w.DateAdded,
	}
}

func WishToTemplate(w *models.ArticleWish) Wish {
	return Wish{
		Wish:      w.Wish,
		Email:     w.Email,
		HasEmail:  w.Email != models.NoWishEmail,
		CreatedAt: w.CreatedAt,
	}
}
