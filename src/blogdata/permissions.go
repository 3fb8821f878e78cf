package blogdata

import "git.inkwell.blog/inkwell/inkwell/src/models"

// Only an article's author and the administrator may change or delete it.
func CanEditArticle(user *models.User, article *models.Article) bool {
	if user == nil || article == nil {
		return false
	}
	// author_id references blog_user.id, and both scan into int.
	return article.AuthorID == user.ID || user.IsAdmin
}
