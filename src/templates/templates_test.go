package templates

import (
	"bytes"
	"testing"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllTemplatesParse(t *testing.T) {
	templates, errs := getTemplatesFromFS(embeddedTemplateFs)
	for name, err := range errs {
		t.Errorf("template %s failed to parse: %v", name, err)
	}
	for _, name := range []string{"index.html", "article.html", "account.html", "admin.html", "error.html", "404.html"} {
		assert.Contains(t, templates, name)
	}
}

func TestRenderIndex(t *testing.T) {
	author := &models.User{ID: 1, Username: "admin", IsAdmin: true}
	article := &models.Article{ID: 7, Title: "Hello", Body: "**World**", Likes: 1, AuthorID: 1, CreatedAt: time.Now()}

	data := struct {
		BaseData
		Heading  string
		Articles []Article

		Page, TotalPages int
		PrevUrl, NextUrl string
	}{
		BaseData:   BaseData{SiteName: "Inkwell"},
		Heading:    "Newest",
		Articles:   []Article{ArticleToTemplate(article, author, "The Editor", false)},
		Page:       2,
		TotalPages: 3,
		PrevUrl:    "/",
		NextUrl:    "/?page=3",
	}

	var buf bytes.Buffer
	require.Nil(t, GetTemplate("index.html").Execute(&buf, data))
	out := buf.String()
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "The Editor")
	assert.Contains(t, out, "1 like")
	assert.NotContains(t, out, "<strong>")
	assert.Contains(t, out, "Page 2 of 3")
	assert.Contains(t, out, `href="/?page=3"`)
}

func TestArticleToTemplate(t *testing.T) {
	writer := &models.User{ID: 2, Username: "alice"}
	article := &models.Article{ID: 3, Title: "T", Body: "a *b*", AuthorID: 2}

	t.Run("writer keeps their username", func(t *testing.T) {
		ta := ArticleToTemplate(article, writer, "The Editor", true)
		assert.Equal(t, "alice", ta.AuthorName)
		assert.Contains(t, string(ta.Body), "<em>b</em>")
		assert.Contains(t, ta.Url, "/article/3")
		assert.Contains(t, ta.PictureUrl, "/pictures/articles/3.jpg")
	})
	t.Run("admin shows visual name", func(t *testing.T) {
		admin := &models.User{ID: 1, Username: "root", IsAdmin: true}
		ta := ArticleToTemplate(article, admin, "The Editor", false)
		assert.Equal(t, "The Editor", ta.AuthorName)
		assert.Empty(t, ta.Body)
	})
}

func TestWishToTemplate(t *testing.T) {
	assert.False(t, WishToTemplate(&models.ArticleWish{Email: models.NoWishEmail}).HasEmail)
	assert.True(t, WishToTemplate(&models.ArticleWish{Email: "a@x.com"}).HasEmail)
}

func TestRelativeDate(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "Less than a minute ago", RelativeDate(now))
	assert.Equal(t, "5 minutes ago", RelativeDate(now.Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "1 hour, 30 minutes ago", RelativeDate(now.Add(-90*time.Minute-time.Second)))
	assert.Equal(t, "2 days ago", RelativeDate(now.Add(-48*time.Hour-time.Second)))
}
