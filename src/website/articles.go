package website

import (
	"errors"
	"net/http"

	"git.inkwell.blog/inkwell/inkwell/src/assets"
	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
)

const articlesPerPage = 10

type IndexKind struct {
	Heading string
	Order   blogdata.ArticleOrder
	Build   func() string
}

var (
	IndexNewest      = IndexKind{Heading: "Newest articles", Order: blogdata.OrderNewest, Build: blogurl.BuildHomepage}
	IndexOldest      = IndexKind{Heading: "Oldest articles", Order: blogdata.OrderOldest, Build: blogurl.BuildOldest}
	IndexMostPopular = IndexKind{Heading: "Most popular articles", Order: blogdata.OrderMostLiked, Build: blogurl.BuildMostPopular}
)

type IndexTemplateData struct {
	templates.BaseData
	Heading  string
	Articles []templates.Article

	Page, TotalPages int
	PrevUrl, NextUrl string
}

func Index(kind IndexKind) Handler {
	return func(c *RequestContext) ResponseData {
		numArticles, err := blogdata.CountArticles(c, c.Conn)
		if err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}

		page, totalPages, ok := getPageInfo(c.Req.URL.Query().Get("page"), numArticles, articlesPerPage)
		if !ok {
			return c.Redirect(kind.Build(), http.StatusSeeOther)
		}

		articles, err := blogdata.FetchArticles(c, c.Conn, blogdata.ArticlesQuery{
			Order:  kind.Order,
			Limit:  articlesPerPage,
			Offset: (page - 1) * articlesPerPage,
		})
		if err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to fetch articles"))
		}

		adminName, err := blogdata.FetchAdminVisualName(c, c.Conn)
		if err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}

		tmpl := IndexTemplateData{
			BaseData:   getBaseData(c, ""),
			Heading:    kind.Heading,
			Page:       page,
			TotalPages: totalPages,
		}
		if page > 1 {
			tmpl.PrevUrl = pageUrl(kind.Build(), page-1)
		}
		if page < totalPages {
			tmpl.NextUrl = pageUrl(kind.Build(), page+1)
		}
		for _, a := range articles {
			tmpl.Articles = append(tmpl.Articles, templates.ArticleToTemplate(&a.Article, &a.Author, adminName, false))
		}

		var res ResponseData
		res.MustWriteTemplate("index.html", tmpl, c.Perf)
		return res
	}
}

type ArticleTemplateData struct {
	templates.BaseData
	Article templates.Article
}

func ArticleView(c *RequestContext) ResponseData {
	articleID, ok := c.IntParam("articleid")
	if !ok {
		return c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
	}

	article, err := blogdata.FetchArticle(c, c.Conn, articleID)
	if errors.Is(err, db.NotFound) {
		return c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
	} else if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to fetch article"))
	}

	adminName, err := blogdata.FetchAdminVisualName(c, c.Conn)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	tmplArticle := templates.ArticleToTemplate(&article.Article, &article.Author, adminName, true)
	if c.CurrentUser != nil {
		tmplArticle.CanEdit = c.CurrentUserCanWrite && blogdata.CanEditArticle(c.CurrentUser, &article.Article)
		tmplArticle.Liked, err = blogdata.HasLiked(c, c.Conn, c.CurrentUser.ID, article.Article.ID)
		if err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}
	}

	var res ResponseData
	res.MustWriteTemplate("article.html", ArticleTemplateData{
		BaseData: getBaseData(c, article.Article.Title),
		Article:  tmplArticle,
	}, c.Perf)
	return res
}

func LikeArticle(c *RequestContext) ResponseData {
	articleID, ok := c.IntParam("articleid")
	if !ok {
		return c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
	}

	state, likes, err := blogdata.ToggleLike(c, c.Conn, c.CurrentUser.ID, articleID)
	if errors.Is(err, db.NotFound) {
		return c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
	} else if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	c.Logger.Debug().
		Int("articleId", articleID).
		Stringer("state", state).
		Int("likes", likes).
		Msg("toggled like")

	return c.Redirect(blogurl.BuildArticle(articleID), http.StatusSeeOther)
}

type ArticleFormTemplateData struct {
	templates.BaseData
	Form      templates.Form
	SubmitUrl string
}

func CreateArticle(c *RequestContext) ResponseData {
	var res ResponseData
	res.MustWriteTemplate("article_form.html", ArticleFormTemplateData{
		BaseData:  getBaseData(c, "New article"),
		SubmitUrl: blogurl.BuildCreateArticle(),
	}, c.Perf)
	return res
}

func CreateArticleSubmit(c *RequestContext) ResponseData {
	form := readForm(c, "title", "body")
	in := blogdata.ArticleInput{Title: form.Get("title"), Body: form.Get("body")}
	if verrs := in.Validate(); len(verrs) > 0 {
		var res ResponseData
		res.MustWriteTemplate("article_form.html", ArticleFormTemplateData{
			BaseData:  getBaseData(c, "New article"),
			Form:      withErrors(form, verrs),
			SubmitUrl: blogurl.BuildCreateArticle(),
		}, c.Perf)
		return res
	}

	article, err := blogdata.CreateArticle(c, c.Conn, c.CurrentUser.ID, in)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	c.Logger.Info().Int("articleId", article.ID).Str("author", c.CurrentUser.Username).Msg("created article")

	res := c.Redirect(blogurl.BuildUploadPicture(article.ID), http.StatusSeeOther)
	res.AddFutureNotice("success", "Article published. You can add a picture to it now.")
	return res
}

func EditArticle(c *RequestContext) ResponseData {
	form := templates.Form{Values: map[string]string{
		"title": c.CurrentArticle.Title,
		"body":  c.CurrentArticle.Body,
	}}

	var res ResponseData
	res.MustWriteTemplate("article_form.html", ArticleFormTemplateData{
		BaseData:  getBaseData(c, "Edit article"),
		Form:      form,
		SubmitUrl: blogurl.BuildEditArticle(c.CurrentArticle.ID),
	}, c.Perf)
	return res
}

func EditArticleSubmit(c *RequestContext) ResponseData {
	form := readForm(c, "title", "body")
	in := blogdata.ArticleInput{Title: form.Get("title"), Body: form.Get("body")}
	if verrs := in.Validate(); len(verrs) > 0 {
		var res ResponseData
		res.MustWriteTemplate("article_form.html", ArticleFormTemplateData{
			BaseData:  getBaseData(c, "Edit article"),
			Form:      withErrors(form, verrs),
			SubmitUrl: blogurl.BuildEditArticle(c.CurrentArticle.ID),
		}, c.Perf)
		return res
	}

	err := blogdata.UpdateArticle(c, c.Conn, c.CurrentArticle.ID, in)
	if errors.Is(err, db.NotFound) {
		return c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
	} else if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	res := c.Redirect(blogurl.BuildArticle(c.CurrentArticle.ID), http.StatusSeeOther)
	res.AddFutureNotice("success", "Article updated.")
	return res
}

func DeleteArticleSubmit(c *RequestContext) ResponseData {
	err := blogdata.DeleteArticle(c, c.Conn, c.CurrentArticle.ID)
	if err != nil && !errors.Is(err, db.NotFound) {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	err = assets.DeleteArticlePicture(c, c.CurrentArticle.ID)
	if err != nil {
		// The article is already gone; an orphaned picture is harmless.
		c.Logger.Warn().Err(err).Int("articleId", c.CurrentArticle.ID).Msg("failed to delete article picture")
	}

	c.Logger.Info().Int("articleId", c.CurrentArticle.ID).Str("by", c.CurrentUser.Username).Msg("deleted article")

	res := c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
	res.AddFutureNotice("success", "Article deleted.")
	return res
}
