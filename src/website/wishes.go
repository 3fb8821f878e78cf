package website

import (
	"net/http"

	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
)

type ArticleWishTemplateData struct {
	templates.BaseData
	Form      templates.Form
	SubmitUrl string
}

func ArticleWish(c *RequestContext) ResponseData {
	return renderArticleWishForm(c, templates.Form{})
}

func renderArticleWishForm(c *RequestContext, form templates.Form) ResponseData {
	var res ResponseData
	res.MustWriteTemplate("article_wish.html", ArticleWishTemplateData{
		BaseData:  getBaseData(c, "Wish for an article"),
		Form:      form,
		SubmitUrl: blogurl.BuildArticleWish(),
	}, c.Perf)
	return res
}

func ArticleWishSubmit(c *RequestContext) ResponseData {
	form := readForm(c, "wish", "email")
	wish, email, verrs := blogdata.ValidateWish(form.Get("wish"), form.Get("email"))
	if len(verrs) > 0 {
		return renderArticleWishForm(c, withErrors(form, verrs))
	}

	if err := blogdata.CreateWish(c, c.Conn, wish, email); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	res := c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
	res.AddFutureNotice("success", "Thanks! Your wish was sent to the writers.")
	return res
}

func ArticleWishes(c *RequestContext) ResponseData {
	wishes, err := blogdata.FetchWishes(c, c.Conn)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	tmpl := struct {
		templates.BaseData
		Wishes []templates.Wish
	}{
		BaseData: getBaseData(c, "Article wishes"),
	}
	for _, w := range wishes {
		tmpl.Wishes = append(tmpl.Wishes, templates.WishToTemplate(w))
	}

	var res ResponseData
	res.MustWriteTemplate("article_wishes.html", tmpl, c.Perf)
	return res
}
