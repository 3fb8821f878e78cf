package website

import (
	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
)

const SiteName = "Inkwell"

func getBaseData(c *RequestContext, title string) templates.BaseData {
	var templateUser *templates.User
	if c.CurrentUser != nil {
		u := templates.UserToTemplate(c.CurrentUser)
		templateUser = &u
	}

	return templates.BaseData{
		Title:      title,
		CurrentUrl: c.FullUrl(),
		Notices:    getNoticesFromCookie(c),

		SiteName: SiteName,
		LogoUrl:  blogurl.BuildLogoPicture(),

		User:     templateUser,
		CanWrite: c.CurrentUserCanWrite,

		Header: templates.Header{
			HomepageUrl:    blogurl.BuildHomepage(),
			OldestUrl:      blogurl.BuildOldest(),
			MostPopularUrl: blogurl.BuildMostPopular(),

			CreateArticleUrl: blogurl.BuildCreateArticle(),
			ArticleWishUrl:   blogurl.BuildArticleWish(),
			ArticleWishesUrl: blogurl.BuildArticleWishes(),

			AccountUrl:   blogurl.BuildAccount(),
			DashboardUrl: blogurl.BuildDashboard(),
			AdminUrl:     blogurl.BuildAdmin(),
			LogoutUrl:    blogurl.BuildLogout(),
		},
		Footer: templates.Footer{
			ContactUrl:        blogurl.BuildContact(),
			DataProtectionUrl: blogurl.BuildDataProtection(),
			SecurityInfoUrl:   blogurl.BuildSecurityInfo(),
		},
	}
}
