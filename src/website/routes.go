package website

import (
	"net/http"

	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/perf"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewWebsiteRoutes(conn *pgxpool.Pool, perfCollector *perf.PerfCollector) http.Handler {
	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			setDBConn(conn),
			trackRequestPerf(perfCollector),
			logContextErrorsMiddleware,
			panicCatcherMiddleware,
		},
	}

	publicFiles := http.StripPrefix(blogurl.StaticPath, http.FileServer(http.FS(templates.PublicFS())))
	routes.GET(blogurl.RegexPublic, func(c *RequestContext) ResponseData {
		var res ResponseData
		publicFiles.ServeHTTP(&res, c.Req)
		return res
	})

	routes.GET(blogurl.RegexLogoPicture, LogoPicture)
	routes.GET(blogurl.RegexArticlePicture, ArticlePicture)

	routes = routes.WithMiddleware(
		loadCommonData,
		storeNoticesInCookieMiddleware,
	)

	routes.GET(blogurl.RegexHomepage, Index(IndexNewest))
	routes.GET(blogurl.RegexOldest, Index(IndexOldest))
	routes.GET(blogurl.RegexMostPopular, Index(IndexMostPopular))
	routes.GET(blogurl.RegexArticle, ArticleView)

	routes.GET(blogurl.RegexAccount, AccountPage)
	routes.GET(blogurl.RegexLogin, LoginPage)
	routes.POST(blogurl.RegexLogin, LoginSubmit)
	routes.GET(blogurl.RegexRegister, RegisterPage)
	routes.POST(blogurl.RegexRegister, RegisterSubmit)
	routes.GET(blogurl.RegexLogout, Logout)

	routes.GET(blogurl.RegexArticleWish, ArticleWish)
	routes.POST(blogurl.RegexArticleWish, ArticleWishSubmit)

	routes.GET(blogurl.RegexContact, Contact)
	routes.GET(blogurl.RegexDataProtection, DataProtection)
	routes.GET(blogurl.RegexSecurityInfo, SecurityInfo)

	authMiddleware := routes.WithMiddleware(needsAuth)
	authMiddleware.POST(blogurl.RegexLikeArticle, LikeArticle)
	authMiddleware.GET(blogurl.RegexDashboard, Dashboard)
	authMiddleware.GET(blogurl.RegexChangeEmail, ChangeEmail)
	authMiddleware.POST(blogurl.RegexChangeEmail, ChangeEmailSubmit)
	authMiddleware.GET(blogurl.RegexChangePassword, ChangePassword)
	authMiddleware.POST(blogurl.RegexChangePassword, ChangePasswordSubmit)

	writerMiddleware := routes.WithMiddleware(needsAuth, writersOnly)
	writerMiddleware.GET(blogurl.RegexCreateArticle, CreateArticle)
	writerMiddleware.POST(blogurl.RegexCreateArticle, CreateArticleSubmit)
	writerMiddleware.GET(blogurl.RegexArticleWishes, ArticleWishes)

	ownerMiddleware := writerMiddleware.WithMiddleware(articleOwnersOnly)
	ownerMiddleware.GET(blogurl.RegexEditArticle, EditArticle)
	ownerMiddleware.POST(blogurl.RegexEditArticle, EditArticleSubmit)
	ownerMiddleware.POST(blogurl.RegexDeleteArticle, DeleteArticleSubmit)
	ownerMiddleware.GET(blogurl.RegexUploadPicture, UploadArticlePicture)
	ownerMiddleware.POST(blogurl.RegexUploadPicture, UploadArticlePictureSubmit)

	adminMiddleware := routes.WithMiddleware(needsAuth, adminsOnly)
	adminMiddleware.GET(blogurl.RegexAdmin, AdminDashboard)
	adminMiddleware.GET(blogurl.RegexAdminWriters, AdminWriters)
	adminMiddleware.GET(blogurl.RegexAdminUsers, AdminUsers)
	if perfCollector != nil {
		adminMiddleware.GET(blogurl.RegexAdminPerf, Perfmon)
	}
	adminMiddleware.POST(blogurl.RegexAddWriter, AddWriterSubmit)
	adminMiddleware.POST(blogurl.RegexRemoveWriter, RemoveWriterSubmit)
	adminMiddleware.POST(blogurl.RegexAdminVisualName, AdminVisualNameSubmit)
	adminMiddleware.GET(blogurl.RegexUploadLogo, UploadLogo)
	adminMiddleware.POST(blogurl.RegexUploadLogo, UploadLogoSubmit)

	routes.AnyMethod(blogurl.RegexCatchAll, FourOhFour)

	return router
}
