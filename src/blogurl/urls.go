package blogurl

import (
	"fmt"
	"regexp"
	"strings"

	"git.inkwell.blog/inkwell/inkwell/src/oops"
)

/*
Any function in this package whose name starts with Build will be used as a URL
in templates. Every route has a matching Regex used by the router.
*/

var RegexHomepage = regexp.MustCompile("^/$")

func BuildHomepage() string {
	return Url("/", nil)
}

var RegexOldest = regexp.MustCompile("^/oldest$")

func BuildOldest() string {
	return Url("/oldest", nil)
}

var RegexMostPopular = regexp.MustCompile("^/most-popular$")

func BuildMostPopular() string {
	return Url("/most-popular", nil)
}

/*
* Articles
 */

var RegexArticle = regexp.MustCompile(`^/article/(?P<articleid>\d+)$`)

func BuildArticle(articleID int) string {
	return Url(fmt.Sprintf("/article/%d", articleID), nil)
}

var RegexLikeArticle = regexp.MustCompile(`^/like-article/(?P<articleid>\d+)$`)

func BuildLikeArticle(articleID int) string {
	return Url(fmt.Sprintf("/like-article/%d", articleID), nil)
}

var RegexCreateArticle = regexp.MustCompile("^/create-article$")

func BuildCreateArticle() string {
	return Url("/create-article", nil)
}

var RegexEditArticle = regexp.MustCompile(`^/edit-article/(?P<articleid>\d+)$`)

func BuildEditArticle(articleID int) string {
	return Url(fmt.Sprintf("/edit-article/%d", articleID), nil)
}

var RegexDeleteArticle = regexp.MustCompile(`^/delete-article/(?P<articleid>\d+)$`)

func BuildDeleteArticle(articleID int) string {
	return Url(fmt.Sprintf("/delete-article/%d", articleID), nil)
}

var RegexUploadPicture = regexp.MustCompile(`^/upload-picture/(?P<articleid>\d+)$`)

func BuildUploadPicture(articleID int) string {
	return Url(fmt.Sprintf("/upload-picture/%d", articleID), nil)
}

var RegexArticleWish = regexp.MustCompile("^/article-wish$")

func BuildArticleWish() string {
	return Url("/article-wish", nil)
}

var RegexArticleWishes = regexp.MustCompile("^/article-wishes$")

func BuildArticleWishes() string {
	return Url("/article-wishes", nil)
}

/*
* Accounts
 */

var RegexAccount = regexp.MustCompile("^/account$")

func BuildAccount() string {
	return Url("/account", nil)
}

var RegexLogin = regexp.MustCompile("^/login$")

func BuildLogin() string {
	return Url("/login", nil)
}

var RegexRegister = regexp.MustCompile("^/register$")

func BuildRegister() string {
	return Url("/register", nil)
}

var RegexLogout = regexp.MustCompile("^/logout$")

func BuildLogout() string {
	return Url("/logout", nil)
}

var RegexDashboard = regexp.MustCompile("^/dashboard$")

func BuildDashboard() string {
	return Url("/dashboard", nil)
}

var RegexChangeEmail = regexp.MustCompile("^/change-email$")

func BuildChangeEmail() string {
	return Url("/change-email", nil)
}

var RegexChangePassword = regexp.MustCompile("^/change-password$")

func BuildChangePassword() string {
	return Url("/change-password", nil)
}

/*
* Admin
 */

var RegexAdmin = regexp.MustCompile("^/admin$")

func BuildAdmin() string {
	return Url("/admin", nil)
}

var RegexAdminWriters = regexp.MustCompile("^/admin/writers$")

func BuildAdminWriters() string {
	return Url("/admin/writers", nil)
}

var RegexAdminUsers = regexp.MustCompile("^/admin/users$")

func BuildAdminUsers() string {
	return Url("/admin/users", nil)
}

var RegexAdminPerf = regexp.MustCompile("^/admin/perf$")

func BuildAdminPerf() string {
	return Url("/admin/perf", nil)
}

var RegexAddWriter = regexp.MustCompile("^/add-writer$")

func BuildAddWriter() string {
	return Url("/add-writer", nil)
}

var RegexRemoveWriter = regexp.MustCompile("^/remove-writer$")

func BuildRemoveWriter() string {
	return Url("/remove-writer", nil)
}

var RegexAdminVisualName = regexp.MustCompile("^/admin-visual-name$")

func BuildAdminVisualName() string {
	return Url("/admin-visual-name", nil)
}

var RegexUploadLogo = regexp.MustCompile("^/upload-logo$")

func BuildUploadLogo() string {
	return Url("/upload-logo", nil)
}

/*
* Static pages
 */

var RegexContact = regexp.MustCompile("^/contact$")

func BuildContact() string {
	return Url("/contact", nil)
}

var RegexDataProtection = regexp.MustCompile("^/data-protection$")

func BuildDataProtection() string {
	return Url("/data-protection", nil)
}

var RegexSecurityInfo = regexp.MustCompile("^/security-info$")

func BuildSecurityInfo() string {
	return Url("/security-info", nil)
}

/*
* Pictures and assets
 */

var RegexLogoPicture = regexp.MustCompile("^/pictures/logo/logo.jpg$")

func BuildLogoPicture() string {
	return Url("/pictures/logo/logo.jpg", nil)
}

var RegexArticlePicture = regexp.MustCompile(`^/pictures/articles/(?P<articleid>\d+)\.jpg$`)

func BuildArticlePicture(articleID int) string {
	return Url(fmt.Sprintf("/pictures/articles/%d.jpg", articleID), nil)
}

var RegexPublic = regexp.MustCompile("^/public/.+$")

func BuildPublic(filepath string) string {
	filepath = strings.Trim(filepath, "/")
	if len(strings.TrimSpace(filepath)) == 0 {
		panic(oops.New(nil, "Attempted to build a /public url with no path"))
	}
	var builder strings.Builder
	builder.WriteString(StaticPath)
	pathParts := strings.Split(filepath, "/")
	for _, part := range pathParts {
		part = strings.TrimSpace(part)
		if len(part) == 0 {
			panic(oops.New(nil, "Attempted to build a /public url with blank path segments: %s", filepath))
		}
		builder.WriteRune('/')
		builder.WriteString(part)
	}
	return Url(builder.String(), nil)
}

var RegexCatchAll = regexp.MustCompile("^")
