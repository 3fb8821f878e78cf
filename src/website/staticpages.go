package website

import (
	"errors"
	"net/http"

	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
)

type StaticPageTemplateData struct {
	templates.BaseData
	AdminName  string
	AdminEmail string
}

func Contact(c *RequestContext) ResponseData {
	return staticPage(c, "contact.html", "Contact")
}

func DataProtection(c *RequestContext) ResponseData {
	return staticPage(c, "data_protection.html", "Data protection")
}

func SecurityInfo(c *RequestContext) ResponseData {
	return staticPage(c, "security_info.html", "Security")
}

// The static pages name the administrator by their public name and give
// their email address, if there is an administrator yet.
func staticPage(c *RequestContext, page, title string) ResponseData {
	name, err := blogdata.FetchAdminVisualName(c, c.Conn)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var email string
	admin, err := blogdata.FetchAdmin(c, c.Conn)
	if err == nil {
		email = admin.Email
	} else if !errors.Is(err, db.NotFound) {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var res ResponseData
	res.MustWriteTemplate(page, StaticPageTemplateData{
		BaseData:   getBaseData(c, title),
		AdminName:  name,
		AdminEmail: email,
	}, c.Perf)
	return res
}
