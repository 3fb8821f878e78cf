package website

import (
	"net/http"

	"git.inkwell.blog/inkwell/inkwell/src/auth"
	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
)

type DashboardTemplateData struct {
	templates.BaseData
	ChangeEmailUrl    string
	ChangePasswordUrl string
}

func Dashboard(c *RequestContext) ResponseData {
	if c.CurrentUser.IsAdmin {
		return c.Redirect(blogurl.BuildAdmin(), http.StatusSeeOther)
	}

	var res ResponseData
	res.MustWriteTemplate("dashboard.html", DashboardTemplateData{
		BaseData:          getBaseData(c, "Dashboard"),
		ChangeEmailUrl:    blogurl.BuildChangeEmail(),
		ChangePasswordUrl: blogurl.BuildChangePassword(),
	}, c.Perf)
	return res
}

type CredentialFormTemplateData struct {
	templates.BaseData
	Form      templates.Form
	SubmitUrl string
}

func ChangeEmail(c *RequestContext) ResponseData {
	form := templates.Form{Values: map[string]string{"email": c.CurrentUser.Email}}
	return renderCredentialForm(c, "change_email.html", "Change email", form, blogurl.BuildChangeEmail())
}

func ChangeEmailSubmit(c *RequestContext) ResponseData {
	form := readForm(c, "email")
	email, verrs := blogdata.ValidateEmail(form.Get("email"))
	if len(verrs) > 0 {
		return renderCredentialForm(c, "change_email.html", "Change email", withErrors(form, verrs), blogurl.BuildChangeEmail())
	}

	if err := blogdata.UpdateEmail(c, c.Conn, c.CurrentUser.ID, email); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	res := c.Redirect(blogurl.BuildDashboard(), http.StatusSeeOther)
	res.AddFutureNotice("success", "Your email address was changed.")
	return res
}

func ChangePassword(c *RequestContext) ResponseData {
	return renderCredentialForm(c, "change_password.html", "Change password", templates.Form{}, blogurl.BuildChangePassword())
}

func ChangePasswordSubmit(c *RequestContext) ResponseData {
	password := c.Req.PostFormValue("password")
	confirm := c.Req.PostFormValue("confirm")
	if verrs := blogdata.ValidatePasswordChange(password, confirm); len(verrs) > 0 {
		return renderCredentialForm(c, "change_password.html", "Change password", withErrors(templates.Form{}, verrs), blogurl.BuildChangePassword())
	}

	if err := auth.SetPassword(c, c.Conn, c.CurrentUser.ID, password); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	c.Logger.Info().Str("username", c.CurrentUser.Username).Msg("user changed their password")

	res := c.Redirect(blogurl.BuildDashboard(), http.StatusSeeOther)
	res.AddFutureNotice("success", "Your password was changed.")
	return res
}

func renderCredentialForm(c *RequestContext, page, title string, form templates.Form, submitUrl string) ResponseData {
	var res ResponseData
	res.MustWriteTemplate(page, CredentialFormTemplateData{
		BaseData:  getBaseData(c, title),
		Form:      form,
		SubmitUrl: submitUrl,
	}, c.Perf)
	return res
}
