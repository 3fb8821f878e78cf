package website

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
)

type AdminTemplateData struct {
	templates.BaseData

	VisualNameForm templates.Form
	WriterForm     templates.Form

	VisualNameUrl   string
	AddWriterUrl    string
	RemoveWriterUrl string
	WritersUrl      string
	UsersUrl        string
	UploadLogoUrl   string
	PerfUrl         string
}

func AdminDashboard(c *RequestContext) ResponseData {
	return renderAdminDashboardWithName(c, templates.Form{})
}

func renderAdminDashboard(c *RequestContext, visualNameForm, writerForm templates.Form, defaultName bool) ResponseData {
	baseData := getBaseData(c, "Administration")
	if defaultName {
		baseData.AddImmediateNotice("info", "Readers currently see you as \""+blogdata.DefaultAdminVisualName+"\". Pick a public name below.")
	}

	var res ResponseData
	res.MustWriteTemplate("admin.html", AdminTemplateData{
		BaseData:       baseData,
		VisualNameForm: visualNameForm,
		WriterForm:     writerForm,

		VisualNameUrl:   blogurl.BuildAdminVisualName(),
		AddWriterUrl:    blogurl.BuildAddWriter(),
		RemoveWriterUrl: blogurl.BuildRemoveWriter(),
		WritersUrl:      blogurl.BuildAdminWriters(),
		UsersUrl:        blogurl.BuildAdminUsers(),
		UploadLogoUrl:   blogurl.BuildUploadLogo(),
		PerfUrl:         adminPerfUrl(c),
	}, c.Perf)
	return res
}

// The timings page only exists while a perf collector is running.
func adminPerfUrl(c *RequestContext) string {
	if c.PerfCollector == nil {
		return ""
	}
	return blogurl.BuildAdminPerf()
}

func AdminWriters(c *RequestContext) ResponseData {
	writers, err := blogdata.FetchWriters(c, c.Conn)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	tmpl := struct {
		templates.BaseData
		Writers  []templates.Writer
		AdminUrl string
	}{
		BaseData: getBaseData(c, "Writers"),
		AdminUrl: blogurl.BuildAdmin(),
	}
	for _, w := range writers {
		tmpl.Writers = append(tmpl.Writers, templates.WriterToTemplate(w))
	}

	var res ResponseData
	res.MustWriteTemplate("admin_writers.html", tmpl, c.Perf)
	return res
}

func AdminUsers(c *RequestContext) ResponseData {
	users, err := blogdata.FetchUsers(c, c.Conn)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	tmpl := struct {
		templates.BaseData
		Users    []templates.User
		AdminUrl string
	}{
		BaseData: getBaseData(c, "Users"),
		AdminUrl: blogurl.BuildAdmin(),
	}
	for _, u := range users {
		tmpl.Users = append(tmpl.Users, templates.UserToTemplate(u))
	}

	var res ResponseData
	res.MustWriteTemplate("admin_users.html", tmpl, c.Perf)
	return res
}

func AddWriterSubmit(c *RequestContext) ResponseData {
	return changeWriter(c, blogdata.AddWriter, "%s can now write articles.")
}

func RemoveWriterSubmit(c *RequestContext) ResponseData {
	return changeWriter(c, blogdata.RemoveWriter, "%s is no longer a writer.")
}

func changeWriter(
	c *RequestContext,
	change func(ctx context.Context, conn db.ConnOrTx, username string) error,
	successMsg string,
) ResponseData {
	form := readForm(c, "username")
	username := strings.TrimSpace(form.Get("username"))
	if username == "" {
		form.Errors = []string{"Please enter a username."}
		return renderAdminDashboardWithName(c, form)
	}

	err := change(c, c.Conn, username)
	if errors.Is(err, blogdata.ErrNoSuchUser) {
		form.Errors = []string{"There is no writer or user called " + username + "."}
		return renderAdminDashboardWithName(c, form)
	} else if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to change writer %s", username))
	}

	c.Logger.Info().Str("username", username).Msg("changed writer status")

	res := c.Redirect(blogurl.BuildAdmin(), http.StatusSeeOther)
	res.AddFutureNotice("success", fmt.Sprintf(successMsg, username))
	return res
}

func renderAdminDashboardWithName(c *RequestContext, writerForm templates.Form) ResponseData {
	name, err := blogdata.FetchAdminVisualName(c, c.Conn)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	return renderAdminDashboard(c, templates.Form{Values: map[string]string{"name": name}}, writerForm, name == blogdata.DefaultAdminVisualName)
}

func AdminVisualNameSubmit(c *RequestContext) ResponseData {
	form := readForm(c, "name")
	name, verrs := blogdata.ValidateVisualName(form.Get("name"))
	if len(verrs) > 0 {
		return renderAdminDashboard(c, withErrors(form, verrs), templates.Form{}, false)
	}

	if err := blogdata.SetAdminVisualName(c, c.Conn, name); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	res := c.Redirect(blogurl.BuildAdmin(), http.StatusSeeOther)
	res.AddFutureNotice("success", "Your public name is now "+name+".")
	return res
}
