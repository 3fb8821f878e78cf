package website

import (
	"errors"
	"net/http"

	"git.inkwell.blog/inkwell/inkwell/src/auth"
	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/models"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"git.inkwell.blog/inkwell/inkwell/src/perf"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
)

type AccountTemplateData struct {
	templates.BaseData
	LoginForm    templates.Form
	RegisterForm templates.Form
	LoginUrl     string
	RegisterUrl  string
}

func renderAccountPage(c *RequestContext, page string, title string, loginForm, registerForm templates.Form) ResponseData {
	var res ResponseData
	res.MustWriteTemplate(page, AccountTemplateData{
		BaseData:     getBaseData(c, title),
		LoginForm:    loginForm,
		RegisterForm: registerForm,
		LoginUrl:     blogurl.BuildLogin(),
		RegisterUrl:  blogurl.BuildRegister(),
	}, c.Perf)
	return res
}

func AccountPage(c *RequestContext) ResponseData {
	if c.CurrentUser != nil {
		return c.Redirect(blogurl.BuildDashboard(), http.StatusSeeOther)
	}
	return renderAccountPage(c, "account.html", "Account", templates.Form{}, templates.Form{})
}

func LoginPage(c *RequestContext) ResponseData {
	if c.CurrentUser != nil {
		return c.Redirect(blogurl.BuildDashboard(), http.StatusSeeOther)
	}
	return renderAccountPage(c, "login.html", "Log in", templates.Form{}, templates.Form{})
}

func RegisterPage(c *RequestContext) ResponseData {
	if c.CurrentUser != nil {
		return c.Redirect(blogurl.BuildDashboard(), http.StatusSeeOther)
	}
	return renderAccountPage(c, "register.html", "Register", templates.Form{}, templates.Form{})
}

func LoginSubmit(c *RequestContext) ResponseData {
	form := readForm(c, "username")
	username := form.Get("username")
	password := c.Req.PostFormValue("password")

	if username == "" || password == "" {
		perf.LoginAttempts.WithLabelValues("invalid").Inc()
		form.Errors = []string{"Please enter your username and password."}
		return renderAccountPage(c, "login.html", "Log in", form, templates.Form{})
	}

	user, err := blogdata.Authenticate(c, c.Conn, username, password)
	if errors.Is(err, blogdata.ErrNoSuchUser) {
		perf.LoginAttempts.WithLabelValues("failed").Inc()
		logEvent := c.Logger.Info().Str("username", username)
		if ip := c.GetIP(); ip != nil {
			logEvent = logEvent.Str("ip", ip.String())
		}
		logEvent.Msg("failed login attempt")

		form.Errors = []string{"Incorrect username or password."}
		return renderAccountPage(c, "login.html", "Log in", form, templates.Form{})
	} else if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to authenticate user"))
	}
	perf.LoginAttempts.WithLabelValues("success").Inc()

	if err := blogdata.UpdateLastLogin(c, c.Conn, user.ID); err != nil {
		c.Logger.Warn().Err(err).Msg("failed to record last login")
	}

	res := c.Redirect(landingPageFor(user), http.StatusSeeOther)
	if err := loginUser(c, user, &res); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	return res
}

func RegisterSubmit(c *RequestContext) ResponseData {
	form := readForm(c, "email", "username")
	in := blogdata.RegistrationInput{
		Email:    form.Get("email"),
		Username: form.Get("username"),
		Password: c.Req.PostFormValue("password"),
	}

	if verrs := in.Validate(); len(verrs) > 0 {
		perf.Registrations.WithLabelValues("invalid").Inc()
		return renderAccountPage(c, "register.html", "Register", templates.Form{}, withErrors(form, verrs))
	}

	user, err := blogdata.CreateUser(c, c.Conn, in)
	if errors.Is(err, blogdata.ErrUsernameTaken) {
		perf.Registrations.WithLabelValues("taken").Inc()
		form.Errors = []string{"That username is already taken."}
		return renderAccountPage(c, "register.html", "Register", templates.Form{}, form)
	} else if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to register user"))
	}
	perf.Registrations.WithLabelValues("success").Inc()

	c.Logger.Info().Str("username", user.Username).Bool("admin", user.IsAdmin).Msg("registered new user")

	res := c.Redirect(landingPageFor(user), http.StatusSeeOther)
	if err := loginUser(c, user, &res); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	res.AddFutureNotice("success", "Welcome, "+user.Username+"!")
	return res
}

func Logout(c *RequestContext) ResponseData {
	res := c.Redirect(blogurl.BuildAccount(), http.StatusSeeOther)
	res.SetCookie(auth.DeleteSessionCookie)
	return res
}

func loginUser(c *RequestContext, user *models.User, res *ResponseData) error {
	token, err := auth.IssueSessionToken(user.ID, user.Username)
	if err != nil {
		return err
	}
	res.SetCookie(auth.NewSessionCookie(token))
	return nil
}

func landingPageFor(user *models.User) string {
	if user.IsAdmin {
		return blogurl.BuildAdmin()
	}
	return blogurl.BuildDashboard()
}
