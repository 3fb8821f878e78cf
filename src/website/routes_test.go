package website

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/models"
	"git.inkwell.blog/inkwell/inkwell/src/perf"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noRedirects = &http.Client{
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func TestLogContextErrors(t *testing.T) {
	err1 := errors.New("test error 1")
	err2 := errors.New("test error 2")

	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Print("sanity check")

	assert.Contains(t, buf.String(), "sanity check")

	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			func(h Handler) Handler {
				return func(c *RequestContext) (res ResponseData) {
					c.Logger = &logger
					return h(c)
				}
			},
			logContextErrorsMiddleware,
		},
	}

	routes.GET(regexp.MustCompile("^/test$"), func(c *RequestContext) ResponseData {
		return c.ErrorResponse(http.StatusInternalServerError, err1, err2)
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/test")
	if assert.Nil(t, err) {
		defer res.Body.Close()

		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		assert.Contains(t, buf.String(), err1.Error())
		assert.Contains(t, buf.String(), err2.Error())
	}
}

func TestRouter(t *testing.T) {
	router := &Router{}
	routes := RouteBuilder{Router: router}

	var gotID string
	routes.GET(regexp.MustCompile(`^/article/(?P<articleid>\d+)$`), func(c *RequestContext) ResponseData {
		gotID = c.PathParams["articleid"]
		var res ResponseData
		res.Write([]byte("article"))
		return res
	})
	routes.POST(regexp.MustCompile(`^/article/(?P<articleid>\d+)$`), func(c *RequestContext) ResponseData {
		var res ResponseData
		res.Write([]byte("posted"))
		return res
	})
	routes.AnyMethod(regexp.MustCompile("^"), func(c *RequestContext) ResponseData {
		var res ResponseData
		res.StatusCode = http.StatusNotFound
		return res
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	t.Run("path params", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/article/42")
		require.Nil(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "42", gotID)
	})
	t.Run("trailing slash", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/article/7/")
		require.Nil(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "7", gotID)
	})
	t.Run("method", func(t *testing.T) {
		res, err := http.Post(srv.URL+"/article/7", "text/plain", nil)
		require.Nil(t, err)
		defer res.Body.Close()
		var body bytes.Buffer
		body.ReadFrom(res.Body)
		assert.Equal(t, "posted", body.String())
	})
	t.Run("fallthrough", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/article/abc")
		require.Nil(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
	t.Run("route names", func(t *testing.T) {
		require.Len(t, router.Routes, 3)
		assert.Equal(t, `GET [^/article/(?P<articleid>\d+)$]`, router.Routes[0].String())
		assert.Equal(t, " [^]", router.Routes[2].String())
	})
}

func TestGuards(t *testing.T) {
	var (
		reader = &models.User{ID: 3, Username: "reader"}
		writer = &models.User{ID: 2, Username: "writer"}
		admin  = &models.User{ID: 1, Username: "admin", IsAdmin: true}
	)

	type identity struct {
		user     *models.User
		canWrite bool
	}

	serve := func(guards []Middleware, who identity) *http.Response {
		router := &Router{}
		routes := RouteBuilder{
			Router: router,
			Middlewares: []Middleware{
				func(h Handler) Handler {
					return func(c *RequestContext) ResponseData {
						c.CurrentUser = who.user
						c.CurrentUserCanWrite = who.canWrite
						return h(c)
					}
				},
			},
		}
		routes = routes.WithMiddleware(guards...)
		routes.GET(regexp.MustCompile("^/guarded$"), func(c *RequestContext) ResponseData {
			var res ResponseData
			res.Write([]byte("ok"))
			return res
		})

		srv := httptest.NewServer(router)
		defer srv.Close()

		res, err := noRedirects.Get(srv.URL + "/guarded")
		require.Nil(t, err)
		res.Body.Close()
		return res
	}

	assertRedirect := func(t *testing.T, res *http.Response, suffix string) {
		t.Helper()
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Regexp(t, regexp.QuoteMeta(suffix)+"$", res.Header.Get("Location"))
	}

	t.Run("needsAuth", func(t *testing.T) {
		assertRedirect(t, serve([]Middleware{needsAuth}, identity{}), "/account")
		assert.Equal(t, http.StatusOK, serve([]Middleware{needsAuth}, identity{user: reader}).StatusCode)
	})
	t.Run("writersOnly", func(t *testing.T) {
		guards := []Middleware{needsAuth, writersOnly}
		assertRedirect(t, serve(guards, identity{}), "/account")
		assertRedirect(t, serve(guards, identity{user: reader}), "/")
		assert.Equal(t, http.StatusOK, serve(guards, identity{user: writer, canWrite: true}).StatusCode)
		assert.Equal(t, http.StatusOK, serve(guards, identity{user: admin, canWrite: true}).StatusCode)
	})
	t.Run("adminsOnly", func(t *testing.T) {
		guards := []Middleware{needsAuth, adminsOnly}
		assertRedirect(t, serve(guards, identity{user: writer, canWrite: true}), "/")
		assert.Equal(t, http.StatusOK, serve(guards, identity{user: admin, canWrite: true}).StatusCode)
	})
}

func TestPanicCatcher(t *testing.T) {
	router := &Router{}
	routes := RouteBuilder{
		Router:      router,
		Middlewares: []Middleware{panicCatcherMiddleware},
	}
	routes.GET(regexp.MustCompile("^/panic$"), func(c *RequestContext) ResponseData {
		panic("oh no")
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/panic")
	require.Nil(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestNoticesCookie(t *testing.T) {
	logger := zerolog.Nop()
	c := &RequestContext{Logger: &logger}

	var res ResponseData
	res.AddFutureNotice("success", `Saved "Hello" & <friends>`)
	res.AddFutureNotice("warn", "Second | notice")

	serialized := serializeNoticesForCookie(c, res.FutureNotices)
	assert.NotContains(t, serialized, ";")
	assert.NotContains(t, serialized, "\t")

	notices := deserializeNoticesFromCookie(serialized)
	require.Len(t, notices, 2)
	assert.Equal(t, "success", notices[0].Class)
	assert.Equal(t, "Saved &#34;Hello&#34; &amp; &lt;friends&gt;", string(notices[0].Content))
	assert.Equal(t, templates.Notice{Class: "warn", Content: "Second | notice"}, notices[1])

	assert.Empty(t, serializeNoticesForCookie(c, nil))
	assert.Empty(t, deserializeNoticesFromCookie("%zz"))
}

func TestPerfmon(t *testing.T) {
	collector, job := perf.RunPerfCollector()
	defer func() {
		job.Cancel()
		<-job.Finished()
	}()

	run := perf.MakeNewRequestPerf("GET [^/$]", "GET", "/")
	run.Status = http.StatusOK
	outer := run.StartBlock("MIDDLEWARE", "Load common data")
	run.StartBlock("SQL", "Fetch user").End()
	outer.End()
	run.EndRequest()
	collector.SubmitRun(run)

	c := &RequestContext{
		Perf:          perf.MakeNewRequestPerf("GET [^/admin/perf$]", "GET", "/admin/perf"),
		PerfCollector: collector,
	}
	res := Perfmon(c)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))

	var records []perfRecord
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "/", records[0].Path)
	assert.Equal(t, http.StatusOK, records[0].Status)

	// the SQL block happened inside the middleware block
	require.Len(t, records[0].Breakdown.Children, 1)
	middleware := records[0].Breakdown.Children[0]
	assert.Equal(t, "Load common data", middleware.Description)
	require.Len(t, middleware.Children, 1)
	assert.Equal(t, "Fetch user", middleware.Children[0].Description)
}

func TestAdminPerfUrl(t *testing.T) {
	assert.Equal(t, "", adminPerfUrl(&RequestContext{}))

	collector, job := perf.RunPerfCollector()
	defer func() {
		job.Cancel()
		<-job.Finished()
	}()
	assert.Equal(t, blogurl.BuildAdminPerf(), adminPerfUrl(&RequestContext{PerfCollector: collector}))
}

func TestRedirect(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("get has a body", func(t *testing.T) {
		c := &RequestContext{Logger: &logger, Req: httptest.NewRequest(http.MethodGet, "/old", nil)}
		res := c.Redirect("https://blog.example.com/article/3?x=<1>", http.StatusSeeOther)
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "https://blog.example.com/article/3?x=<1>", res.Header().Get("Location"))
		assert.Contains(t, res.Body.String(), "See Other")
		assert.NotContains(t, res.Body.String(), "<1>")
	})
	t.Run("post has none", func(t *testing.T) {
		c := &RequestContext{Logger: &logger, Req: httptest.NewRequest(http.MethodPost, "/old", nil)}
		res := c.Redirect(blogurl.BuildDashboard(), http.StatusSeeOther)
		assert.Equal(t, blogurl.BuildDashboard(), res.Header().Get("Location"))
		assert.Nil(t, res.Body)
	})
	t.Run("unparseable goes home", func(t *testing.T) {
		c := &RequestContext{Logger: &logger, Req: httptest.NewRequest(http.MethodPost, "/old", nil)}
		res := c.Redirect("http://[::1", http.StatusSeeOther)
		assert.Equal(t, blogurl.BuildHomepage(), res.Header().Get("Location"))
	})
}
