package website

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/logging"
	"git.inkwell.blog/inkwell/inkwell/src/models"
	"git.inkwell.blog/inkwell/inkwell/src/perf"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type Router struct {
	Routes []Route
}

type Route struct {
	Method  string
	Regex   *regexp.Regexp
	Handler Handler
}

func (r *Route) String() string {
	return fmt.Sprintf("%s [%s]", r.Method, r.Regex)
}

type RouteBuilder struct {
	Router      *Router
	Middlewares []Middleware
}

type Handler func(c *RequestContext) ResponseData
type Middleware func(h Handler) Handler

func applyMiddlewares(h Handler, ms []Middleware) Handler {
	result := h
	for i := len(ms) - 1; i >= 0; i-- {
		result = ms[i](result)
	}
	return result
}

func (rb *RouteBuilder) Handle(methods []string, regex *regexp.Regexp, h Handler) {
	// Ensure that this regex matches the start of the string
	regexStr := regex.String()
	if len(regexStr) == 0 || regexStr[0] != '^' {
		panic("All routing regexes must begin with '^'")
	}

	h = applyMiddlewares(h, rb.Middlewares)
	for _, method := range methods {
		rb.Router.Routes = append(rb.Router.Routes, Route{
			Method:  method,
			Regex:   regex,
			Handler: h,
		})
	}
}

func (rb *RouteBuilder) AnyMethod(regex *regexp.Regexp, h Handler) {
	rb.Handle([]string{""}, regex, h)
}

func (rb *RouteBuilder) GET(regex *regexp.Regexp, h Handler) {
	rb.Handle([]string{http.MethodGet}, regex, h)
}

func (rb *RouteBuilder) POST(regex *regexp.Regexp, h Handler) {
	rb.Handle([]string{http.MethodPost}, regex, h)
}

func (rb *RouteBuilder) WithMiddleware(ms ...Middleware) RouteBuilder {
	newRb := *rb
	newRb.Middlewares = append(append([]Middleware{}, rb.Middlewares...), ms...)

	return newRb
}

func (r *Router) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	method := req.Method
	if method == http.MethodHead {
		method = http.MethodGet // HEADs map to GETs for the purposes of routing
	}

	path := strings.TrimSuffix(req.URL.Path, "/")
	if path == "" {
		path = "/"
	}

	for _, route := range r.Routes {
		if route.Method != "" && method != route.Method {
			continue
		}

		match := route.Regex.FindStringSubmatch(path)
		if match == nil {
			continue
		}

		params := map[string]string{}
		for i, name := range route.Regex.SubexpNames() {
			if name != "" {
				params[name] = match[i]
			}
		}

		requestLogger := logging.GlobalLogger().With().
			Str(logging.RequestIDFieldName, uuid.NewString()).
			Logger()

		c := &RequestContext{
			Route:      route.String(),
			Logger:     &requestLogger,
			Req:        req,
			Res:        rw,
			PathParams: params,

			ctx: logging.AttachLoggerToContext(&requestLogger, req.Context()),
		}

		doRequest(rw, c, route.Handler)

		return
	}

	panic(fmt.Sprintf("Path '%s' did not match any routes! Make sure to register a wildcard route to act as a 404.", req.URL))
}

type RequestContext struct {
	Route      string
	Logger     *zerolog.Logger
	Req        *http.Request
	PathParams map[string]string

	// This is the http package's internal response object, not just a ResponseWriter.
	Res http.ResponseWriter

	Conn                *pgxpool.Pool
	CurrentUser         *models.User
	CurrentUserCanWrite bool

	// Set by articleOwnersOnly for the article named in the path.
	CurrentArticle *models.Article
	CurrentAuthor  *models.User

	Perf          *perf.RequestPerf
	PerfCollector *perf.PerfCollector

	ctx context.Context
}

// Our RequestContext is a context.Context

var _ context.Context = &RequestContext{}

func (c *RequestContext) Deadline() (time.Time, bool) {
	return c.ctx.Deadline()
}

func (c *RequestContext) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *RequestContext) Err() error {
	return c.ctx.Err()
}

func (c *RequestContext) Value(key any) any {
	switch key {
	case perf.PerfContextKey:
		return c.Perf
	default:
		return c.ctx.Value(key)
	}
}

// Plus it does many other things specific to us

func (c *RequestContext) FullUrl() string {
	var scheme string

	if proto, hasProto := c.Req.Header["X-Forwarded-Proto"]; hasProto {
		scheme = fmt.Sprintf("%s://", proto[0])
	}

	if scheme == "" {
		if c.Req.TLS != nil {
			scheme = "https://"
		} else {
			scheme = "http://"
		}
	}

	return scheme + c.Req.Host + c.Req.URL.String()
}

// Assumes the port is present, which it is for RemoteAddr according to the docs.
var ipRegex = regexp.MustCompile(`^(\[(?P<addrv6>[^\]]+)\]:\d+)|((?P<addrv4>[^:]+):\d+)$`)

func (c *RequestContext) GetIP() *netip.Prefix {
	ipString := ""

	if forwarded, hasForwarded := c.Req.Header["X-Forwarded-For"]; hasForwarded {
		ipString = strings.TrimSpace(strings.Split(forwarded[0], ",")[0])
	}

	if ipString == "" {
		ipString = c.Req.RemoteAddr
		if ipString != "" {
			matches := ipRegex.FindStringSubmatch(ipString)
			if matches != nil {
				v4 := matches[ipRegex.SubexpIndex("addrv4")]
				v6 := matches[ipRegex.SubexpIndex("addrv6")]
				if v4 != "" {
					ipString = v4
				} else {
					ipString = v6
				}
			}
		}
	}

	if ipString != "" {
		addr, err := netip.ParseAddr(ipString)
		if err == nil {
			res := netip.PrefixFrom(addr, addr.BitLen())
			return &res
		}
	}

	return nil
}

func (c *RequestContext) GetFormValues() (url.Values, error) {
	err := c.Req.ParseForm()
	if err != nil {
		return nil, err
	}

	return c.Req.PostForm, nil
}

// Returns the numeric path parameter with the given name, or false if it is
// missing or not a positive integer.
func (c *RequestContext) IntParam(name string) (int, bool) {
	id, err := strconv.Atoi(c.PathParams[name])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Redirects to a URL built by blogurl. Anything that does not parse sends the
// user home instead.
func (c *RequestContext) Redirect(dest string, code int) ResponseData {
	var res ResponseData

	destUrl, err := url.Parse(dest)
	if err != nil {
		c.Logger.Warn().Err(err).Str("dest", dest).Msg("Failed to parse redirect URI")
		return c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
	}
	dest = destUrl.String()

	res.Header().Set("Location", dest)
	res.StatusCode = code

	// Only GETs get a body; browsers never show one for a POST redirect.
	if c.Req.Method == http.MethodGet {
		res.Header().Set("Content-Type", "text/html; charset=utf-8")
		res.Write([]byte("<a href=\"" + html.EscapeString(dest) + "\">" + http.StatusText(code) + "</a>.\n"))
	}

	return res
}

func (c *RequestContext) ErrorResponse(status int, errs ...error) ResponseData {
	defer func() {
		if r := recover(); r != nil {
			logContextErrors(c, errs...)
			panic(r)
		}
	}()

	type errorData struct {
		templates.BaseData
		Messages []string
	}

	data := errorData{BaseData: getBaseData(c, "Error")}
	for _, err := range errs {
		var safe *SafeError
		if errors.As(err, &safe) {
			data.Messages = append(data.Messages, safe.Msg)
		}
	}

	res := ResponseData{
		StatusCode: status,
		Errors:     errs,
	}
	res.MustWriteTemplate("error.html", data, c.Perf)
	return res
}

type ResponseData struct {
	StatusCode    int
	Body          *bytes.Buffer
	Errors        []error
	FutureNotices []templates.Notice

	header http.Header
}

var _ http.ResponseWriter = &ResponseData{}

func (rd *ResponseData) Header() http.Header {
	if rd.header == nil {
		rd.header = make(http.Header)
	}

	return rd.header
}

func (rd *ResponseData) Write(p []byte) (n int, err error) {
	if rd.Body == nil {
		rd.Body = new(bytes.Buffer)
	}

	return rd.Body.Write(p)
}

func (rd *ResponseData) WriteHeader(status int) {
	rd.StatusCode = status
}

func (rd *ResponseData) SetCookie(cookie *http.Cookie) {
	rd.Header().Add("Set-Cookie", cookie.String())
}

// Queues a notice to be shown on the next page the user sees. The content is
// plain text.
func (rd *ResponseData) AddFutureNotice(class string, content string) {
	rd.FutureNotices = append(rd.FutureNotices, templates.Notice{
		Class:   class,
		Content: template.HTML(template.HTMLEscapeString(content)),
	})
}

func (rd *ResponseData) WriteTemplate(name string, data interface{}, rp *perf.RequestPerf) error {
	defer rp.StartBlock("TEMPLATE", name).End()
	return templates.GetTemplate(name).Execute(rd, data)
}

func (rd *ResponseData) MustWriteTemplate(name string, data interface{}, rp *perf.RequestPerf) {
	err := rd.WriteTemplate(name, data, rp)
	if err != nil {
		panic(err)
	}
}

func (rd *ResponseData) WriteJson(data any, rp *perf.RequestPerf) {
	defer rp.StartBlock("JSON", "Encode response").End()
	dataJson, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	rd.Header().Set("Content-Type", "application/json")
	rd.Write(dataJson)
}

func doRequest(rw http.ResponseWriter, c *RequestContext, h Handler) {
	defer func() {
		/*
			This panic recovery is the last resort. If you want to render
			an error page or something, make it a request wrapper.
		*/
		if recovered := recover(); recovered != nil {
			rw.WriteHeader(http.StatusInternalServerError)
			logging.LogPanicValue(c.Logger, recovered, "request panicked and was not handled")
			rw.Write([]byte("There was a problem handling your request.\nPlease let the site administrator know."))
		}
	}()

	// Run the chosen handler
	res := h(c)

	if res.StatusCode == 0 {
		res.StatusCode = http.StatusOK
	}

	// Set Content-Type and Content-Length if necessary. This behavior would in
	// some cases be handled by http.ResponseWriter.Write, but we extract it so
	// that HEAD requests always return both headers.

	var preamble []byte // Any bytes we read to determine Content-Type
	if res.Body != nil {
		bodyLen := res.Body.Len()

		if res.Header().Get("Content-Type") == "" {
			preamble = res.Body.Next(512)
			rw.Header().Set("Content-Type", http.DetectContentType(preamble))
		}
		if res.Header().Get("Content-Length") == "" {
			rw.Header().Set("Content-Length", strconv.Itoa(bodyLen))
		}
	}

	// Ensure we send no body for HEAD requests
	if c.Req.Method == http.MethodHead {
		res.Body = nil
	}

	// Send remaining response headers
	for name, vals := range res.Header() {
		for _, val := range vals {
			rw.Header().Add(name, val)
		}
	}
	rw.WriteHeader(res.StatusCode)

	// Send response body
	if res.Body != nil {
		_, err := rw.Write(preamble)
		if err != nil {
			if errors.Is(err, syscall.EPIPE) {
				// The other side hung up.
				c.Logger.Debug().Msg("Broken pipe")
			} else {
				c.Logger.Error().Err(err).Msg("Failed to write response preamble")
			}
		}

		_, err = io.Copy(rw, res.Body)
		if err != nil {
			if errors.Is(err, syscall.EPIPE) {
				c.Logger.Debug().Msg("Broken pipe")
			} else {
				c.Logger.Error().Err(err).Msg("copied res.Body")
			}
		}
	}
}
