package website

import (
	"fmt"
	"net/http"
	"strings"

	"git.inkwell.blog/inkwell/inkwell/src/templates"
)

func FourOhFour(c *RequestContext) ResponseData {
	var res ResponseData
	res.StatusCode = http.StatusNotFound

	if c.Req.Header["Accept"] != nil && strings.Contains(c.Req.Header["Accept"][0], "text/html") {
		templateData := struct {
			templates.BaseData
			Wanted string
		}{
			BaseData: getBaseData(c, "Page not found"),
			Wanted:   c.FullUrl(),
		}
		res.MustWriteTemplate("404.html", templateData, c.Perf)
	} else {
		res.Write([]byte("Not Found"))
	}
	return res
}

// A SafeError can be used to wrap another error and explicitly provide
// an error message that is safe to show to a user. ErrorResponse shows the
// message on the error page and logs the wrapped error.
type SafeError struct {
	Wrapped error
	Msg     string
}

func NewSafeError(err error, msg string, args ...interface{}) error {
	return &SafeError{
		Wrapped: err,
		Msg:     fmt.Sprintf(msg, args...),
	}
}

func (s *SafeError) Error() string {
	if s.Wrapped == nil {
		return s.Msg
	}
	return s.Msg + ": " + s.Wrapped.Error()
}

func (s *SafeError) Unwrap() error {
	return s.Wrapped
}
