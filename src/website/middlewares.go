package website

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"git.inkwell.blog/inkwell/inkwell/src/perf"
	"github.com/jackc/pgx/v5/pgxpool"
)

func setDBConn(conn *pgxpool.Pool) Middleware {
	return func(h Handler) Handler {
		return func(c *RequestContext) ResponseData {
			c.Conn = conn
			return h(c)
		}
	}
}

func panicCatcherMiddleware(h Handler) Handler {
	return func(c *RequestContext) (res ResponseData) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err, ok := recovered.(error)
				if !ok {
					err = oops.New(nil, fmt.Sprintf("Recovered from panic with value: %v", recovered))
				}
				res = c.ErrorResponse(http.StatusInternalServerError, err)
			}
		}()

		return h(c)
	}
}

func trackRequestPerf(perfCollector *perf.PerfCollector) Middleware {
	return func(h Handler) Handler {
		return func(c *RequestContext) (res ResponseData) {
			c.Perf = perf.MakeNewRequestPerf(c.Route, c.Req.Method, c.Req.URL.Path)
			c.PerfCollector = perfCollector
			defer func() {
				c.Perf.EndRequest()
				c.Perf.Status = res.StatusCode
				if c.Perf.Status == 0 {
					c.Perf.Status = http.StatusOK
				}

				log := c.Logger.Debug()
				blockStack := make([]time.Time, 0)
				for i, block := range c.Perf.Blocks {
					for len(blockStack) > 0 && block.End.After(blockStack[len(blockStack)-1]) {
						blockStack = blockStack[:len(blockStack)-1]
					}
					log.Str(fmt.Sprintf("[%4.d] At %9.2fms", i, c.Perf.MsFromStart(&block)), fmt.Sprintf("%*.s[%s] %s (%.4fms)", len(blockStack)*2, "", block.Category, block.Description, block.DurationMs()))
					blockStack = append(blockStack, block.End)
				}
				log.Msg(fmt.Sprintf("Served [%s] %s in %.4fms", c.Perf.Method, c.Perf.Path, float64(c.Perf.Duration().Nanoseconds())/1000/1000))
				if perfCollector != nil {
					perfCollector.SubmitRun(c.Perf)
				}
			}()

			return h(c)
		}
	}
}

func needsAuth(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		if c.CurrentUser == nil {
			return c.Redirect(blogurl.BuildAccount(), http.StatusSeeOther)
		}

		return h(c)
	}
}

func adminsOnly(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		if c.CurrentUser == nil || !c.CurrentUser.IsAdmin {
			return c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
		}

		return h(c)
	}
}

func writersOnly(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		if c.CurrentUser == nil || !c.CurrentUserCanWrite {
			return c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
		}

		return h(c)
	}
}

/*
Loads the article named by the "articleid" path parameter and only lets the
request through if the current user may edit it. Missing articles and
forbidden ones both redirect home.
*/
func articleOwnersOnly(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		articleID, ok := c.IntParam("articleid")
		if !ok {
			return c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
		}

		article, err := blogdata.FetchArticle(c, c.Conn, articleID)
		if errors.Is(err, db.NotFound) {
			return c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
		} else if err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to fetch article for editing"))
		}

		if !blogdata.CanEditArticle(c.CurrentUser, &article.Article) {
			c.Logger.Info().
				Int("articleId", articleID).
				Int("userId", c.CurrentUser.ID).
				Msg("user tried to modify an article they don't own")
			return c.Redirect(blogurl.BuildHomepage(), http.StatusSeeOther)
		}

		c.CurrentArticle = &article.Article
		c.CurrentAuthor = &article.Author
		return h(c)
	}
}

func logContextErrors(c *RequestContext, errs ...error) {
	for _, err := range errs {
		c.Logger.Error().Timestamp().Stack().Str("Requested", c.FullUrl()).Err(err).Msg("error occurred during request")
	}
}

func logContextErrorsMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		res := h(c)
		logContextErrors(c, res.Errors...)
		return res
	}
}
