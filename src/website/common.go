package website

import (
	"errors"
	"net/http"

	"git.inkwell.blog/inkwell/inkwell/src/auth"
	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/models"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
)

func loadCommonData(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		b := c.Perf.StartBlock("MIDDLEWARE", "Load common website data")
		{
			sessionCookie, err := c.Req.Cookie(auth.SessionCookieName)
			if err == nil {
				user, err := getCurrentUser(c, sessionCookie.Value)
				if err != nil {
					b.End()
					return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to get current user"))
				}
				c.CurrentUser = user
			}
			// http.ErrNoCookie is the only error Cookie ever returns, so no further handling to do here.

			if c.CurrentUser != nil {
				canWrite, err := blogdata.CanWrite(c, c.Conn, c.CurrentUser)
				if err != nil {
					b.End()
					return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to check writer status"))
				}
				c.CurrentUserCanWrite = canWrite
			}
		}
		b.End()

		return h(c)
	}
}

// Given a session token, fetches the user from the database. Will return nil
// if the token is invalid or the user cannot be found, and will only return an
// error if it's serious.
func getCurrentUser(c *RequestContext, token string) (*models.User, error) {
	claims, err := auth.ParseSessionToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			return nil, nil
		}
		return nil, oops.New(err, "failed to parse session token")
	}

	user, err := blogdata.FetchUser(c, c.Conn, claims.UserID)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			c.Logger.Debug().Int("userId", claims.UserID).Msg("returning no current user for this request because the user for the session couldn't be found")
			return nil, nil
		}
		return nil, oops.New(err, "failed to get user for session")
	}

	return user, nil
}
