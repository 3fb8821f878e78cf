package auth

import (
	"crypto/rand"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/config"
	"git.inkwell.blog/inkwell/inkwell/src/logging"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"github.com/golang-jwt/jwt/v5"
)

const SessionCookieName = "session"

// Sessions last exactly this long. There is no refresh.
const SessionDuration = 24 * time.Hour

var ErrNoSession = errors.New("no valid session")

// The identity carried in a session token.
type SessionClaims struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

var (
	secretOnce      sync.Once
	generatedSecret []byte
)

func sessionSecret() []byte {
	if config.Config.Auth.SessionSecret != "" {
		return []byte(config.Config.Auth.SessionSecret)
	}

	secretOnce.Do(func() {
		logging.Warn().Msg("No session secret configured; generating one. Sessions will not survive a restart.")
		generatedSecret = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, generatedSecret); err != nil {
			panic(oops.New(err, "failed to generate session secret"))
		}
	})
	return generatedSecret
}

func IssueSessionToken(userID int, username string) (string, error) {
	return issueSessionToken(sessionSecret(), userID, username, time.Now())
}

func issueSessionToken(secret []byte, userID int, username string, now time.Time) (string, error) {
	claims := &SessionClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", oops.New(err, "failed to sign session token")
	}
	return token, nil
}

// Validates a session token and returns the identity inside it. Every kind of
// failure (malformed, expired, wrong algorithm, bad signature) is reported as
// ErrNoSession; callers treat the request as anonymous.
func ParseSessionToken(tokenStr string) (*SessionClaims, error) {
	return parseSessionToken(sessionSecret(), tokenStr, time.Now())
}

func parseSessionToken(secret []byte, tokenStr string, now time.Time) (*SessionClaims, error) {
	if tokenStr == "" {
		return nil, ErrNoSession
	}

	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, ErrNoSession
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, ErrNoSession
	}
	return claims, nil
}

func NewSessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.Config.Auth.CookieDomain,
		MaxAge:   int(SessionDuration / time.Second),
		Secure:   config.Config.Auth.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

var DeleteSessionCookie = &http.Cookie{
	Name:     SessionCookieName,
	Path:     "/",
	Domain:   config.Config.Auth.CookieDomain,
	MaxAge:   -1,
	HttpOnly: true,
	SameSite: http.SameSiteStrictMode,
}
