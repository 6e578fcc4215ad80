package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const (
	CSRFCookieName = "_csrf"
	CSRFFormField  = "_csrf"
	CSRFContextKey = "csrf"

	csrfFailureMessage = "Security check failed. Please try again."
)

// CSRF enforces the double-submitted token on unsafe requests. Paths listed
// in skip still pass through, their handlers check the token themselves.
func CSRF(secure bool, skip ...string) echo.MiddlewareFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		Skipper: func(c echo.Context) bool {
			_, ok := skipped[c.Path()]
			return ok
		},
		TokenLookup:    "form:" + CSRFFormField,
		ContextKey:     CSRFContextKey,
		CookieName:     CSRFCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteLaxMode,
		ErrorHandler: func(err error, c echo.Context) error {
			return echo.NewHTTPError(http.StatusForbidden, csrfFailureMessage).SetInternal(err)
		},
	})
}

// CSRFToken is the token to embed in forms rendered for this request.
func CSRFToken(c echo.Context) string {
	token, _ := c.Get(CSRFContextKey).(string)
	return token
}

// VerifyFormToken compares a submitted token with the CSRF cookie.
func VerifyFormToken(c echo.Context, token string) bool {
	if token == "" {
		return false
	}
	cookie, err := c.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(token)) == 1
}
