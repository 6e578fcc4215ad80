package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const (
	sessionContextKey = "session_id"
	sessionMaxAge     = 30 * 24 * time.Hour
	staffRealm        = "Store administration"
)

// ShopperSession gives every visitor a cart session id kept in a cookie.
func ShopperSession(cookieName string, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID := ""
			if cookie, err := c.Cookie(cookieName); err == nil {
				if id, err := uuid.Parse(cookie.Value); err == nil {
					sessionID = id.String()
				}
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     cookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(sessionMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(sessionContextKey, sessionID)
			return next(c)
		}
	}
}

func SessionID(c echo.Context) string {
	id, _ := c.Get(sessionContextKey).(string)
	return id
}

// RequireStaff guards the admin pages with HTTP basic auth. An empty password
// locks everyone out.
func RequireStaff(username, password string) echo.MiddlewareFunc {
	return echomw.BasicAuthWithConfig(echomw.BasicAuthConfig{
		Realm: staffRealm,
		Validator: func(user, pass string, c echo.Context) (bool, error) {
			if password == "" {
				return false, nil
			}
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
			return userOK && passOK, nil
		},
	})
}
