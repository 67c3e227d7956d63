package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/adityaverma/campus-connect/internal/models"
	"github.com/adityaverma/campus-connect/internal/service/token"
)

const userContextKey = "currentUser"

type Auth struct {
	DB     *gorm.DB
	Tokens *token.Service
}

// RequireAuth verifies the access token on every request before the handler
// runs. The token comes from the Authorization header (bearer scheme) or the
// accessToken cookie; the claimed user is loaded without its credential
// fields and attached to the echo context.
func (a *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := extractToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized request")
		}

		claims, err := a.Tokens.ParseAccess(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		id, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		var user models.User
		err = a.DB.Omit("password_hash", "refresh_token").First(&user, uint(id)).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
		}

		c.Set(userContextKey, &user)
		return next(c)
	}
}

func extractToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// CurrentUser returns the authenticated user attached by RequireAuth.
func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}
