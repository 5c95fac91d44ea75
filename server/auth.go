package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/swisspipe/swisspipe/core/auth"
	"github.com/swisspipe/swisspipe/model"
)

const userContextKey = "user"

// authMiddleware validates the bearer token and attaches the user to the
// request context. Mutating methods additionally require the admin role.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, auth.ErrUnauthorized.Error())
		}

		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return echo.NewHTTPError(http.StatusUnauthorized, auth.ErrMalformedAuthHeader.Error())
		}

		user, err := auth.VerifyToken(s.config.JwtSecret, tokenString)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}

		if isMutating(c.Request().Method) && !auth.CanWrite(user) {
			return echo.NewHTTPError(http.StatusForbidden, auth.ErrInsufficientPrivilege.Error())
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func currentUser(c echo.Context) *model.User {
	if u, ok := c.Get(userContextKey).(*model.User); ok {
		return u
	}
	return &model.User{Sub: "anonymous"}
}
