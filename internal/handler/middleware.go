package handler

import (
	"net/http"

	"github.com/haatos/shipyard/internal/store"
	"github.com/labstack/echo/v4"
)

func IsAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := getCtxUser(c)
		if user == nil {
			return newError(c, nil, http.StatusUnauthorized, "authentication required")
		}
		return next(c)
	}
}

func RoleMiddleware(requiredRole store.Role) func(next echo.HandlerFunc) echo.HandlerFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := getCtxUser(c)
			if u == nil || int64(u.UserRoleID) < int64(requiredRole) {
				return newError(c, nil,
					http.StatusForbidden,
					"invalid permissions",
				)
			}
			return next(c)
		}
	}
}
