package handler

import (
	"context"
	"net/http"

	"github.com/haatos/shipyard/internal/store"
	"github.com/labstack/echo/v4"
)

type AuthCookieServicer interface {
	GetSessionID(echo.Context) (string, error)
	SetSessionCookie(echo.Context, string) error
	RemoveSessionCookie(echo.Context)
}

type UserAuthServicer interface {
	CreateAuthSession(ctx context.Context, userID int64) (*store.AuthSession, error)
	GetUserByUsernameAndPassword(ctx context.Context, username, password string) (*store.User, error)
	GetUserBySessionID(ctx context.Context, sessionID string) (*store.User, error)
}

type AuthHandler struct {
	userService   UserAuthServicer
	cookieService AuthCookieServicer
}

func NewAuthHandler(
	userService UserAuthServicer,
	cookieService AuthCookieServicer,
) *AuthHandler {
	return &AuthHandler{userService, cookieService}
}

// SessionMiddleware resolves the session cookie into a user on the request
// context. Requests without a valid session pass through anonymously;
// IsAuthenticated gates the routes that need a user.
func (h *AuthHandler) SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID, err := h.cookieService.GetSessionID(c)
		if err == nil && sessionID != "" {
			u, err := h.userService.GetUserBySessionID(c.Request().Context(), sessionID)
			if err == nil {
				c.Set("user", u)
			}
		}
		return next(c)
	}
}

func (h *AuthHandler) PostLogin(c echo.Context) error {
	lp := new(LoginParams)
	if err := c.Bind(lp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid login data")
	}

	u, err := h.userService.GetUserByUsernameAndPassword(
		c.Request().Context(),
		lp.Username,
		lp.Password,
	)
	if err != nil {
		return newError(
			c, err,
			http.StatusUnauthorized,
			"invalid username or password",
		)
	}

	s, err := h.userService.CreateAuthSession(
		c.Request().Context(),
		u.UserID,
	)
	if err != nil {
		return newError(
			c, err, http.StatusInternalServerError, "unable to create session",
		)
	}

	if err := h.cookieService.SetSessionCookie(c, s.AuthSessionID); err != nil {
		return newError(
			c, err, http.StatusInternalServerError, "unable to set session cookie",
		)
	}

	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) PostLogout(c echo.Context) error {
	h.cookieService.RemoveSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}
