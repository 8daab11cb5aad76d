package handler

import (
	"context"
	"net/http"

	"github.com/haatos/shipyard/internal/store"
	"github.com/labstack/echo/v4"
)

type UserServicer interface {
	CreateUser(ctx context.Context, role store.Role, username, password string) (*store.User, error)
	SetUserPassword(ctx context.Context, userID int64, newPassword string) error
	DeleteUser(ctx context.Context, userID int64) error
	ListUsers(ctx context.Context) ([]*store.User, error)
}

type UserHandler struct {
	userService UserServicer
}

func NewUserHandler(userService UserServicer) *UserHandler {
	return &UserHandler{userService}
}

func (h *UserHandler) PostUser(c echo.Context) error {
	up := new(UserParams)
	if err := c.Bind(up); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid user data")
	}
	if up.Username == "" || up.Password == "" {
		return newError(c, nil, http.StatusBadRequest, "missing username or password")
	}

	u, err := h.userService.CreateUser(
		c.Request().Context(), store.Role(up.RoleID), up.Username, up.Password,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return newError(c, err, http.StatusConflict, "username is taken")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to create user")
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) PatchUserPassword(c echo.Context) error {
	up := new(UserParams)
	if err := c.Bind(up); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid user data")
	}

	u := getCtxUser(c)
	if u == nil || (u.UserID != up.UserID && !u.IsAdmin()) {
		return newError(c, nil, http.StatusForbidden, "invalid permissions")
	}

	if err := h.userService.SetUserPassword(
		c.Request().Context(), up.UserID, up.Password,
	); err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to change password")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	up := new(UserParams)
	if err := c.Bind(up); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid user id")
	}
	if err := h.userService.DeleteUser(c.Request().Context(), up.UserID); err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to delete user")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) GetUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list users")
	}
	return c.JSON(http.StatusOK, users)
}
