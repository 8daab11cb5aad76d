package handler

import (
	"context"
	"net/http"

	"github.com/haatos/shipyard/internal/store"
	"github.com/labstack/echo/v4"
)

type APIKeyServicer interface {
	CreateAPIKey(ctx context.Context) (*store.APIKey, error)
	DeleteAPIKey(ctx context.Context, id int64) error
	ListAPIKeys(ctx context.Context) ([]*store.APIKey, error)
}

type APIKeyHandler struct {
	apiKeyService APIKeyServicer
}

func NewAPIKeyHandler(apiKeyService APIKeyServicer) *APIKeyHandler {
	return &APIKeyHandler{apiKeyService}
}

func (h *APIKeyHandler) PostAPIKey(c echo.Context) error {
	key, err := h.apiKeyService.CreateAPIKey(c.Request().Context())
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to create api key")
	}
	return c.JSON(http.StatusCreated, key)
}

func (h *APIKeyHandler) DeleteAPIKey(c echo.Context) error {
	kp := new(APIKeyParams)
	if err := c.Bind(kp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid api key id")
	}
	if err := h.apiKeyService.DeleteAPIKey(c.Request().Context(), kp.APIKeyID); err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to delete api key")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *APIKeyHandler) GetAPIKeys(c echo.Context) error {
	keys, err := h.apiKeyService.ListAPIKeys(c.Request().Context())
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list api keys")
	}
	return c.JSON(http.StatusOK, keys)
}
