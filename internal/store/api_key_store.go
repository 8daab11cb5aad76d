package store

import (
	"context"
	"time"
)

type APIKey struct {
	APIKeyID  int64 `param:"api_key_id"`
	Value     string
	CreatedOn time.Time
}

type APIKeyStore interface {
	CreateAPIKey(context.Context, string) (*APIKey, error)
	ReadAPIKeyByID(context.Context, int64) (*APIKey, error)
	ReadAPIKeyByValue(context.Context, string) (*APIKey, error)
	DeleteAPIKey(context.Context, int64) error
	ListAPIKeys(context.Context) ([]*APIKey, error)
}
