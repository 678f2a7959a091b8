package storage

import (
	"context"
	"errors"
)

// Storage is a string-keyed store of serialized collections, scoped to one
// shopper session.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("storage: key not found")
