// Package metadata is the key/value store libraryctl keeps between runs,
// such as the access token issued by the last login.
package metadata

import (
	"context"
)

// Repository reports a missing key as (nil, nil).
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
