// Package metadata stores small client settings as key/value pairs, such as
// the wallet reconnect flag.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
}
