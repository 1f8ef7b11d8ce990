package repository

import "context"

// KVRepository is the durable key-value store the form is mirrored to.
// Get reports found=false, with no error, when the key has never been set.
type KVRepository interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}
