package store

import (
	"context"
	"time"

	"github.com/matzehuels/docmap/pkg/retry"
)

// Connection retry settings for database-backed sources. A database started
// alongside "docmap serve" may take a few seconds to accept connections.
var (
	connectAttempts = 3
	connectDelay    = time.Second
)

// ping retries a connectivity check with the connection retry settings.
func ping(ctx context.Context, check func(context.Context) error) error {
	return retry.Do(ctx, connectAttempts, connectDelay, func() error {
		return retry.Transient(check(ctx))
	})
}
