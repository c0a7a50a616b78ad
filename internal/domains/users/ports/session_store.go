package ports

import "context"

// SessionStore maps browser session tokens to signed-in users. A token with
// no binding is a guest session; Resolve reports that as (0, nil).
type SessionStore interface {
	Bind(ctx context.Context, token string, userID int64) error
	Resolve(ctx context.Context, token string) (int64, error)
	Unbind(ctx context.Context, token string) error
	// PurgeExpired removes stale bindings. Use for housekeeping or cron.
	PurgeExpired(ctx context.Context) error
}

// NoopSessionStore is a safe default when callers do not need session persistence.
var NoopSessionStore SessionStore = noopSessionStore{}

type noopSessionStore struct{}

func (noopSessionStore) Bind(context.Context, string, int64) error        { return nil }
func (noopSessionStore) Resolve(context.Context, string) (int64, error)  { return 0, nil }
func (noopSessionStore) Unbind(context.Context, string) error            { return nil }
func (noopSessionStore) PurgeExpired(context.Context) error              { return nil }
