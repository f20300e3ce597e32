package cart

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// Repository persists carts. Save uses the cart's Version as an optimistic
// lock: Version 0 inserts a new record, any other value must match the stored
// version or domain.ErrConflict is returned. The returned cart carries the
// new version. Delete of a cart that no longer exists is a no-op.
type Repository interface {
	FindByID(ctx context.Context, id string) (*domain.Cart, error)
	FindBySessionKey(ctx context.Context, sessionKey string) (*domain.Cart, error)
	FindByUserKey(ctx context.Context, userKey int64) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
	Delete(ctx context.Context, cart *domain.Cart) error
}

// Merger is implemented by stores that can persist a merged cart and remove
// its source cart in one atomic step.
type Merger interface {
	SaveAndDelete(ctx context.Context, merged, source *domain.Cart) (*domain.Cart, error)
}

// Sweeper removes carts that have not been updated since before.
type Sweeper interface {
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}
