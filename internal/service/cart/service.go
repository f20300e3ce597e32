package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

const (
	defaultConflictRetries = 3
	defaultDeleteAttempts  = 3
	defaultDeleteBackoff   = 50 * time.Millisecond
)

// Service applies cart mutations as fetch, mutate, save cycles against the
// cart store. Every cycle runs under an in-process lock for the cart id and
// is retried when the store reports a version conflict.
type Service struct {
	repo    cartrepo.Repository
	locks   *keyedLocks
	creates singleflight.Group
	logger  zerolog.Logger
	events  EventRecorder

	now           func() time.Time
	newSessionKey func() string

	conflictRetries int
	deleteAttempts  int
	deleteBackoff   time.Duration
}

type Option func(*Service)

// EventRecorder counts cart lifecycle events such as creations, merges and
// conflict retries.
type EventRecorder interface {
	CartEvent(event string, n int)
}

type nopEvents struct{}

func (nopEvents) CartEvent(string, int) {}

// WithEvents reports lifecycle events to r.
func WithEvents(r EventRecorder) Option {
	return func(s *Service) {
		if r != nil {
			s.events = r
		}
	}
}

// WithLogger sets the logger used for conflict and lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithConflictRetries sets how many times a conflicting save is retried.
func WithConflictRetries(n int) Option {
	return func(s *Service) {
		if n < 0 {
			n = 0
		}
		s.conflictRetries = n
	}
}

// WithDeleteRetry configures how the source cart delete is retried after a
// non-atomic merge.
func WithDeleteRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		if attempts < 1 {
			attempts = 1
		}
		s.deleteAttempts = attempts
		s.deleteBackoff = backoff
	}
}

// WithSessionKeys replaces the session key generator.
func WithSessionKeys(gen func() string) Option {
	return func(s *Service) { s.newSessionKey = gen }
}

func New(repo cartrepo.Repository, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		locks:           newKeyedLocks(),
		logger:          zerolog.Nop(),
		events:          nopEvents{},
		now:             time.Now,
		newSessionKey:   uuid.NewString,
		conflictRetries: defaultConflictRetries,
		deleteAttempts:  defaultDeleteAttempts,
		deleteBackoff:   defaultDeleteBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetBySession returns the cart owned by sessionKey, creating it when absent.
func (s *Service) GetBySession(ctx context.Context, sessionKey string) (*domain.Cart, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return nil, fmt.Errorf("%w: session key required", domain.ErrInvalidRequest)
	}
	return s.findOrCreate(ctx, "session:"+sessionKey,
		func(ctx context.Context) (*domain.Cart, error) { return s.repo.FindBySessionKey(ctx, sessionKey) },
		func(now time.Time) *domain.Cart { return domain.NewSessionCart(sessionKey, now) },
	)
}

// GetByUser returns the cart owned by userKey, creating it when absent.
func (s *Service) GetByUser(ctx context.Context, userKey int64) (*domain.Cart, error) {
	return s.findOrCreate(ctx, "user:"+strconv.FormatInt(userKey, 10),
		func(ctx context.Context) (*domain.Cart, error) { return s.repo.FindByUserKey(ctx, userKey) },
		func(now time.Time) *domain.Cart { return domain.NewUserCart(userKey, now) },
	)
}

// CreateOrGet resolves the cart for exactly one of userKey or sessionKey.
func (s *Service) CreateOrGet(ctx context.Context, userKey *int64, sessionKey *string) (*domain.Cart, error) {
	switch {
	case userKey != nil && sessionKey != nil:
		return nil, fmt.Errorf("%w: only one of userKey or sessionKey may be given", domain.ErrInvalidRequest)
	case userKey != nil:
		return s.GetByUser(ctx, *userKey)
	case sessionKey != nil:
		return s.GetBySession(ctx, *sessionKey)
	default:
		return nil, fmt.Errorf("%w: userKey or sessionKey required", domain.ErrInvalidRequest)
	}
}

// IssueSession mints a new session key and returns its empty cart.
func (s *Service) IssueSession(ctx context.Context) (*domain.Cart, error) {
	return s.GetBySession(ctx, s.newSessionKey())
}

func (s *Service) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	return s.repo.FindByID(ctx, cartID)
}

func (s *Service) AddItem(ctx context.Context, cartID string, item domain.LineItem) (*domain.Cart, error) {
	item.ProductID = strings.TrimSpace(item.ProductID)
	if item.ProductID == "" {
		return nil, fmt.Errorf("%w: productId required", domain.ErrInvalidRequest)
	}
	return s.mutate(ctx, cartID, "add item", func(c *domain.Cart, now time.Time) {
		c.AddItem(item, now)
	})
}

func (s *Service) SetQuantity(ctx context.Context, cartID, productID string, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, cartID, "set quantity", func(c *domain.Cart, now time.Time) {
		c.SetQuantity(productID, quantity, now)
	})
}

func (s *Service) RemoveItem(ctx context.Context, cartID, productID string) (*domain.Cart, error) {
	return s.mutate(ctx, cartID, "remove item", func(c *domain.Cart, now time.Time) {
		c.RemoveItem(productID, now)
	})
}

func (s *Service) Clear(ctx context.Context, cartID string) (*domain.Cart, error) {
	return s.mutate(ctx, cartID, "clear", func(c *domain.Cart, now time.Time) {
		c.Clear(now)
	})
}

// Transfer hands the cart of an anonymous session over to a user. When the
// user already owns a cart the session items are merged into it and the
// session cart is deleted; otherwise the session cart is re-keyed in place.
func (s *Service) Transfer(ctx context.Context, sessionKey string, userKey int64) (*domain.Cart, error) {
	for attempt := 0; ; attempt++ {
		c, err := s.transferOnce(ctx, sessionKey, userKey)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= s.conflictRetries {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.events.CartEvent("conflict_retry", 1)
		s.logger.Warn().
			Str("session_key", sessionKey).
			Int64("user_key", userKey).
			Int("attempt", attempt+1).
			Msg("cart transfer conflict, retrying")
	}
}

// PurgeStale deletes carts untouched for longer than maxAge.
func (s *Service) PurgeStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	sweeper, ok := s.repo.(cartrepo.Sweeper)
	if !ok {
		return 0, errors.New("cart store does not support stale sweeps")
	}
	n, err := sweeper.DeleteStale(ctx, s.now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("delete stale carts: %w", err)
	}
	if n > 0 {
		s.events.CartEvent("purged", int(n))
		s.logger.Info().Int64("removed", n).Dur("max_age", maxAge).Msg("stale carts purged")
	}
	return n, nil
}

// SweepEvery runs PurgeStale on every tick of interval until ctx is done.
// Failed sweeps are logged and retried on the next tick.
func (s *Service) SweepEvery(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 || maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeStale(ctx, maxAge); err != nil && ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("stale cart sweep failed")
			}
		}
	}
}

func (s *Service) transferOnce(ctx context.Context, sessionKey string, userKey int64) (*domain.Cart, error) {
	sess, err := s.repo.FindBySessionKey(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByUserKey(ctx, userKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	ids := []string{sess.ID}
	if user != nil {
		ids = append(ids, user.ID)
	}
	unlock := s.locks.lock(ids...)
	defer unlock()

	// Re-read under the lock; a change of ownership since the first read
	// restarts the transfer.
	lockedSess, err := s.repo.FindBySessionKey(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	lockedUser, err := s.repo.FindByUserKey(ctx, userKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if lockedSess.ID != sess.ID || (user == nil) != (lockedUser == nil) ||
		(user != nil && lockedUser.ID != user.ID) {
		return nil, domain.ErrConflict
	}

	if lockedUser == nil {
		lockedSess.AssignUser(userKey)
		saved, err := s.repo.Save(ctx, lockedSess)
		if errors.Is(err, domain.ErrAlreadyExists) {
			// A user cart appeared between the read and the save.
			return nil, domain.ErrConflict
		}
		if err != nil {
			return nil, err
		}
		s.events.CartEvent("rekeyed", 1)
		s.logger.Info().Str("cart_id", saved.ID).Int64("user_key", userKey).Msg("session cart assigned to user")
		return saved, nil
	}

	if lockedUser.ID == lockedSess.ID {
		return lockedUser, nil
	}

	now := s.now()
	for _, it := range lockedSess.Items {
		lockedUser.AddItem(it, now)
	}
	saved, err := s.mergeAndDelete(ctx, lockedUser, lockedSess)
	if err != nil {
		return nil, err
	}
	s.events.CartEvent("merged", 1)
	s.logger.Info().
		Str("cart_id", saved.ID).
		Str("merged_cart_id", lockedSess.ID).
		Int64("user_key", userKey).
		Int("items", len(lockedSess.Items)).
		Msg("session cart merged into user cart")
	return saved, nil
}

func (s *Service) mergeAndDelete(ctx context.Context, merged, source *domain.Cart) (*domain.Cart, error) {
	if m, ok := s.repo.(cartrepo.Merger); ok {
		return m.SaveAndDelete(ctx, merged, source)
	}

	// Stores without transactions drain the source first with a versioned
	// save. A concurrent write to the source then surfaces as a conflict, and
	// a source that outlives a failed delete holds nothing left to merge.
	drained := source.Clone()
	drained.Clear(s.now())
	drainedSaved, err := s.repo.Save(ctx, drained)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.Save(ctx, merged)
	if err != nil {
		s.restoreSource(ctx, source, drainedSaved.Version)
		return nil, err
	}
	s.deleteWithRetry(ctx, drainedSaved)
	return saved, nil
}

// restoreSource puts the items of a drained source cart back after the merge
// save failed.
func (s *Service) restoreSource(ctx context.Context, source *domain.Cart, version int64) {
	restored := source.Clone()
	restored.Version = version
	if _, err := s.repo.Save(ctx, restored); err != nil {
		s.logger.Error().Err(err).Str("cart_id", source.ID).Msg("restore session cart after failed merge")
	}
}

// deleteWithRetry removes a drained source cart. A version conflict means the
// session was written to after the drain, so the cart is kept. A cart that
// cannot be deleted is left empty for the stale sweeper.
func (s *Service) deleteWithRetry(ctx context.Context, source *domain.Cart) {
	var err error
retry:
	for attempt := 1; attempt <= s.deleteAttempts; attempt++ {
		err = s.repo.Delete(ctx, source)
		if err == nil {
			return
		}
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Info().Str("cart_id", source.ID).Msg("session cart changed after merge, keeping it")
			return
		}
		s.logger.Warn().Err(err).Str("cart_id", source.ID).Int("attempt", attempt).Msg("delete merged session cart failed")
		if attempt == s.deleteAttempts {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break retry
		case <-time.After(s.deleteBackoff * time.Duration(attempt)):
		}
	}
	s.events.CartEvent("orphaned", 1)
	s.logger.Error().Err(err).Str("cart_id", source.ID).Msg("empty session cart left behind")
}

func (s *Service) mutate(ctx context.Context, cartID, op string, fn func(c *domain.Cart, now time.Time)) (*domain.Cart, error) {
	unlock := s.locks.lock(cartID)
	defer unlock()

	for attempt := 0; ; attempt++ {
		c, err := s.repo.FindByID(ctx, cartID)
		if err != nil {
			return nil, err
		}
		fn(c, s.now())
		saved, err := s.repo.Save(ctx, c)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= s.conflictRetries {
			return nil, fmt.Errorf("%s on cart %s: %w", op, cartID, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.events.CartEvent("conflict_retry", 1)
		s.logger.Warn().Str("cart_id", cartID).Str("op", op).Int("attempt", attempt+1).Msg("cart version conflict, retrying")
	}
}

func (s *Service) findOrCreate(
	ctx context.Context,
	flightKey string,
	find func(context.Context) (*domain.Cart, error),
	create func(time.Time) *domain.Cart,
) (*domain.Cart, error) {
	c, err := find(ctx)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	// The flight is shared by every coalesced caller, so one caller giving
	// up must not cancel it for the others.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.creates.Do(flightKey, func() (interface{}, error) {
		ctx := flightCtx
		if c, err := find(ctx); err == nil || !errors.Is(err, domain.ErrNotFound) {
			return c, err
		}
		saved, err := s.repo.Save(ctx, create(s.now()))
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Another instance created it first.
			return find(ctx)
		}
		if err != nil {
			return nil, err
		}
		s.events.CartEvent("created", 1)
		s.logger.Debug().Str("cart_id", saved.ID).Str("owner", flightKey).Msg("cart created")
		return saved, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart).Clone(), nil
}
