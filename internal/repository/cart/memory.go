package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"storefront/internal/domain"
)

var (
	_ Repository = (*Memory)(nil)
	_ Merger     = (*Memory)(nil)
	_ Sweeper    = (*Memory)(nil)
)

// Memory is a process-local cart store. It honours the same versioning and
// uniqueness rules as the database stores.
type Memory struct {
	mu        sync.Mutex
	byID      map[string]*domain.Cart
	bySession map[string]string
	byUser    map[int64]string
}

func NewMemory() *Memory {
	return &Memory{
		byID:      make(map[string]*domain.Cart),
		bySession: make(map[string]string),
		byUser:    make(map[int64]string),
	}
}

func (m *Memory) FindByID(_ context.Context, id string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (m *Memory) FindBySessionKey(_ context.Context, sessionKey string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.bySession[sessionKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.byID[id].Clone(), nil
}

func (m *Memory) FindByUserKey(_ context.Context, userKey int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byUser[userKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.byID[id].Clone(), nil
}

func (m *Memory) Save(_ context.Context, cart *domain.Cart) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(cart)
}

func (m *Memory) Delete(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(cart)
}

// SaveAndDelete validates both carts before touching either, so a conflict
// leaves the store unchanged.
func (m *Memory) SaveAndDelete(_ context.Context, merged, source *domain.Cart) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.byID[source.ID]; ok && source.Version != 0 && cur.Version != source.Version {
		return nil, domain.ErrConflict
	}
	if err := m.checkWritable(merged, source.ID); err != nil {
		return nil, err
	}
	if err := m.deleteLocked(source); err != nil {
		return nil, err
	}
	return m.saveLocked(merged)
}

func (m *Memory) DeleteStale(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.byID {
		if c.LastUpdated.Before(before) {
			m.unindex(c)
			delete(m.byID, c.ID)
			n++
		}
	}
	return n, nil
}

// checkWritable reports whether cart could be saved once ignoreID is gone.
func (m *Memory) checkWritable(cart *domain.Cart, ignoreID string) error {
	if cart.Version != 0 {
		cur, ok := m.byID[cart.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Version != cart.Version {
			return domain.ErrConflict
		}
	}
	if cart.SessionKey != nil {
		if id, ok := m.bySession[*cart.SessionKey]; ok && id != cart.ID && id != ignoreID {
			return domain.ErrAlreadyExists
		}
	}
	if cart.UserKey != nil {
		if id, ok := m.byUser[*cart.UserKey]; ok && id != cart.ID && id != ignoreID {
			return domain.ErrAlreadyExists
		}
	}
	return nil
}

func (m *Memory) saveLocked(cart *domain.Cart) (*domain.Cart, error) {
	if err := m.checkWritable(cart, ""); err != nil {
		return nil, err
	}
	stored := cart.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if prev, ok := m.byID[stored.ID]; ok {
		m.unindex(prev)
	}
	stored.Version++
	m.byID[stored.ID] = stored
	if stored.SessionKey != nil {
		m.bySession[*stored.SessionKey] = stored.ID
	}
	if stored.UserKey != nil {
		m.byUser[*stored.UserKey] = stored.ID
	}
	return stored.Clone(), nil
}

func (m *Memory) deleteLocked(cart *domain.Cart) error {
	cur, ok := m.byID[cart.ID]
	if !ok {
		return nil
	}
	if cart.Version != 0 && cur.Version != cart.Version {
		return domain.ErrConflict
	}
	m.unindex(cur)
	delete(m.byID, cur.ID)
	return nil
}

func (m *Memory) unindex(c *domain.Cart) {
	if c.SessionKey != nil && m.bySession[*c.SessionKey] == c.ID {
		delete(m.bySession, *c.SessionKey)
	}
	if c.UserKey != nil && m.byUser[*c.UserKey] == c.ID {
		delete(m.byUser, *c.UserKey)
	}
}
