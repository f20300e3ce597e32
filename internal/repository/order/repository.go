package order

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists orders ("pedidos").
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByStatus(ctx context.Context, status string) ([]domain.Order, error)
	Update(ctx context.Context, o domain.Order) (*domain.Order, error)
	Delete(ctx context.Context, id int64) error
}
