package product

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists catalog products. Update and Delete report
// domain.ErrNotFound when no product matches; Create and Upsert report
// domain.ErrAlreadyExists when the customId is taken by another product.
type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByCustomID(ctx context.Context, customID string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
