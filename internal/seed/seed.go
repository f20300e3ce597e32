package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"storefront/internal/domain"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"
)

// ProductImporter upserts products keyed by customId.
type ProductImporter interface {
	Import(ctx context.Context, in productsvc.Input) (*domain.Product, error)
}

// UserCreator is the slice of the user service the seed needs.
type UserCreator interface {
	FindByName(ctx context.Context, name string) (*domain.User, error)
	Create(ctx context.Context, in usersvc.Input) (*domain.User, error)
}

var products = []productsvc.Input{
	{CustomID: "p1", Name: "Producto 1", Description: "Descripción del producto 1", Stock: 10, Price: 100, Image: "prod1.png"},
	{CustomID: "p2", Name: "Producto 2", Description: "Descripción del producto 2", Stock: 5, Price: 150, Image: "prod2.png"},
	{CustomID: "p3", Name: "Producto 3", Description: "Descripción del producto 3", Stock: 8, Price: 200, Image: "prod3.png"},
}

var users = []usersvc.Input{
	{Name: "Pedro", Password: "Pedro", Age: 31, Title: "Sr.", BirthPlace: "Albacete"},
	{Name: "admin", Password: "admin", Age: 30, Admin: true, Title: "Sr.", BirthPlace: "AdminCity"},
}

// Apply loads demo products and users for manual testing. Products are
// upserted by customId; users that already exist are left alone.
func Apply(ctx context.Context, productSvc ProductImporter, userSvc UserCreator, logger zerolog.Logger) error {
	for _, p := range products {
		if _, err := productSvc.Import(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.CustomID, err)
		}
	}

	created := 0
	for _, u := range users {
		_, err := userSvc.FindByName(ctx, u.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("lookup user %s: %w", u.Name, err)
		}
		if _, err := userSvc.Create(ctx, u); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("create user %s: %w", u.Name, err)
		}
		created++
	}

	logger.Info().Int("products", len(products)).Int("users_created", created).Msg("seed data applied")
	return nil
}
