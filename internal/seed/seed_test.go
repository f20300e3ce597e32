package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"storefront/internal/domain"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"
)

type stubCatalog struct {
	byCustomID map[string]productsvc.Input
}

func (s *stubCatalog) Import(_ context.Context, in productsvc.Input) (*domain.Product, error) {
	if s.byCustomID == nil {
		s.byCustomID = map[string]productsvc.Input{}
	}
	s.byCustomID[in.CustomID] = in
	return &domain.Product{CustomID: in.CustomID, Name: in.Name}, nil
}

type stubUsers struct {
	byName  map[string]usersvc.Input
	creates int
	findErr error
}

func (s *stubUsers) FindByName(_ context.Context, name string) (*domain.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if _, ok := s.byName[name]; ok {
		return &domain.User{Name: name}, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) Create(_ context.Context, in usersvc.Input) (*domain.User, error) {
	if s.byName == nil {
		s.byName = map[string]usersvc.Input{}
	}
	s.creates++
	s.byName[in.Name] = in
	return &domain.User{Name: in.Name}, nil
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	catalog := &stubCatalog{}
	users := &stubUsers{}

	for i := 0; i < 2; i++ {
		if err := Apply(ctx, catalog, users, zerolog.Nop()); err != nil {
			t.Fatalf("Apply run %d: %v", i+1, err)
		}
	}

	if len(catalog.byCustomID) != 3 {
		t.Fatalf("expected 3 products, got %d", len(catalog.byCustomID))
	}
	if p := catalog.byCustomID["p2"]; p.Stock != 5 || p.Price != 150 || p.Image != "prod2.png" {
		t.Fatalf("unexpected p2 %+v", p)
	}
	if users.creates != 2 {
		t.Fatalf("expected users created once, got %d creates", users.creates)
	}
	if admin := users.byName["admin"]; !admin.Admin || admin.BirthPlace != "AdminCity" {
		t.Fatalf("unexpected admin %+v", admin)
	}
}

func TestApplyStopsOnLookupError(t *testing.T) {
	users := &stubUsers{findErr: errors.New("connection refused")}
	if err := Apply(context.Background(), &stubCatalog{}, users, zerolog.Nop()); err == nil {
		t.Fatalf("expected error")
	}
	if users.creates != 0 {
		t.Fatalf("no user should be created after a lookup failure")
	}
}
