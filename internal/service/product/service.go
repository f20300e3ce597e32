package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Input is the writable part of a product.
type Input struct {
	CustomID    string  `json:"customId"`
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion"`
	Stock       int     `json:"stock"`
	Price       float64 `json:"precio"`
	Image       string  `json:"imagen"`
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByCustomID(ctx context.Context, customID string) (*domain.Product, error) {
	return s.repo.GetByCustomID(ctx, customID)
}

// Create stores a new product, generating a customId when none is given.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Product, error) {
	p, err := fromInput(in)
	if err != nil {
		return nil, err
	}
	if p.CustomID == "" {
		p.CustomID = NewCustomID()
	}
	return s.repo.Create(ctx, p)
}

// Update overwrites the product's fields. The customId never changes.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*domain.Product, error) {
	p, err := fromInput(in)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return s.repo.Update(ctx, p)
}

func (s *Service) UpdateByCustomID(ctx context.Context, customID string, in Input) (*domain.Product, error) {
	existing, err := s.repo.GetByCustomID(ctx, customID)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, existing.ID, in)
}

// Delete removes a product by id. Deleting a missing product is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) DeleteByCustomID(ctx context.Context, customID string) error {
	existing, err := s.repo.GetByCustomID(ctx, customID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, existing.ID)
}

// Import inserts or overwrites the product identified by in.CustomID.
func (s *Service) Import(ctx context.Context, in Input) (*domain.Product, error) {
	p, err := fromInput(in)
	if err != nil {
		return nil, err
	}
	if p.CustomID == "" {
		return nil, fmt.Errorf("%w: customId required", domain.ErrInvalidRequest)
	}
	return s.repo.Upsert(ctx, p)
}

// NewCustomID returns a short product key such as "p1a2b3c4d".
func NewCustomID() string {
	return "p" + uuid.NewString()[:8]
}

func fromInput(in Input) (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: nombre required", domain.ErrInvalidRequest)
	}
	return domain.Product{
		CustomID:    strings.TrimSpace(in.CustomID),
		Name:        name,
		Description: in.Description,
		Stock:       in.Stock,
		Price:       in.Price,
		Image:       in.Image,
	}, nil
}
