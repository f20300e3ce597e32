package order

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"storefront/internal/domain"
	"storefront/internal/logging"
	orderrepo "storefront/internal/repository/order"
)

// UserDirectory resolves display names for orders that reference a user.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type Service struct {
	repo   orderrepo.Repository
	users  UserDirectory
	logger zerolog.Logger
}

func New(repo orderrepo.Repository, users UserDirectory, logger *zerolog.Logger) *Service {
	return &Service{repo: repo, users: users, logger: logging.OrNop(logger)}
}

// Input carries the writable order fields.
type Input struct {
	OrderNumber *int64  `json:"nPedido"`
	Details     string  `json:"detallesPedido"`
	Status      string  `json:"estadoPedido"`
	TotalPrice  float64 `json:"precioTotal"`
	UserID      *int64  `json:"usuarioId"`
	UserName    string  `json:"nombreUsuario"`
	FullName    string  `json:"nombreCompleto"`
	Address     string  `json:"direccion"`
	City        string  `json:"ciudad"`
	PostalCode  string  `json:"codigoPostal"`
	Phone       string  `json:"telefono"`
	Email       string  `json:"email"`
	Comments    string  `json:"comentarios"`
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Order, error) {
	o := fromInput(in)
	s.fillUserName(ctx, &o)
	return s.repo.Create(ctx, o)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.fillUserNames(ctx, orders)
	return orders, nil
}

func (s *Service) ListByStatus(ctx context.Context, status string) ([]domain.Order, error) {
	orders, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	s.fillUserNames(ctx, orders)
	return orders, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*domain.Order, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	o := fromInput(in)
	o.ID = id
	s.fillUserName(ctx, &o)
	return s.repo.Update(ctx, o)
}

// Delete removes an order. Deleting a missing order is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) fillUserNames(ctx context.Context, orders []domain.Order) {
	for i := range orders {
		s.fillUserName(ctx, &orders[i])
	}
}

// fillUserName copies the user's name onto o when o references a user and
// carries no name. Lookup failures leave the name empty.
func (s *Service) fillUserName(ctx context.Context, o *domain.Order) {
	if o.UserID == nil || o.UserName != "" || s.users == nil {
		return
	}
	u, err := s.users.GetByID(ctx, *o.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Int64("user_id", *o.UserID).Msg("order: user lookup failed")
		}
		return
	}
	o.UserName = u.Name
}

func fromInput(in Input) domain.Order {
	return domain.Order{
		OrderNumber: in.OrderNumber,
		Details:     in.Details,
		Status:      in.Status,
		TotalPrice:  in.TotalPrice,
		UserID:      in.UserID,
		UserName:    in.UserName,
		FullName:    in.FullName,
		Address:     in.Address,
		City:        in.City,
		PostalCode:  in.PostalCode,
		Phone:       in.Phone,
		Email:       in.Email,
		Comments:    in.Comments,
	}
}
