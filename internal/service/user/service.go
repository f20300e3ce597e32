package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"storefront/internal/domain"
	userrepo "storefront/internal/repository/user"
)

var (
	// ErrInvalidCredentials is returned when name/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrBlocked is returned when a blocked user tries to log in.
	ErrBlocked = errors.New("user is blocked")
)

const (
	dataImagePrefix  = "data:image"
	rawImageMaxChars = 500
)

// Service handles user accounts and login.
type Service struct {
	repo userrepo.Repository
	cost int
}

func New(repo userrepo.Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// Input captures the fields accepted on create and update.
type Input struct {
	Name       string  `json:"nombre"`
	Password   string  `json:"contrasena"`
	Age        int     `json:"edad"`
	Admin      bool    `json:"administrador"`
	Title      string  `json:"trato"`
	Image      *string `json:"imagen"`
	BirthPlace string  `json:"lugarNacimiento"`
	Blocked    bool    `json:"bloqueado"`
}

// Create registers a user. Names are unique.
func (s *Service) Create(ctx context.Context, in Input) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre required", domain.ErrInvalidRequest)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: contrasena required", domain.ErrInvalidRequest)
	}
	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return nil, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u := applyInput(domain.User{}, in)
	u.Name = name
	u.PasswordHash = string(hashed)
	return s.repo.Create(ctx, u)
}

// Update overwrites a user's profile. An empty password keeps the current one.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*domain.User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre required", domain.ErrInvalidRequest)
	}
	u := applyInput(*existing, in)
	u.Name = name
	if in.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hashed)
	}
	return s.repo.Update(ctx, u)
}

// Login checks credentials. Blocked users get ErrBlocked even with a valid password.
func (s *Service) Login(ctx context.Context, name, password string) (*domain.User, error) {
	u, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.Blocked {
		return nil, ErrBlocked
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) FindByName(ctx context.Context, name string) (*domain.User, error) {
	return s.repo.GetByName(ctx, strings.TrimSpace(name))
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

// Delete removes a user. Deleting a missing user is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func applyInput(u domain.User, in Input) domain.User {
	u.Age = in.Age
	u.Admin = in.Admin
	u.Title = in.Title
	u.Image = normalizeImage(in.Image)
	u.BirthPlace = in.BirthPlace
	u.Blocked = in.Blocked
	return u
}

// normalizeImage turns blank images into nil and wraps long raw base64
// payloads into a PNG data URL.
func normalizeImage(img *string) *string {
	if img == nil {
		return nil
	}
	v := *img
	switch {
	case strings.TrimSpace(v) == "":
		return nil
	case strings.HasPrefix(v, dataImagePrefix):
	case len(v) > rawImageMaxChars:
		v = "data:image/png;base64," + v
	}
	return &v
}
