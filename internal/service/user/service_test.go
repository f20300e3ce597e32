package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"storefront/internal/domain"
)

// memoryRepo is a lightweight in-memory user repository for tests.
type memoryRepo struct {
	nextID int64
	byID   map[int64]domain.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[int64]domain.User)}
}

func (r *memoryRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	if _, err := r.GetByName(ctx, u.Name); err == nil {
		return nil, domain.ErrAlreadyExists
	}
	r.nextID++
	u.ID = r.nextID
	r.byID[u.ID] = u
	return &u, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepo) GetByName(_ context.Context, name string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Name == name {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryRepo) Update(_ context.Context, u domain.User) (*domain.User, error) {
	if _, ok := r.byID[u.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	r.byID[u.ID] = u
	return &u, nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := New(repo)
	svc.cost = bcrypt.MinCost
	return svc, repo
}

func strPtr(v string) *string {
	return &v
}

func TestCreateHashesPassword(t *testing.T) {
	svc, repo := newTestService()
	u, err := svc.Create(context.Background(), Input{Name: "Pedro", Password: "Pedro", Age: 31})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	stored := repo.byID[u.ID]
	if stored.PasswordHash == "Pedro" || stored.PasswordHash == "" {
		t.Fatalf("password must be hashed, got %q", stored.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Pedro")); err != nil {
		t.Fatalf("hash does not match: %v", err)
	}
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Create(context.Background(), Input{Name: "Pedro", Password: "a"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), Input{Name: "Pedro", Password: "b"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Create(context.Background(), Input{Name: " ", Password: "x"}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for blank name, got %v", err)
	}
	if _, err := svc.Create(context.Background(), Input{Name: "Ana"}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for blank password, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, Input{Name: "admin", Password: "admin", Admin: true}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, Input{Name: "bloq", Password: "bloq", Blocked: true}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	u, err := svc.Login(ctx, "admin", "admin")
	if err != nil || !u.Admin {
		t.Fatalf("Login = %+v, %v", u, err)
	}
	if _, err := svc.Login(ctx, "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if _, err := svc.Login(ctx, "bloq", "bloq"); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestUpdateKeepsPasswordWhenEmpty(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	u, _ := svc.Create(ctx, Input{Name: "Pedro", Password: "Pedro"})
	before := repo.byID[u.ID].PasswordHash

	updated, err := svc.Update(ctx, u.ID, Input{Name: "Pedro", Age: 40, BirthPlace: "Albacete"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Age != 40 || updated.BirthPlace != "Albacete" {
		t.Fatalf("unexpected user %+v", updated)
	}
	if repo.byID[u.ID].PasswordHash != before {
		t.Fatalf("password hash should be unchanged")
	}

	if _, err := svc.Update(ctx, u.ID, Input{Name: "Pedro", Password: "nueva"}); err != nil {
		t.Fatalf("Update password: %v", err)
	}
	if _, err := svc.Login(ctx, "Pedro", "nueva"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Update(ctx, 999, Input{Name: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNormalizeImage(t *testing.T) {
	long := strings.Repeat("A", 501)
	cases := []struct {
		name string
		in   *string
		want *string
	}{
		{"nil", nil, nil},
		{"blank", strPtr("   "), nil},
		{"data url", strPtr("data:image/jpeg;base64,xyz"), strPtr("data:image/jpeg;base64,xyz")},
		{"short name", strPtr("prod1.png"), strPtr("prod1.png")},
		{"raw base64", strPtr(long), strPtr("data:image/png;base64," + long)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeImage(tc.in)
			switch {
			case tc.want == nil && got != nil:
				t.Fatalf("expected nil, got %q", *got)
			case tc.want != nil && (got == nil || *got != *tc.want):
				t.Fatalf("expected %q, got %v", *tc.want, got)
			}
		})
	}
}

func TestDeleteMissingUser(t *testing.T) {
	svc, _ := newTestService()
	if err := svc.Delete(context.Background(), 42); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
