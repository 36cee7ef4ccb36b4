package httpapi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/store"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	if _, ok := s.users[user.Username]; ok {
		return store.ErrConflict
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	users := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {Username: "admin", Password: "admin-pass-123", Role: domain.RoleAdmin, Active: true, CreatedAt: time.Now().UTC()},
		},
	}

	manager := NewAuthManager("test-secret", time.Hour, users)
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin-pass-123"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if users.updates != 1 {
		t.Fatalf("expected password rehash to be persisted once, got %d", users.updates)
	}
	if !isPasswordHash(users.users["admin"].Password) {
		t.Fatalf("expected stored password to be a bcrypt hash")
	}
}

func TestAuthManagerTokenRoundTrip(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, &userStoreStub{})
	if err := manager.SeedUsers(context.Background(), "admin-pass-123", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: "Admin", Password: "admin-pass-123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != domain.RoleAdmin {
		t.Fatalf("unexpected actor %+v", actor)
	}

	other := NewAuthManager("another-secret", time.Hour, &userStoreStub{})
	if _, err := other.ParseToken(resp.AccessToken); !errors.Is(err, errInvalidToken) {
		t.Fatalf("expected token signed elsewhere to be rejected, got %v", err)
	}
}

func TestAuthManagerRejectsExpiredToken(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Minute, &userStoreStub{})
	manager.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := manager.sign("admin", domain.RoleAdmin, manager.now().Add(time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ParseToken(token); !errors.Is(err, errInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestSeedUsersIsIdempotent(t *testing.T) {
	users := &userStoreStub{}
	manager := NewAuthManager("test-secret", time.Hour, users)

	for i := 0; i < 2; i++ {
		if err := manager.SeedUsers(context.Background(), "admin-pass-123", "employee-pass-123"); err != nil {
			t.Fatalf("seed run %d: %v", i+1, err)
		}
	}
	if len(users.users) != 2 {
		t.Fatalf("expected 2 seeded accounts, got %d", len(users.users))
	}
	if users.users["employee"].Role != domain.RoleEmployee {
		t.Fatalf("expected employee role, got %q", users.users["employee"].Role)
	}
}

func TestCreateUserValidation(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, &userStoreStub{})

	if _, err := manager.CreateUser(context.Background(), domain.EmployeeCreateRequest{Username: "ab", Password: "secret-1"}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected short username to be rejected, got %v", err)
	}
	if _, err := manager.CreateUser(context.Background(), domain.EmployeeCreateRequest{Username: "cashier", Password: "123"}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected short password to be rejected, got %v", err)
	}
	if _, err := manager.CreateUser(context.Background(), domain.EmployeeCreateRequest{Username: "cashier", Password: "secret-1", Role: "owner"}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected unknown role to be rejected, got %v", err)
	}

	user, err := manager.CreateUser(context.Background(), domain.EmployeeCreateRequest{Username: " Cashier ", Password: "secret-1"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Username != "cashier" || user.Role != domain.RoleEmployee {
		t.Fatalf("unexpected user %+v", user)
	}
	if _, err := manager.CreateUser(context.Background(), domain.EmployeeCreateRequest{Username: "cashier", Password: "secret-2"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	hash, err := hashPassword("secret-123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := &userStoreStub{users: map[string]domain.UserAccount{
		"retired": {Username: "retired", Password: hash, Role: domain.RoleEmployee, Active: false},
	}}
	manager := NewAuthManager("test-secret", time.Hour, users)

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "retired", Password: "secret-123"}); !errors.Is(err, errInactiveAccount) {
		t.Fatalf("expected inactive account error, got %v", err)
	}
}
