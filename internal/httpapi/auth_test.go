package httpapi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/domain"
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

func newStubStore(t *testing.T) *userStoreStub {
	t.Helper()
	return &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:    "admin",
				Password:    mustHashPassword(t, "admin123"),
				Role:        domain.RoleAdmin,
				DisplayName: "Store Admin",
				Email:       "admin@example.com",
				Active:      true,
				CreatedAt:   time.Now().UTC(),
			},
		},
	}
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  "admin123",
				Role:      domain.RoleAdmin,
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}

	manager := NewAuthManager(context.Background(), "test-secret", time.Hour, store)
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", users[0].Password)
	}
	if store.updates == 0 {
		t.Fatalf("expected the upgraded hash to be written back")
	}
}

func TestTokenCarriesRoleAndProfile(t *testing.T) {
	manager := NewAuthManager(context.Background(), "test-secret", time.Hour, newStubStore(t))

	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: "Admin ", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Profile.DisplayName != "Store Admin" {
		t.Fatalf("expected profile in login response, got %+v", resp.Profile)
	}

	session, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if session.Username != "admin" || session.Role != domain.RoleAdmin {
		t.Fatalf("unexpected session %+v", session)
	}
	if session.Profile.Email != "admin@example.com" {
		t.Fatalf("expected email claim, got %+v", session.Profile)
	}
}

func TestParseTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	manager := NewAuthManager(context.Background(), "test-secret", time.Hour, newStubStore(t))
	other := NewAuthManager(context.Background(), "another-secret", time.Hour, newStubStore(t))

	resp, err := other.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := manager.ParseToken(resp.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign token to be rejected, got %v", err)
	}

	manager.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	stale, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	manager.now = func() time.Time { return time.Now().UTC() }
	if _, err := manager.ParseToken(stale.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestLoginRejectsWrongPasswordAndInactiveAccount(t *testing.T) {
	store := newStubStore(t)
	store.users["kasir"] = domain.UserAccount{
		Username: "kasir",
		Password: mustHashPassword(t, "kasir123"),
		Role:     domain.RoleCashier,
		Active:   false,
	}
	manager := NewAuthManager(context.Background(), "test-secret", time.Hour, store)

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "nope"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "kasir", Password: "kasir123"}); !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("expected inactive account, got %v", err)
	}
}

func TestCreateCashierStoresPasswordHash(t *testing.T) {
	store := newStubStore(t)
	manager := NewAuthManager(context.Background(), "test-secret", time.Hour, store)

	cashier, err := manager.CreateCashier(context.Background(), domain.CashierCreateRequest{
		Username:    "KasirBaru",
		Password:    "pass1234",
		DisplayName: "Kasir Baru",
	})
	if err != nil {
		t.Fatalf("create cashier failed: %v", err)
	}
	if cashier.Username != "kasirbaru" || cashier.Role != domain.RoleCashier {
		t.Fatalf("unexpected cashier %+v", cashier)
	}

	found, ok := store.users["kasirbaru"]
	if !ok {
		t.Fatalf("expected cashier to be saved")
	}
	if !strings.HasPrefix(found.Password, "$2") {
		t.Fatalf("expected bcrypt hash prefix, got %s", found.Password)
	}
	if found.DisplayName != "Kasir Baru" {
		t.Fatalf("expected display name to be stored, got %q", found.DisplayName)
	}

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "kasirbaru", Password: "pass1234"}); err != nil {
		t.Fatalf("login with hashed cashier failed: %v", err)
	}

	_, err = manager.CreateCashier(context.Background(), domain.CashierCreateRequest{Username: "kasirbaru", Password: "pass1234"})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for duplicate username, got %v", err)
	}
	_, err = manager.CreateCashier(context.Background(), domain.CashierCreateRequest{Username: "ab", Password: "pass1234"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for short username, got %v", err)
	}

	cashiers := manager.ListCashiers(context.Background())
	if len(cashiers) != 1 || cashiers[0].Username != "kasirbaru" {
		t.Fatalf("expected only the new cashier, got %+v", cashiers)
	}
}
