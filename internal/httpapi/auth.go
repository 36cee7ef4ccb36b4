package httpapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/logging"
	"mrchooks/backend/internal/store"
	"mrchooks/backend/internal/validation"
)

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errInactiveAccount    = errors.New("account is inactive")
	errInvalidToken       = errors.New("invalid or expired token")
)

type AuthManager struct {
	mu        sync.RWMutex
	secret    []byte
	tokenTTL  time.Duration
	userStore UserStore
	users     map[string]credential
	now       func() time.Time
}

type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

type credential struct {
	password string
	role     string
	active   bool
	created  time.Time
}

type actorClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, userStore UserStore) *AuthManager {
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &AuthManager{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		userStore: userStore,
		users:     make(map[string]credential),
		now:       time.Now,
	}
}

// SeedUsers creates the admin and employee accounts on first start. A blank
// password skips that account; existing accounts are left alone.
func (a *AuthManager) SeedUsers(ctx context.Context, adminPassword string, employeePassword string) error {
	if err := a.loadUsers(ctx); err != nil {
		return err
	}
	seeds := []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPassword, domain.RoleAdmin},
		{"employee", employeePassword, domain.RoleEmployee},
	}
	for _, seed := range seeds {
		if strings.TrimSpace(seed.password) == "" {
			continue
		}
		a.mu.RLock()
		_, exists := a.users[seed.username]
		a.mu.RUnlock()
		if exists {
			continue
		}
		if _, err := a.createUser(ctx, seed.username, seed.password, seed.role); err != nil && !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("seed %s: %w", seed.username, err)
		}
		logging.Ctx(ctx).Info().Str("username", seed.username).Msg("seeded user account")
	}
	return nil
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	if err := a.loadUsers(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("reload users failed, using cached accounts")
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	a.mu.RLock()
	cred, ok := a.users[username]
	a.mu.RUnlock()
	if !ok || !verifyPassword(cred.password, req.Password) {
		return domain.LoginResponse{}, errInvalidCredentials
	}
	if !cred.active {
		return domain.LoginResponse{}, errInactiveAccount
	}

	expiresAt := a.now().UTC().Add(a.tokenTTL)
	token, err := a.sign(username, cred.role, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return domain.LoginResponse{
		AccessToken: token,
		Role:        cred.role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &actorClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithIssuer("mrchooks"))
	if err != nil || !token.Valid {
		return domain.Actor{}, errInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errInvalidToken
	}
	return domain.Actor{Username: sub, Role: claims.Role}, nil
}

func (a *AuthManager) sign(username string, role string, expiresAt time.Time) (string, error) {
	claims := actorClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwtlib.NewNumericDate(a.now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "mrchooks",
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthManager) CreateUser(ctx context.Context, req domain.EmployeeCreateRequest) (domain.EmployeeUser, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if err := validation.Struct(req); err != nil {
		return domain.EmployeeUser{}, fmt.Errorf("%w: %w", store.ErrInvalidInput, err)
	}
	if strings.ContainsAny(req.Username, " \t\r\n") {
		return domain.EmployeeUser{}, fmt.Errorf("%w: username must not contain spaces", store.ErrInvalidInput)
	}
	role := req.Role
	if role == "" {
		role = domain.RoleEmployee
	}
	return a.createUser(ctx, req.Username, req.Password, role)
}

func (a *AuthManager) createUser(ctx context.Context, username string, password string, role string) (domain.EmployeeUser, error) {
	passwordHash, err := hashPassword(password)
	if err != nil {
		return domain.EmployeeUser{}, fmt.Errorf("hash password: %w", err)
	}
	now := a.now().UTC()
	if err := a.userStore.CreateUser(ctx, domain.UserAccount{
		Username:  username,
		Password:  passwordHash,
		Role:      role,
		Active:    true,
		CreatedAt: now,
	}); err != nil {
		return domain.EmployeeUser{}, err
	}

	a.mu.Lock()
	a.users[username] = credential{password: passwordHash, role: role, active: true, created: now}
	a.mu.Unlock()

	return domain.EmployeeUser{Username: username, Role: role, Active: true, CreatedAt: now}, nil
}

func (a *AuthManager) ListUsers(ctx context.Context) ([]domain.EmployeeUser, error) {
	if err := a.loadUsers(ctx); err != nil {
		return nil, err
	}
	a.mu.RLock()
	result := make([]domain.EmployeeUser, 0, len(a.users))
	for username, user := range a.users {
		result = append(result, domain.EmployeeUser{
			Username:  username,
			Role:      user.role,
			Active:    user.active,
			CreatedAt: user.created,
		})
	}
	a.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})
	return result, nil
}

// loadUsers refreshes the credential cache from the store and rehashes any
// plain-text password it finds.
func (a *AuthManager) loadUsers(ctx context.Context) error {
	users, err := a.userStore.ListUsers(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, user := range users {
		username := strings.ToLower(strings.TrimSpace(user.Username))
		if username == "" {
			continue
		}
		password := user.Password
		if !isPasswordHash(password) {
			hashed, err := hashPassword(password)
			if err == nil {
				password = hashed
				if err := a.userStore.UpdateUserPassword(ctx, username, hashed); err != nil {
					logging.Ctx(ctx).Warn().Err(err).Str("username", username).Msg("password rehash not saved")
				}
			}
		}
		a.users[username] = credential{
			password: password,
			role:     user.Role,
			active:   user.Active,
			created:  user.CreatedAt,
		}
	}
	return nil
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
