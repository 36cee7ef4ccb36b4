package sqlstore

import (
	"context"
	"strings"
	"time"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = domain.RoleEmployee
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO users (username, password, role, active, created_at)
		VALUES (?,?,?,?,?)
	`), user.Username, user.Password, user.Role, user.Active, user.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return store.Wrap("create user", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	users := make([]domain.UserAccount, 0, 8)
	err := s.db.SelectContext(ctx, &users, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, store.Wrap("list users", err)
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE users SET password = ? WHERE username = ?`), password, username)
	if err != nil {
		return store.Wrap("update user password", err)
	}
	return store.Wrap("update user password", rowsAffectedOrNotFound(res))
}
