package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roomscan/backend/config"
	"github.com/roomscan/backend/model"
)

// ErrUserNotFound means the role side table has no row for the user
var ErrUserNotFound = errors.New("user not found")

// UserStore is the role side table lookup
type UserStore interface {
	RoleByEmail(ctx context.Context, email string) (string, error)
}

// PostgresUserStore reads roles from the users table
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) RoleByEmail(ctx context.Context, email string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM users WHERE email = $1 AND status = 'active'`, email,
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up role: %w", err)
	}
	return role, nil
}

// ConfigUserStore resolves roles from the static user list in config,
// used when no database is configured
type ConfigUserStore struct {
	cfg *config.Config
}

func NewConfigUserStore(cfg *config.Config) *ConfigUserStore {
	return &ConfigUserStore{cfg: cfg}
}

func (s *ConfigUserStore) RoleByEmail(_ context.Context, email string) (string, error) {
	user := s.cfg.FindUserByEmail(email)
	if user == nil {
		return "", ErrUserNotFound
	}
	if user.Role == "" {
		return model.RoleUser, nil
	}
	return user.Role, nil
}
