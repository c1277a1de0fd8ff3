package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/roomscan/backend/model"
)

var (
	// ErrInviteExists means an invite with the same id, code, or a pending
	// invite for the same email already exists
	ErrInviteExists = errors.New("invite already exists")
	// ErrInviteNotFound means no matching invite in the expected state
	ErrInviteNotFound = errors.New("invite not found")
	// ErrInviteExpired means the invite code is past its expiry
	ErrInviteExpired = errors.New("invite expired")
)

// InviteStore persists admin-issued registration invites
type InviteStore interface {
	Create(ctx context.Context, invite *model.Invite) error
	Get(ctx context.Context, id string) (*model.Invite, error)
	List(ctx context.Context, status string) ([]*model.Invite, error)
	Revoke(ctx context.Context, id string) error
	Accept(ctx context.Context, code string, now time.Time) (*model.Invite, error)
}

// GenerateInviteCode returns a random one-time code
func GenerateInviteCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// PostgresInviteStore stores invites in a Postgres table. Uniqueness is
// enforced by conditional writes: a duplicate id or a second pending invite
// for the same email fails the insert.
type PostgresInviteStore struct {
	db *sql.DB
}

func NewPostgresInviteStore(db *sql.DB) *PostgresInviteStore {
	return &PostgresInviteStore{db: db}
}

func (s *PostgresInviteStore) Create(ctx context.Context, invite *model.Invite) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invites (id, code, email, inviter, status, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		invite.ID, invite.Code, invite.Email, invite.Inviter,
		invite.Status, invite.CreatedAt, invite.ExpiresAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return ErrInviteExists
		}
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

func (s *PostgresInviteStore) Get(ctx context.Context, id string) (*model.Invite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, code, email, inviter, status, created_at, expires_at
		 FROM invites WHERE id = $1`, id)

	invite, err := scanInvite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return invite, nil
}

func (s *PostgresInviteStore) List(ctx context.Context, status string) ([]*model.Invite, error) {
	query := `SELECT id, code, email, inviter, status, created_at, expires_at
		 FROM invites ORDER BY created_at DESC`
	args := []any{}
	if status != "" {
		query = `SELECT id, code, email, inviter, status, created_at, expires_at
		 FROM invites WHERE status = $1 ORDER BY created_at DESC`
		args = append(args, status)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	defer rows.Close()

	var invites []*model.Invite
	for rows.Next() {
		invite, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, invite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invites: %w", err)
	}
	return invites, nil
}

// Revoke flips a pending invite to revoked. The update is conditional: it
// fails when the row is missing or already in a terminal state.
func (s *PostgresInviteStore) Revoke(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invites SET status = $1 WHERE id = $2 AND status = $3`,
		model.InviteStatusRevoked, id, model.InviteStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke invite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read revoke result: %w", err)
	}
	if affected == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// Accept redeems a pending, unexpired invite code
func (s *PostgresInviteStore) Accept(ctx context.Context, code string, now time.Time) (*model.Invite, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE invites SET status = $1
		 WHERE code = $2 AND status = $3 AND expires_at > $4
		 RETURNING id, code, email, inviter, status, created_at, expires_at`,
		model.InviteStatusAccepted, code, model.InviteStatusPending, now,
	)

	invite, err := scanInvite(row)
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish expired from unknown/already used. Same inclusive
		// boundary as the UPDATE: expires_at <= now is expired.
		var expiresAt time.Time
		probe := s.db.QueryRowContext(ctx,
			`SELECT expires_at FROM invites WHERE code = $1 AND status = $2`,
			code, model.InviteStatusPending)
		if probeErr := probe.Scan(&expiresAt); probeErr == nil && !now.Before(expiresAt) {
			return nil, ErrInviteExpired
		}
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to accept invite: %w", err)
	}
	return invite, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvite(row rowScanner) (*model.Invite, error) {
	var invite model.Invite
	err := row.Scan(&invite.ID, &invite.Code, &invite.Email, &invite.Inviter,
		&invite.Status, &invite.CreatedAt, &invite.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &invite, nil
}
