package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"territorial/internal/identity"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/sentinel"
)

const uniqueViolation = pq.ErrorCode("23505")

// PostgresStore persists identities in the identities table.
type PostgresStore struct {
	db *sql.DB
}

func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, i *identity.Identity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identities (id, email, password_hash, display_name, created_at) VALUES ($1, $2, $3, $4, $5)`,
		i.ID.String(), i.Email, i.PasswordHash, i.DisplayName, i.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, display_name, created_at FROM identities WHERE id = $1`,
		userID.String(),
	)
	return scan(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, display_name, created_at FROM identities WHERE email = $1`,
		email,
	)
	return scan(row)
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, userID.String())
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scan(row *sql.Row) (*identity.Identity, error) {
	var (
		i      identity.Identity
		userID string
	)
	err := row.Scan(&userID, &i.Email, &i.PasswordHash, &i.DisplayName, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	i.ID = id.UserID(userID)
	return &i, nil
}
