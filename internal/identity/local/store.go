package local

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/itemdesk/internal/identity"
	"github.com/louisbranch/itemdesk/internal/platform/storage/sqlitedb"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type userRecord struct {
	ID           string
	Username     string
	PasswordHash string
	Email        string
	Name         string
}

type resetRecord struct {
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
}

// store persists users, revoked token ids and pending reset codes.
type store struct {
	sqlDB *sql.DB
}

func openStore(ctx context.Context, path string) (*store, error) {
	sqlDB, err := sqlitedb.Open(ctx, path, migrationFS, "migrations")
	if err != nil {
		return nil, err
	}
	return &store{sqlDB: sqlDB}, nil
}

func (s *store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *store) insertUser(ctx context.Context, u userRecord, now time.Time) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, email, name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.Email, u.Name, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *store) userByUsername(ctx context.Context, username string) (userRecord, error) {
	return s.scanUser(s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, email, name FROM users WHERE username = ?`, username))
}

func (s *store) userByID(ctx context.Context, userID string) (userRecord, error) {
	return s.scanUser(s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, email, name FROM users WHERE id = ?`, userID))
}

func (s *store) scanUser(row *sql.Row) (userRecord, error) {
	var u userRecord
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return userRecord{}, identity.ErrUserNotFound
		}
		return userRecord{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (s *store) updatePassword(ctx context.Context, username, hash string, now time.Time) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin password update: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE username = ?`,
		hash, now.UnixMilli(), username,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update password: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reset_codes WHERE username = ?`, username); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete reset code: %w", err)
	}
	return tx.Commit()
}

func (s *store) revokeToken(ctx context.Context, jti string, expiresAt, now time.Time) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UnixMilli(),
	); err != nil {
		return fmt.Errorf("prune revoked tokens: %w", err)
	}
	return nil
}

func (s *store) isRevoked(ctx context.Context, jti string) (bool, error) {
	var found int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM revoked_tokens WHERE jti = ?`, jti).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return true, nil
}

func (s *store) putResetCode(ctx context.Context, username, codeHash string, expiresAt time.Time) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO reset_codes (username, code_hash, expires_at, attempts) VALUES (?, ?, ?, 0)
ON CONFLICT(username) DO UPDATE SET code_hash = excluded.code_hash, expires_at = excluded.expires_at, attempts = 0`,
		username, codeHash, expiresAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("put reset code: %w", err)
	}
	return nil
}

func (s *store) resetCode(ctx context.Context, username string) (resetRecord, bool, error) {
	var (
		rec       resetRecord
		expiresAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT code_hash, expires_at, attempts FROM reset_codes WHERE username = ?`, username,
	).Scan(&rec.CodeHash, &expiresAt, &rec.Attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return resetRecord{}, false, nil
	}
	if err != nil {
		return resetRecord{}, false, fmt.Errorf("get reset code: %w", err)
	}
	rec.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return rec, true, nil
}

func (s *store) recordResetAttempt(ctx context.Context, username string) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`UPDATE reset_codes SET attempts = attempts + 1 WHERE username = ?`, username,
	); err != nil {
		return fmt.Errorf("record reset attempt: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
