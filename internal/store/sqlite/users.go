package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, email, password_hash, role, display_name, created_at, updated_at, last_login_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u           domain.User
		passwordH   sql.NullString
		role        string
		createdAt   string
		updatedAt   string
		lastLoginAt sql.NullString
	)

	if err := scanner.Scan(&u.ID, &u.Email, &passwordH, &role, &u.DisplayName, &createdAt, &updatedAt, &lastLoginAt); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	lastLogin, err := parseNullableTime(lastLoginAt)
	if err != nil {
		return nil, err
	}
	if lastLogin != nil {
		u.LastLoginAt = *lastLogin
	}

	u.PasswordHash = passwordH.String
	u.Role = domain.Role(role)
	return &u, nil
}

// CreateUser inserts a new user. Emails are unique case-insensitively.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, email_lower, password_hash, role, display_name, created_at, updated_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Email,
		normalizeEmail(u.Email),
		nullString(u.PasswordHash),
		string(u.Role),
		u.DisplayName,
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
		nullTimeString(&u.LastLoginAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email_lower = ?`, normalizeEmail(email))
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return u, err
}

// UpdateUser performs a full row update.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			email = ?, email_lower = ?, password_hash = ?, role = ?,
			display_name = ?, updated_at = ?, last_login_at = ?
		WHERE id = ?`,
		u.Email,
		normalizeEmail(u.Email),
		nullString(u.PasswordHash),
		string(u.Role),
		u.DisplayName,
		formatTime(u.UpdatedAt),
		nullTimeString(&u.LastLoginAt),
		u.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// CountUsers returns the number of accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
