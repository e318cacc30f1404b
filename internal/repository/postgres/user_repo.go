package postgres

import (
	"context"
	"fmt"

	"github.com/prn-tf/gallery/internal/domain"
	"github.com/prn-tf/gallery/internal/repository"
)

// userRepository implements repository.UserRepository for PostgreSQL.
type userRepository struct {
	db Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db.Pool}
}

// Create inserts a new user. A concurrent insert of the same username fails
// with SQLSTATE 23505 and is reported as domain.ErrUserAlreadyExists.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID.String(),
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrUserAlreadyExists, user.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	query := `
		SELECT id::text, username, password_hash, created_at
		FROM users
		WHERE id::text = $1
	`
	return r.getOne(ctx, "ID", query, id.String())
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id::text, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`
	return r.getOne(ctx, "username", query, username)
}

func (r *userRepository) getOne(ctx context.Context, by, query string, arg any) (*domain.User, error) {
	user := &domain.User{}
	var id string
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&id,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", by, err)
	}
	user.ID = domain.UserID(id)
	return user, nil
}

// FindOwnerIDByUsername returns only the id column for username.
func (r *userRepository) FindOwnerIDByUsername(ctx context.Context, username string) (domain.UserID, error) {
	var id string
	err := r.db.QueryRow(ctx, `SELECT id::text FROM users WHERE username = $1`, username).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return "", domain.ErrUserNotFound
		}
		return "", fmt.Errorf("failed to find owner id: %w", err)
	}
	return domain.UserID(id), nil
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
