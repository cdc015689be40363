package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/nhadat/listing-auth/internal/models"
	"github.com/nhadat/listing-auth/internal/storage"
	"github.com/nhadat/listing-auth/internal/storage/postgres/migrations"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

const (
	uniqueViolation = "23505"
	emailConstraint = "users_email_active_idx"
	phoneConstraint = "users_phone_active_idx"
	userColumns     = `u.id::text, u.email, u.phone, u.full_name, u.password_hash, u.role_id, r.name,
		COALESCE(u.avatar_key, ''), u.is_deleted, u.created_at, u.updated_at`
)

// Store provides Postgres-backed persistence for users.
type Store struct {
	pool *pgxpool.Pool
}

// NewUserStore connects to databaseURL and verifies the connection.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CreateUser inserts a new user row and resolves its role by name.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		WITH inserted AS (
			INSERT INTO users (id, email, phone, full_name, password_hash, role_id, avatar_key)
			VALUES ($1, $2, $3, $4, $5, (SELECT id FROM roles WHERE name = $6), NULLIF($7, ''))
			RETURNING *
		)
		SELECT ` + userColumns + `
		FROM inserted u
		JOIN roles r ON r.id = u.role_id;
	`
	row := s.pool.QueryRow(ctx, query, user.ID, user.Email, user.Phone, user.FullName, user.PasswordHash, user.RoleName, user.AvatarKey)
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, mapWriteError(err)
	}
	return created, nil
}

// FindByID fetches a non-deleted user by id.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.User{}, storage.ErrNotFound
	}
	return s.findOne(ctx, "u.id = $1", id)
}

// FindByEmail fetches a non-deleted user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, "u.email = $1", email)
}

// FindByPhone fetches a non-deleted user by phone number.
func (s *Store) FindByPhone(ctx context.Context, phone string) (models.User, error) {
	return s.findOne(ctx, "u.phone = $1", phone)
}

// UpdatePasswordHash replaces the stored hash of a non-deleted user.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	if _, err := uuid.Parse(id); err != nil {
		return storage.ErrNotFound
	}
	const query = `
		UPDATE users SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted;
	`
	tag, err := s.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, where string, arg any) (models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE ` + where + ` AND NOT u.is_deleted
		LIMIT 1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, arg))
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID, &user.Email, &user.Phone, &user.FullName, &user.PasswordHash, &user.RoleID, &user.RoleName,
		&user.AvatarKey, &user.IsDeleted, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return fmt.Errorf("insert user: %w", err)
	}
	switch pgErr.ConstraintName {
	case emailConstraint:
		return storage.ErrDuplicateEmail
	case phoneConstraint:
		return storage.ErrDuplicatePhone
	default:
		return storage.ErrAlreadyExists
	}
}
