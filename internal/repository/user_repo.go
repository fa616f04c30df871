package repository

import (
	"context"
	"fmt"
	"time"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
	"dgtech/pkg/util"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// CreateUser inserts a new user. u.ID must be set by the caller.
func (r *UserRepository) CreateUser(ctx context.Context, u *model.User) (err error) {
	defer observe("create", "users", time.Now(), &err)

	query := `
        INSERT INTO users (id, email, password_hash, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING created_at
    `
	err = r.db.QueryRow(ctx, query, u.ID, u.Email, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		if util.IsUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", u.Email, apperr.ErrConflict)
		}
		r.logger.Error("Failed to create user", zap.Error(err))
		return err
	}
	return nil
}

// FindByEmail returns user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (_ *model.User, err error) {
	defer observe("find_by_email", "users", time.Now(), &err)

	query := `
        SELECT id, email, password_hash, created_at
        FROM users
        WHERE email = $1
    `
	var u model.User
	err = r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "user "+email)
	}
	return &u, nil
}
