package repository

import (
	"context"
	"time"

	"dgtech/internal/apperr"
	"dgtech/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ProfileRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProfileRepository(db *pgxpool.Pool, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, logger: logger}
}

func scanProfile(row rowScanner) (*model.Profile, error) {
	var (
		p    model.Profile
		role string
	)
	if err := row.Scan(&p.ID, &role, &p.FullName, &p.AvatarURL, &p.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Role, err = model.ParseRole(role); err != nil {
		return nil, apperr.SchemaViolation("profile "+p.ID, err)
	}
	return &p, nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (_ *model.Profile, err error) {
	defer observe("find_by_id", "profiles", time.Now(), &err)

	query := `
        SELECT id, role, full_name, avatar_url, created_at
        FROM profiles
        WHERE id = $1
    `
	p, err := scanProfile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "profile "+id)
	}
	return p, nil
}

func (r *ProfileRepository) Insert(ctx context.Context, p *model.Profile) (_ bool, err error) {
	defer observe("insert", "profiles", time.Now(), &err)

	r.logger.Debug("Inserting profile", zap.String("id", p.ID), zap.String("role", string(p.Role)))

	query := `
        INSERT INTO profiles (id, role, full_name, avatar_url)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO NOTHING
        RETURNING created_at
    `
	rows, err := r.db.Query(ctx, query, p.ID, string(p.Role), p.FullName, p.AvatarURL)
	if err != nil {
		r.logger.Error("Failed to insert profile", zap.String("id", p.ID), zap.Error(err))
		return false, err
	}
	defer rows.Close()

	created := false
	if rows.Next() {
		if err = rows.Scan(&p.CreatedAt); err != nil {
			return false, err
		}
		created = true
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Failed to insert profile", zap.String("id", p.ID), zap.Error(err))
		return false, err
	}

	r.logger.Info("Profile insert", zap.String("id", p.ID), zap.Bool("created", created))
	return created, nil
}

func (r *ProfileRepository) Update(ctx context.Context, id string, u model.ProfileUpdate) (_ *model.Profile, err error) {
	defer observe("update", "profiles", time.Now(), &err)

	query := `
        UPDATE profiles
        SET full_name = COALESCE($2, full_name),
            avatar_url = COALESCE($3, avatar_url)
        WHERE id = $1
        RETURNING id, role, full_name, avatar_url, created_at
    `
	p, err := scanProfile(r.db.QueryRow(ctx, query, id, u.FullName, u.AvatarURL))
	if err != nil {
		return nil, notFound(err, "profile "+id)
	}
	return p, nil
}

func (r *ProfileRepository) UpdateRole(ctx context.Context, id string, role model.Role) (_ *model.Profile, err error) {
	defer observe("update_role", "profiles", time.Now(), &err)

	query := `
        UPDATE profiles SET role = $2
        WHERE id = $1
        RETURNING id, role, full_name, avatar_url, created_at
    `
	p, err := scanProfile(r.db.QueryRow(ctx, query, id, string(role)))
	if err != nil {
		return nil, notFound(err, "profile "+id)
	}
	r.logger.Info("Profile role updated", zap.String("id", id), zap.String("role", string(role)))
	return p, nil
}
