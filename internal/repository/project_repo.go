package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
	"dgtech/pkg/util"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const projectColumns = `
        id, client_id, manager_id, title, description, project_type,
        onboarding_completed, status, deposit_type, deposit_value::DOUBLE PRECISION,
        deposit_paid, final_balance_paid, payment_method_used,
        created_at, submitted_at, started_at, completed_at`

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// scanProject reads projectColumns (plus total_price when total is non-nil)
// and rejects values outside the closed vocabularies.
func scanProject(row rowScanner, total *float64) (*model.Project, error) {
	var (
		p           model.Project
		projectType string
		status      string
		depositType *string
	)
	dest := []any{
		&p.ID,
		&p.ClientID,
		&p.ManagerID,
		&p.Title,
		&p.Description,
		&projectType,
		&p.OnboardingCompleted,
		&status,
		&depositType,
		&p.DepositValue,
		&p.DepositPaid,
		&p.FinalBalancePaid,
		&p.PaymentMethodUsed,
		&p.CreatedAt,
		&p.SubmittedAt,
		&p.StartedAt,
		&p.CompletedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	what := fmt.Sprintf("project %d", p.ID)
	if p.ProjectType, err = model.ParseProjectType(projectType); err != nil {
		return nil, apperr.SchemaViolation(what, err)
	}
	if p.Status, err = model.ParseProjectStatus(status); err != nil {
		return nil, apperr.SchemaViolation(what, err)
	}
	if p.DepositType, err = parseOptionalDepositType(depositType); err != nil {
		return nil, apperr.SchemaViolation(what, err)
	}
	return &p, nil
}

func scanProjectWithTotals(row rowScanner) (*model.ProjectWithTotals, error) {
	var total float64
	p, err := scanProject(row, &total)
	if err != nil {
		return nil, err
	}
	return &model.ProjectWithTotals{Project: *p, TotalPrice: total}, nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (_ *model.ProjectWithTotals, err error) {
	defer observe("find_by_id", "projects_with_totals", time.Now(), &err)

	query := `SELECT` + projectColumns + `, total_price
        FROM projects_with_totals
        WHERE id = $1`

	p, err := scanProjectWithTotals(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("project %d", id))
	}
	return p, nil
}

func (r *ProjectRepository) ListByClient(ctx context.Context, clientID string) (_ []model.ProjectWithTotals, err error) {
	defer observe("list_by_client", "projects_with_totals", time.Now(), &err)

	query := `SELECT` + projectColumns + `, total_price
        FROM projects_with_totals
        WHERE client_id = $1
        ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		r.logger.Error("Failed to list projects", zap.String("client_id", clientID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	projects := []model.ProjectWithTotals{}
	for rows.Next() {
		p, err := scanProjectWithTotals(rows)
		if err != nil {
			r.logger.Error("Failed to scan project", zap.Error(err))
			return nil, err
		}
		projects = append(projects, *p)
	}

	return projects, rows.Err()
}

func (r *ProjectRepository) FindIncompleteOnboarding(ctx context.Context, clientID string) (_ *model.Project, err error) {
	defer observe("find_incomplete_onboarding", "projects", time.Now(), &err)

	query := `SELECT` + projectColumns + `
        FROM projects
        WHERE client_id = $1 AND onboarding_completed = FALSE
        ORDER BY created_at DESC
        LIMIT 1`

	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// zero rows is a normal outcome here, not an error
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanProject(rows, nil)
}

func (r *ProjectRepository) ExistsCompletedOnboarding(ctx context.Context, clientID string) (_ bool, err error) {
	defer observe("exists_completed_onboarding", "projects", time.Now(), &err)

	query := `
        SELECT EXISTS (
            SELECT 1 FROM projects
            WHERE client_id = $1 AND onboarding_completed = TRUE
        )
    `
	var exists bool
	err = r.db.QueryRow(ctx, query, clientID).Scan(&exists)
	return exists, err
}

func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) (err error) {
	defer observe("insert", "projects", time.Now(), &err)

	r.logger.Debug("Inserting project",
		zap.String("client_id", p.ClientID),
		zap.String("project_type", string(p.ProjectType)),
		zap.Bool("onboarding_completed", p.OnboardingCompleted),
	)

	query := `
        INSERT INTO projects (client_id, title, description, project_type, onboarding_completed, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `
	err = r.db.QueryRow(ctx, query,
		p.ClientID,
		p.Title,
		p.Description,
		string(p.ProjectType),
		p.OnboardingCompleted,
		string(p.Status),
	).Scan(&p.ID, &p.CreatedAt)

	if err != nil {
		if util.IsUniqueViolation(err) {
			return fmt.Errorf("client %s already has a project in onboarding: %w", p.ClientID, apperr.ErrConflict)
		}
		r.logger.Error("Failed to insert project", zap.Error(err))
		return err
	}

	r.logger.Info("Project inserted successfully",
		zap.Int64("id", p.ID),
		zap.String("client_id", p.ClientID),
	)
	return nil
}

func (r *ProjectRepository) CompleteOnboarding(ctx context.Context, id int64, title, description string) (_ *model.ProjectWithTotals, err error) {
	defer observe("complete_onboarding", "projects", time.Now(), &err)

	query := `
        UPDATE projects
        SET title = $2, description = $3, onboarding_completed = TRUE
        WHERE id = $1
        RETURNING id
    `
	var updated int64
	if err = r.db.QueryRow(ctx, query, id, title, description).Scan(&updated); err != nil {
		return nil, notFound(err, fmt.Sprintf("project %d", id))
	}

	r.logger.Info("Project onboarding completed", zap.Int64("id", id))
	return r.FindByID(ctx, id)
}

func (r *ProjectRepository) Update(ctx context.Context, id int64, u model.ProjectUpdate) (_ *model.ProjectWithTotals, err error) {
	defer observe("update", "projects", time.Now(), &err)

	if u.Empty() {
		return r.FindByID(ctx, id)
	}

	var (
		sets []string
		args = []any{id}
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if u.Title != nil {
		set("title", *u.Title)
	}
	if u.Description != nil {
		set("description", *u.Description)
	}
	if u.ManagerID != nil {
		set("manager_id", *u.ManagerID)
	}
	if u.DepositType != nil {
		set("deposit_type", string(*u.DepositType))
	}
	if u.DepositValue != nil {
		set("deposit_value", *u.DepositValue)
	}
	if u.DepositPaid != nil {
		set("deposit_paid", *u.DepositPaid)
	}
	if u.FinalBalancePaid != nil {
		set("final_balance_paid", *u.FinalBalancePaid)
	}
	if u.PaymentMethodUsed != nil {
		set("payment_method_used", *u.PaymentMethodUsed)
	}

	query := fmt.Sprintf(`UPDATE projects SET %s WHERE id = $1 RETURNING id`, strings.Join(sets, ", "))

	var updated int64
	if err = r.db.QueryRow(ctx, query, args...).Scan(&updated); err != nil {
		err = notFound(err, fmt.Sprintf("project %d", id))
		r.logger.Error("Failed to update project", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return r.FindByID(ctx, id)
}

func (r *ProjectRepository) ApplyStatusChange(ctx context.Context, id int64, c model.StatusChange) (_ *model.ProjectWithTotals, err error) {
	defer observe("apply_status_change", "projects", time.Now(), &err)

	r.logger.Debug("Applying project status change",
		zap.Int64("id", id),
		zap.String("from", string(c.From)),
		zap.String("to", string(c.To)),
	)

	query := `
        UPDATE projects
        SET status = $3,
            submitted_at = COALESCE($4, submitted_at),
            started_at = COALESCE($5, started_at),
            completed_at = COALESCE($6, completed_at)
        WHERE id = $1 AND status = $2
    `
	tag, err := r.db.Exec(ctx, query, id, string(c.From), string(c.To), c.SubmittedAt, c.StartedAt, c.CompletedAt)
	if err != nil {
		r.logger.Error("Failed to apply status change", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("project %d no longer in status %s: %w", id, c.From, apperr.ErrConflict)
	}

	r.logger.Info("Project status changed",
		zap.Int64("id", id),
		zap.String("from", string(c.From)),
		zap.String("to", string(c.To)),
	)
	return r.FindByID(ctx, id)
}

func (r *ProjectRepository) DeleteDraft(ctx context.Context, id int64) (_ bool, err error) {
	defer observe("delete_draft", "projects", time.Now(), &err)

	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND status = 'BROUILLON'`, id)
	if err != nil {
		r.logger.Error("Failed to delete draft project", zap.Int64("id", id), zap.Error(err))
		return false, err
	}

	deleted := tag.RowsAffected() > 0
	r.logger.Info("Draft project delete", zap.Int64("id", id), zap.Bool("deleted", deleted))
	return deleted, nil
}
