package repository

import (
	"context"
	"fmt"
	"time"

	"dgtech/internal/apperr"
	"dgtech/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const milestoneColumns = `
        id, project_id, developer_id, title, description, status,
        price::DOUBLE PRECISION, due_date`

type MilestoneRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMilestoneRepository(db *pgxpool.Pool, logger *zap.Logger) *MilestoneRepository {
	return &MilestoneRepository{db: db, logger: logger}
}

func scanMilestone(row rowScanner) (*model.Milestone, error) {
	var (
		m      model.Milestone
		status string
	)
	if err := row.Scan(&m.ID, &m.ProjectID, &m.DeveloperID, &m.Title, &m.Description, &status, &m.Price, &m.DueDate); err != nil {
		return nil, err
	}
	var err error
	if m.Status, err = model.ParseMilestoneStatus(status); err != nil {
		return nil, apperr.SchemaViolation(fmt.Sprintf("milestone %d", m.ID), err)
	}
	return &m, nil
}

func (r *MilestoneRepository) Insert(ctx context.Context, m *model.Milestone) (err error) {
	defer observe("insert", "milestones", time.Now(), &err)

	r.logger.Debug("Inserting milestone",
		zap.Int64("project_id", m.ProjectID),
		zap.String("title", m.Title),
		zap.Float64("price", m.Price),
	)

	query := `
        INSERT INTO milestones (project_id, developer_id, title, description, status, price, due_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	err = r.db.QueryRow(ctx, query,
		m.ProjectID,
		m.DeveloperID,
		m.Title,
		m.Description,
		string(m.Status),
		m.Price,
		m.DueDate,
	).Scan(&m.ID)
	if err != nil {
		r.logger.Error("Failed to insert milestone", zap.Error(err))
		return err
	}

	r.logger.Info("Milestone inserted successfully", zap.Int64("id", m.ID), zap.Int64("project_id", m.ProjectID))
	return nil
}

func (r *MilestoneRepository) FindByID(ctx context.Context, id int64) (_ *model.Milestone, err error) {
	defer observe("find_by_id", "milestones", time.Now(), &err)

	query := `SELECT` + milestoneColumns + `
        FROM milestones
        WHERE id = $1`

	m, err := scanMilestone(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("milestone %d", id))
	}
	return m, nil
}

func (r *MilestoneRepository) ListByProject(ctx context.Context, projectID int64) (_ []model.Milestone, err error) {
	defer observe("list_by_project", "milestones", time.Now(), &err)

	query := `SELECT` + milestoneColumns + `
        FROM milestones
        WHERE project_id = $1
        ORDER BY due_date ASC NULLS LAST, id ASC`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	milestones := []model.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, *m)
	}
	return milestones, rows.Err()
}

func (r *MilestoneRepository) UpdateStatus(ctx context.Context, id int64, status model.MilestoneStatus) (_ *model.Milestone, err error) {
	defer observe("update_status", "milestones", time.Now(), &err)

	query := `UPDATE milestones SET status = $2
        WHERE id = $1
        RETURNING` + milestoneColumns

	m, err := scanMilestone(r.db.QueryRow(ctx, query, id, string(status)))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("milestone %d", id))
	}

	r.logger.Info("Milestone status updated", zap.Int64("id", id), zap.String("status", string(status)))
	return m, nil
}

func (r *MilestoneRepository) CountValidatedForClient(ctx context.Context, clientID string) (_ int, err error) {
	defer observe("count_validated_for_client", "milestones", time.Now(), &err)

	query := `
        SELECT COUNT(*)
        FROM milestones m
        JOIN projects p ON p.id = m.project_id
        WHERE p.client_id = $1 AND m.status = $2
    `
	var n int
	err = r.db.QueryRow(ctx, query, clientID, string(model.MilestoneValidated)).Scan(&n)
	return n, err
}
