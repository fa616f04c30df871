package repository

import (
	"context"
	"fmt"
	"time"

	"dgtech/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const deliverableDetailsQuery = `
        SELECT d.id, d.milestone_id, d.uploader_id, d.file_url, d.description, d.created_at,
               m.title, p.id, p.title
        FROM deliverables d
        JOIN milestones m ON m.id = d.milestone_id
        JOIN projects p ON p.id = m.project_id`

type DeliverableRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDeliverableRepository(db *pgxpool.Pool, logger *zap.Logger) *DeliverableRepository {
	return &DeliverableRepository{db: db, logger: logger}
}

func scanDeliverable(row rowScanner) (*model.DeliverableWithDetails, error) {
	var d model.DeliverableWithDetails
	err := row.Scan(
		&d.ID, &d.MilestoneID, &d.UploaderID, &d.FileURL, &d.Description, &d.CreatedAt,
		&d.MilestoneTitle, &d.ProjectID, &d.ProjectTitle,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DeliverableRepository) Insert(ctx context.Context, d *model.Deliverable) (err error) {
	defer observe("insert", "deliverables", time.Now(), &err)

	r.logger.Debug("Inserting deliverable",
		zap.Int64("milestone_id", d.MilestoneID),
		zap.String("file_url", d.FileURL),
	)

	query := `
        INSERT INTO deliverables (milestone_id, uploader_id, file_url, description)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err = r.db.QueryRow(ctx, query, d.MilestoneID, d.UploaderID, d.FileURL, d.Description).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert deliverable", zap.Error(err))
		return err
	}

	r.logger.Info("Deliverable inserted successfully", zap.Int64("id", d.ID))
	return nil
}

func (r *DeliverableRepository) FindByID(ctx context.Context, id int64) (_ *model.DeliverableWithDetails, err error) {
	defer observe("find_by_id", "deliverables", time.Now(), &err)

	d, err := scanDeliverable(r.db.QueryRow(ctx, deliverableDetailsQuery+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("deliverable %d", id))
	}
	return d, nil
}

func (r *DeliverableRepository) RecentForClient(ctx context.Context, clientID string, limit int) (_ []model.DeliverableWithDetails, err error) {
	defer observe("recent_for_client", "deliverables", time.Now(), &err)

	query := deliverableDetailsQuery + `
        WHERE p.client_id = $1
        ORDER BY d.created_at DESC, d.id DESC
        LIMIT $2`

	rows, err := r.db.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deliverables := []model.DeliverableWithDetails{}
	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, err
		}
		deliverables = append(deliverables, *d)
	}
	return deliverables, rows.Err()
}

func (r *DeliverableRepository) CountForClient(ctx context.Context, clientID string) (_ int, err error) {
	defer observe("count_for_client", "deliverables", time.Now(), &err)

	query := `
        SELECT COUNT(*)
        FROM deliverables d
        JOIN milestones m ON m.id = d.milestone_id
        JOIN projects p ON p.id = m.project_id
        WHERE p.client_id = $1
    `
	var n int
	err = r.db.QueryRow(ctx, query, clientID).Scan(&n)
	return n, err
}
