package repository

import (
	"context"
	"time"

	"dgtech/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type MessageRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMessageRepository(db *pgxpool.Pool, logger *zap.Logger) *MessageRepository {
	return &MessageRepository{db: db, logger: logger}
}

func (r *MessageRepository) Insert(ctx context.Context, m *model.ProjectChatMessage) (err error) {
	defer observe("insert", "project_chat_messages", time.Now(), &err)

	query := `
        INSERT INTO project_chat_messages (project_id, sender_id, content, is_formalized)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err = r.db.QueryRow(ctx, query, m.ProjectID, m.SenderID, m.Content, m.IsFormalized).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert message", zap.Int64("project_id", m.ProjectID), zap.Error(err))
		return err
	}
	return nil
}

func (r *MessageRepository) ListByProject(ctx context.Context, projectID int64) (_ []model.ProjectChatMessage, err error) {
	defer observe("list_by_project", "project_chat_messages", time.Now(), &err)

	query := `
        SELECT id, project_id, sender_id, content, is_formalized, created_at
        FROM project_chat_messages
        WHERE project_id = $1
        ORDER BY created_at ASC, id ASC
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.ProjectChatMessage{}
	for rows.Next() {
		var m model.ProjectChatMessage
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.SenderID, &m.Content, &m.IsFormalized, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) RecentReceived(ctx context.Context, clientID string, limit int) (_ []model.MessageWithDetails, err error) {
	defer observe("recent_received", "project_chat_messages", time.Now(), &err)

	query := `
        SELECT m.id, m.project_id, m.sender_id, m.content, m.is_formalized, m.created_at,
               s.full_name, s.avatar_url, p.title
        FROM project_chat_messages m
        JOIN projects p ON p.id = m.project_id
        LEFT JOIN profiles s ON s.id = m.sender_id
        WHERE p.client_id = $1 AND m.sender_id <> $1
        ORDER BY m.created_at DESC, m.id DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.MessageWithDetails{}
	for rows.Next() {
		var m model.MessageWithDetails
		if err := rows.Scan(
			&m.ID, &m.ProjectID, &m.SenderID, &m.Content, &m.IsFormalized, &m.CreatedAt,
			&m.SenderName, &m.SenderAvatar, &m.ProjectTitle,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) CountReceivedSince(ctx context.Context, clientID string, since time.Time) (_ int, err error) {
	defer observe("count_received_since", "project_chat_messages", time.Now(), &err)

	query := `
        SELECT COUNT(*)
        FROM project_chat_messages m
        JOIN projects p ON p.id = m.project_id
        WHERE p.client_id = $1 AND m.sender_id <> $1 AND m.created_at >= $2
    `
	var n int
	err = r.db.QueryRow(ctx, query, clientID, since).Scan(&n)
	return n, err
}
