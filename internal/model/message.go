package model

import "time"

type ProjectChatMessage struct {
	ID           int64     `json:"id"`
	ProjectID    int64     `json:"project_id"`
	SenderID     string    `json:"sender_id"`
	Content      string    `json:"content"`
	IsFormalized bool      `json:"is_formalized"`
	CreatedAt    time.Time `json:"created_at"`
}

// MessageWithDetails is a message joined with its sender and project.
type MessageWithDetails struct {
	ProjectChatMessage
	SenderName   *string `json:"sender_name"`
	SenderAvatar *string `json:"sender_avatar"`
	ProjectTitle string  `json:"project_title"`
}
