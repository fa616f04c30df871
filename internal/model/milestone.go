package model

import "time"

type Milestone struct {
	ID          int64           `json:"id"`
	ProjectID   int64           `json:"project_id"`
	DeveloperID *string         `json:"developer_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Status      MilestoneStatus `json:"status"`
	Price       float64         `json:"price"`
	DueDate     *time.Time      `json:"due_date"`
}
