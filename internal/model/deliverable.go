package model

import "time"

type Deliverable struct {
	ID          int64     `json:"id"`
	MilestoneID int64     `json:"milestone_id"`
	UploaderID  string    `json:"uploader_id"`
	FileURL     string    `json:"file_url"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeliverableWithDetails is a deliverable joined with its milestone and
// project titles.
type DeliverableWithDetails struct {
	Deliverable
	MilestoneTitle string `json:"milestone_title"`
	ProjectID      int64  `json:"project_id"`
	ProjectTitle   string `json:"project_title"`
}
