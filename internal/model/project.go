package model

import "time"

type Project struct {
	ID                  int64         `json:"id"`
	ClientID            string        `json:"client_id"`
	ManagerID           *string       `json:"manager_id"`
	Title               string        `json:"title"`
	Description         *string       `json:"description"`
	ProjectType         ProjectType   `json:"project_type"`
	OnboardingCompleted bool          `json:"onboarding_completed"`
	Status              ProjectStatus `json:"status"`
	DepositType         *DepositType  `json:"deposit_type"`
	DepositValue        *float64      `json:"deposit_value"`
	DepositPaid         bool          `json:"deposit_paid"`
	FinalBalancePaid    bool          `json:"final_balance_paid"`
	PaymentMethodUsed   *string       `json:"payment_method_used"`
	CreatedAt           time.Time     `json:"created_at"`
	SubmittedAt         *time.Time    `json:"submitted_at"`
	StartedAt           *time.Time    `json:"started_at"`
	CompletedAt         *time.Time    `json:"completed_at"`
}

// ProjectWithTotals is the read-only projection of a project with the sum
// of its milestone prices, computed by the store on every read.
type ProjectWithTotals struct {
	Project
	TotalPrice float64 `json:"total_price"`
}

// NewProject is the input of single-step project creation.
type NewProject struct {
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	ProjectType ProjectType `json:"project_type"`
}

// ProjectUpdate is a partial project update; nil fields are left unchanged.
// Status is not part of it: status changes go through the lifecycle.
type ProjectUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`

	// Agency-side fields.
	ManagerID         *string      `json:"-"`
	DepositType       *DepositType `json:"-"`
	DepositValue      *float64     `json:"-"`
	DepositPaid       *bool        `json:"-"`
	FinalBalancePaid  *bool        `json:"-"`
	PaymentMethodUsed *string      `json:"-"`
}

// Empty reports whether u changes nothing.
func (u ProjectUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.ManagerID == nil &&
		u.DepositType == nil && u.DepositValue == nil && u.DepositPaid == nil &&
		u.FinalBalancePaid == nil && u.PaymentMethodUsed == nil
}

// StatusChange describes a status write with the timestamps it stamps.
type StatusChange struct {
	From        ProjectStatus
	To          ProjectStatus
	SubmittedAt *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}
