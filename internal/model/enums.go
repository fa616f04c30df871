package model

import "dgtech/internal/apperr"

// Role of a profile.
type Role string

const (
	RoleClient    Role = "client"
	RoleManager   Role = "manager"
	RoleDeveloper Role = "developer"
)

var roles = []Role{RoleClient, RoleManager, RoleDeveloper}

func (r Role) Valid() bool { return contains(roles, r) }

// ParseRole returns the Role for s or a validation error.
func ParseRole(s string) (Role, error) {
	return parse(roles, "role", s)
}

// ProjectType classifies a project at onboarding step 1.
type ProjectType string

const (
	ProjectTypeAcademic ProjectType = "ACADEMIC"
	ProjectTypeClient   ProjectType = "CLIENT"
	ProjectTypePersonal ProjectType = "PERSONAL"
)

var projectTypes = []ProjectType{ProjectTypeAcademic, ProjectTypeClient, ProjectTypePersonal}

func (t ProjectType) Valid() bool { return contains(projectTypes, t) }

func ParseProjectType(s string) (ProjectType, error) {
	return parse(projectTypes, "project_type", s)
}

// ProjectStatus is a project's position in the lifecycle. The order of
// projectStatuses is the progression order.
type ProjectStatus string

const (
	StatusDraft          ProjectStatus = "BROUILLON"
	StatusSubmitted      ProjectStatus = "SOUMIS"
	StatusQuoting        ProjectStatus = "CHIFFRAGE"
	StatusNegotiating    ProjectStatus = "EN_NEGOCIATION"
	StatusPendingPayment ProjectStatus = "EN_ATTENTE_PAIEMENT"
	StatusActive         ProjectStatus = "ACTIF"
	StatusPaused         ProjectStatus = "EN_PAUSE"
	StatusCompleted      ProjectStatus = "TERMINÉ"
	StatusWarranty       ProjectStatus = "EN_GARANTIE"
	StatusCancelled      ProjectStatus = "ANNULÉ"
)

var projectStatuses = []ProjectStatus{
	StatusDraft,
	StatusSubmitted,
	StatusQuoting,
	StatusNegotiating,
	StatusPendingPayment,
	StatusActive,
	StatusPaused,
	StatusCompleted,
	StatusWarranty,
	StatusCancelled,
}

func (s ProjectStatus) Valid() bool { return contains(projectStatuses, s) }

// Rank is the position of s in the progression, -1 when unknown.
func (s ProjectStatus) Rank() int {
	for i, v := range projectStatuses {
		if v == s {
			return i
		}
	}
	return -1
}

func ParseProjectStatus(s string) (ProjectStatus, error) {
	return parse(projectStatuses, "status", s)
}

// ProjectStatuses returns the vocabulary in progression order.
func ProjectStatuses() []ProjectStatus {
	out := make([]ProjectStatus, len(projectStatuses))
	copy(out, projectStatuses)
	return out
}

// MilestoneStatus is the workflow state of a milestone.
type MilestoneStatus string

const (
	MilestoneTodo       MilestoneStatus = "A_FAIRE"
	MilestoneInProgress MilestoneStatus = "EN_COURS"
	MilestoneBlocked    MilestoneStatus = "BLOQUE"
	MilestoneInReview   MilestoneStatus = "EN_REVUE"
	MilestoneInRework   MilestoneStatus = "EN_CORRECTION"
	MilestoneValidated  MilestoneStatus = "VALIDÉ"
)

var milestoneStatuses = []MilestoneStatus{
	MilestoneTodo,
	MilestoneInProgress,
	MilestoneBlocked,
	MilestoneInReview,
	MilestoneInRework,
	MilestoneValidated,
}

func (s MilestoneStatus) Valid() bool { return contains(milestoneStatuses, s) }

func ParseMilestoneStatus(s string) (MilestoneStatus, error) {
	return parse(milestoneStatuses, "milestone_status", s)
}

// DepositType says how deposit_value is read.
type DepositType string

const (
	DepositPercentage DepositType = "percentage"
	DepositFixed      DepositType = "fixed"
)

var depositTypes = []DepositType{DepositPercentage, DepositFixed}

func (d DepositType) Valid() bool { return contains(depositTypes, d) }

func ParseDepositType(s string) (DepositType, error) {
	return parse(depositTypes, "deposit_type", s)
}

func contains[T ~string](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func parse[T ~string](set []T, field, s string) (T, error) {
	v := T(s)
	if !contains(set, v) {
		var zero T
		return zero, apperr.Validation(field, s, "not in vocabulary")
	}
	return v, nil
}
