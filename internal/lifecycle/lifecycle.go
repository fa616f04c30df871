// Package lifecycle holds the project status graph and the guards on its
// transitions.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
)

// edges lists the legal forward transitions. Cancellation is handled
// separately: it is legal from every state ranked before TERMINÉ.
var edges = map[model.ProjectStatus][]model.ProjectStatus{
	model.StatusDraft:          {model.StatusSubmitted},
	model.StatusSubmitted:      {model.StatusQuoting},
	model.StatusQuoting:        {model.StatusNegotiating},
	model.StatusNegotiating:    {model.StatusPendingPayment},
	model.StatusPendingPayment: {model.StatusActive},
	model.StatusActive:         {model.StatusPaused, model.StatusCompleted},
	model.StatusPaused:         {model.StatusActive},
	model.StatusCompleted:      {model.StatusWarranty},
}

// IsTerminal reports whether s closes the project.
func IsTerminal(s model.ProjectStatus) bool {
	switch s {
	case model.StatusCompleted, model.StatusWarranty, model.StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether from -> to is an edge of the graph.
func CanTransition(from, to model.ProjectStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if to == model.StatusCancelled {
		return from.Rank() < model.StatusCompleted.Rank()
	}
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next returns the statuses reachable from s in one step.
func Next(s model.ProjectStatus) []model.ProjectStatus {
	out := append([]model.ProjectStatus(nil), edges[s]...)
	if s.Valid() && s.Rank() < model.StatusCompleted.Rank() {
		out = append(out, model.StatusCancelled)
	}
	return out
}

// Plan validates moving p to status `to` and returns the change to persist,
// including the lifecycle timestamps the transition stamps.
func Plan(p model.Project, to model.ProjectStatus, now time.Time) (model.StatusChange, error) {
	if !to.Valid() {
		return model.StatusChange{}, apperr.Validation("status", string(to), "not in vocabulary")
	}
	if !CanTransition(p.Status, to) {
		return model.StatusChange{}, apperr.Validation("status", string(to), rejection(p.Status, to))
	}

	change := model.StatusChange{From: p.Status, To: to}
	switch to {
	case model.StatusSubmitted:
		if !p.OnboardingCompleted {
			return model.StatusChange{}, apperr.Validation("status", string(to), "onboarding is not completed")
		}
		change.SubmittedAt = &now
	case model.StatusActive:
		if p.StartedAt == nil {
			change.StartedAt = &now
		}
	case model.StatusCompleted:
		change.CompletedAt = &now
	}
	return change, nil
}

// rejection explains a refused move and names the legal ones.
func rejection(from, to model.ProjectStatus) string {
	next := Next(from)
	if len(next) == 0 {
		return fmt.Sprintf("transition %s -> %s is not allowed: %s is final", from, to, from)
	}
	names := make([]string, len(next))
	for i, s := range next {
		names[i] = string(s)
	}
	return fmt.Sprintf("transition %s -> %s is not allowed, expected one of %s", from, to, strings.Join(names, ", "))
}

// StatusInfo is one row of the lifecycle table.
type StatusInfo struct {
	Status   model.ProjectStatus   `json:"status"`
	Terminal bool                  `json:"terminal"`
	Next     []model.ProjectStatus `json:"next"`
}

// Table describes every status in progression order.
func Table() []StatusInfo {
	statuses := model.ProjectStatuses()
	out := make([]StatusInfo, len(statuses))
	for i, s := range statuses {
		out[i] = StatusInfo{Status: s, Terminal: IsTerminal(s), Next: Next(s)}
	}
	return out
}

// CanDelete reports whether p may be hard-deleted: only drafts can.
func CanDelete(p model.Project) error {
	if p.Status != model.StatusDraft {
		return apperr.Validation("status", string(p.Status), "only draft projects can be deleted")
	}
	return nil
}
