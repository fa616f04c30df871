// Package events publishes project lifecycle events after the database
// write that caused them has succeeded.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dgtech/internal/model"
	"dgtech/pkg/circuitbreaker"
	"dgtech/pkg/logger"
	"dgtech/pkg/metrics"
	"dgtech/pkg/trace"
)

// Routing keys on the events exchange.
const (
	DraftCreated        = "project.draft_created"
	OnboardingCompleted = "project.onboarding_completed"
	ProjectCreated      = "project.created"
	ProjectSubmitted    = "project.submitted"
	StatusChanged       = "project.status_changed"
	ProjectDeleted      = "project.deleted"
)

// Publisher sends a JSON payload under a routing key. *mq.Publisher
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// ProjectEvent is the payload of every lifecycle event.
type ProjectEvent struct {
	Type       string              `json:"type"`
	ProjectID  int64               `json:"project_id"`
	ClientID   string              `json:"client_id"`
	From       model.ProjectStatus `json:"from,omitempty"`
	To         model.ProjectStatus `json:"to,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
	TraceID    string              `json:"trace_id,omitempty"`
}

// Emitter publishes lifecycle events fire-and-log: a failed publish is
// logged and counted, never returned to the caller.
type Emitter struct {
	pub    Publisher
	logger *zap.Logger
}

func NewEmitter(pub Publisher, logger *zap.Logger) *Emitter {
	return &Emitter{pub: pub, logger: logger}
}

// Emit publishes an event of the given type about p.
func (e *Emitter) Emit(ctx context.Context, eventType string, p model.Project, from, to model.ProjectStatus) {
	if e == nil || e.pub == nil {
		return
	}
	ev := ProjectEvent{
		Type:       eventType,
		ProjectID:  p.ID,
		ClientID:   p.ClientID,
		From:       from,
		To:         to,
		OccurredAt: time.Now().UTC(),
		TraceID:    trace.FromContext(ctx),
	}
	if err := e.pub.Publish(ctx, eventType, ev); err != nil {
		metrics.IncrementEventPublish(eventType, "failed")
		logger.WithTrace(ctx, e.logger).Warn("Failed to publish project event",
			zap.String("routing_key", eventType),
			zap.Int64("project_id", p.ID),
			zap.Error(err),
		)
		return
	}
	metrics.IncrementEventPublish(eventType, "success")
}

// GuardedPublisher fails fast with circuitbreaker.ErrOpen while the broker
// keeps failing, so lifecycle writes do not wait on a dead broker.
type GuardedPublisher struct {
	pub     Publisher
	breaker *circuitbreaker.Breaker
}

func Guard(pub Publisher, breaker *circuitbreaker.Breaker) *GuardedPublisher {
	return &GuardedPublisher{pub: pub, breaker: breaker}
}

func (g *GuardedPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	return g.breaker.Do(func() error {
		return g.pub.Publish(ctx, routingKey, payload)
	})
}

// LogPublisher logs events instead of sending them. It is used when no
// broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	logger.WithTrace(ctx, p.logger).Debug("Project event", zap.String("routing_key", routingKey), zap.Any("payload", payload))
	return nil
}
