package library

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess      ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure      ActivityEventType = "auth.login.failure"
	ActivityEventAccountRegistered ActivityEventType = "account.registered"
	ActivityEventEmailConfirmed    ActivityEventType = "account.email.confirmed"
	ActivityEventEmailChanged      ActivityEventType = "account.email.changed"
	ActivityEventUsernameChanged   ActivityEventType = "account.username.changed"
	ActivityEventPasswordChanged   ActivityEventType = "account.password.changed"
	ActivityEventBanChanged        ActivityEventType = "account.ban.changed"
	ActivityEventAccountDeleted    ActivityEventType = "account.deleted"
	ActivityEventLibraryChanged    ActivityEventType = "account.library.changed"
	ActivityEventAdminCreated      ActivityEventType = "admin.created"
	ActivityEventAdminUpdated      ActivityEventType = "admin.updated"
	ActivityEventAdminDeleted      ActivityEventType = "admin.deleted"
	ActivityEventAccessDenied      ActivityEventType = "authz.denied"
)

// ActorRef identifies who/what triggered a change.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	SubjectID  string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// MultiActivitySink fans an event out to every sink. The first error wins
// but all sinks are called.
type MultiActivitySink []ActivitySink

// Record implements ActivitySink.
func (m MultiActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// emitActivity records best-effort; a failing sink never fails the caller
func emitActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := sink.Record(ctx, event); err != nil {
		logger.Warn("activity sink error", "event", string(event.EventType), "error", err)
	}
}
