package library

import (
	"context"

	"github.com/google/uuid"
)

// DecisionRecorder observes authorization decisions
type DecisionRecorder interface {
	RecordDecision(action Action, decision Decision)
}

// Guard enforces Authorize for handlers and reports each decision
type Guard struct {
	logger   Logger
	recorder DecisionRecorder
	sink     ActivitySink
}

// GuardOption customizes a Guard
type GuardOption func(*Guard)

// WithGuardLogger sets the logger
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *Guard) {
		g.logger = normalizeLogger(logger)
	}
}

// WithDecisionRecorder sets the decision recorder, usually Metrics
func WithDecisionRecorder(r DecisionRecorder) GuardOption {
	return func(g *Guard) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithGuardActivitySink reports denials as activity events
func WithGuardActivitySink(sink ActivitySink) GuardOption {
	return func(g *Guard) {
		g.sink = normalizeActivitySink(sink)
	}
}

// NewGuard returns a Guard
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{
		logger:   defLogger{},
		recorder: noopRecorder{},
		sink:     noopActivitySink{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check returns ErrUnauthorizedAction when the table denies
func (g *Guard) Check(ctx context.Context, caller Caller, action Action, target Target) error {
	decision := Authorize(caller, action, target)
	g.recorder.RecordDecision(action, decision)

	if decision == Allow {
		return nil
	}

	g.logger.Debug("authorization denied",
		"action", string(action),
		"caller", caller.Kind.String(),
		"caller_id", caller.ID.String(),
	)

	emitActivity(ctx, g.sink, g.logger, ActivityEvent{
		EventType: ActivityEventAccessDenied,
		Actor:     caller.ActorRef(),
		SubjectID: targetString(target),
		Metadata:  map[string]any{"action": string(action)},
	})

	return ErrUnauthorizedAction
}

func targetString(t Target) string {
	if t.ID == uuid.Nil {
		return ""
	}
	return t.ID.String()
}

type noopRecorder struct{}

func (noopRecorder) RecordDecision(Action, Decision) {}
