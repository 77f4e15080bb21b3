// Package activitymap flattens library activity events into a record shape
// log pipelines and audit stores can consume without importing the
// library types.
package activitymap

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	library "github.com/goliatone/go-library"
)

// MetadataKeyActorType stores the actor type when the event metadata lacks it
const MetadataKeyActorType = "actor_type"

const (
	defaultChannel = "library"
	anonymousActor = "anonymous"
)

// Normalized is a transport-agnostic activity record
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel string
	now     func() time.Time
}

// WithChannel overrides the channel, "library" by default
func WithChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithClock sets the clock used for events without a timestamp
func WithClock(now func() time.Time) Option {
	return func(opts *normalizeOptions) {
		if now != nil {
			opts.now = now
		}
	}
}

// Normalize converts an event. The object type is the first segment of the
// event type: "account", "admin", "auth" or "authz".
func Normalize(event library.ActivityEvent, opts ...Option) Normalized {
	options := normalizeOptions{channel: defaultChannel, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	actorID := strings.TrimSpace(event.Actor.ID)
	if actorID == "" {
		actorID = anonymousActor
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = options.now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: objectType(event.EventType),
		ObjectID:   strings.TrimSpace(event.SubjectID),
		Channel:    options.channel,
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

func objectType(t library.ActivityEventType) string {
	verb := string(t)
	if i := strings.IndexByte(verb, '.'); i > 0 {
		return verb[:i]
	}
	return verb
}

func normalizeMetadata(event library.ActivityEvent) map[string]any {
	metadata := cloneMap(event.Metadata)

	if actorType := strings.TrimSpace(event.Actor.Type); actorType != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[MetadataKeyActorType]; !exists {
			metadata[MetadataKeyActorType] = actorType
		}
	}
	return metadata
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

// LogrusSink writes every event as one structured log line
func LogrusSink(entry *logrus.Entry, opts ...Option) library.ActivitySink {
	return library.ActivitySinkFunc(func(_ context.Context, event library.ActivityEvent) error {
		n := Normalize(event, opts...)
		fields := logrus.Fields{
			"actor_id":    n.ActorID,
			"verb":        n.Verb,
			"object_type": n.ObjectType,
			"channel":     n.Channel,
			"occurred_at": n.OccurredAt.Format(time.RFC3339),
		}
		if n.ObjectID != "" {
			fields["object_id"] = n.ObjectID
		}
		for k, v := range n.Metadata {
			fields["meta_"+k] = v
		}
		entry.WithFields(fields).Info("activity")
		return nil
	})
}
