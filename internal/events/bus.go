package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quoter-api/internal/obs"
)

// Event is one emitted domain event.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Topic       string          `json:"topic"`
	AggregateID uuid.UUID       `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// EventStore appends emitted events to a durable log.
type EventStore interface {
	Append(ctx context.Context, event Event) error
}

// Notifier reacts to emitted events (logging, metrics).
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// knownTopics guards Emit against typo'd topic strings; every emission must
// use one of the canonical topic constants.
var knownTopics = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, topic := range DefaultTopics() {
		m[topic] = struct{}{}
	}
	return m
}()

// Bus records domain events and fans them out to downstream handlers.
// Emission failures are reported but callers generally treat them as
// non-fatal: losing an event must never lose a quote.
type Bus struct {
	Store     EventStore
	Notifiers []Notifier
	Now       func() time.Time
}

// Emit records the event and dispatches it to all configured notifiers.
func (b *Bus) Emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) (Event, error) {
	if b == nil || b.Store == nil {
		return Event{}, errors.New("events: store not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Event{}, errors.New("events: topic is required")
	}
	if _, ok := knownTopics[topic]; !ok {
		return Event{}, fmt.Errorf("events: unknown topic %q", topic)
	}
	if aggregateID == uuid.Nil {
		return Event{}, errors.New("events: aggregate id is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return Event{}, fmt.Errorf("events: encode payload: %w", err)
	}
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	event := Event{
		ID:          uuid.New(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     encoded,
		OccurredAt:  now().UTC(),
	}
	if err := b.Store.Append(ctx, event); err != nil {
		return Event{}, fmt.Errorf("events: append event: %w", err)
	}
	var joined error
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if notifyErr := notifier.Notify(ctx, event); notifyErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", notifyErr))
		}
	}
	return event, joined
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch v := payload.(type) {
	case nil:
		return json.RawMessage("{}"), nil
	case json.RawMessage:
		if len(v) == 0 {
			return json.RawMessage("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("payload is not valid json")
		}
		return append(json.RawMessage(nil), v...), nil
	case []byte:
		return encodePayload(json.RawMessage(v))
	case string:
		return encodePayload(json.RawMessage(v))
	default:
		return json.Marshal(v)
	}
}

// StreamStore appends events to a capped Redis Stream.
type StreamStore struct {
	Client *redis.Client
	Stream string
	MaxLen int64
}

// Append implements EventStore via XADD with approximate trimming.
func (s StreamStore) Append(ctx context.Context, event Event) error {
	if s.Client == nil {
		return errors.New("events: redis client not configured")
	}
	stream := s.Stream
	if stream == "" {
		stream = "quoter:events"
	}
	args := &redis.XAddArgs{
		Stream: stream,
		Approx: true,
		Values: map[string]any{
			"id":           event.ID.String(),
			"topic":        event.Topic,
			"aggregate_id": event.AggregateID.String(),
			"payload":      string(event.Payload),
			"occurred_at":  event.OccurredAt.Format(time.RFC3339Nano),
		},
	}
	if s.MaxLen > 0 {
		args.MaxLen = s.MaxLen
	}
	return s.Client.XAdd(ctx, args).Err()
}

// LogNotifier writes emitted events to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Info().
		Str("event_id", event.ID.String()).
		Str("topic", event.Topic).
		Str("aggregate_id", event.AggregateID.String()).
		Msg("domain_event")
	return nil
}

// MetricsNotifier counts emitted events per topic.
type MetricsNotifier struct{}

// Notify implements Notifier.
func (MetricsNotifier) Notify(_ context.Context, event Event) error {
	if m := obs.Domain(); m != nil {
		m.EventsPublished.WithLabelValues(event.Topic).Inc()
	}
	return nil
}
