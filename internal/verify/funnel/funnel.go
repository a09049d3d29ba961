// Package funnel publishes per-attempt cost and conversion accounting
// events. Recording is fire-and-forget: a lost event skews a report, it
// must never fail or delay a verification attempt.
package funnel

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"docauth/pkg/requestcontext"
)

const defaultTopic = "docauth.verify.funnel"

// Publisher is the subset of the platform Kafka producer used here.
type Publisher interface {
	ProduceAsync(ctx context.Context, msg *Message)
}

// Message mirrors the platform producer's message shape so this package
// does not import it directly. cmd/server adapts between the two.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Event is one funnel chain record: a single attempt, its step, and how it
// ended.
type Event struct {
	Subject    string    `json:"subject"`
	Step       string    `json:"step"`
	Outcome    string    `json:"outcome"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Recorder implements ports.FunnelRecorder on a Kafka publisher.
type Recorder struct {
	publisher Publisher
	topic     string
	logger    *slog.Logger
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithTopic overrides the destination topic.
func WithTopic(topic string) Option {
	return func(r *Recorder) {
		r.topic = topic
	}
}

// New creates a funnel recorder. A nil publisher yields a recorder that
// drops every event, which keeps call sites unconditional.
func New(publisher Publisher, opts ...Option) *Recorder {
	r := &Recorder{publisher: publisher, topic: defaultTopic}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record implements ports.FunnelRecorder.
func (r *Recorder) Record(ctx context.Context, subject, step, outcome string) {
	if r.publisher == nil {
		return
	}

	event := Event{
		Subject:    subject,
		Step:       step,
		Outcome:    outcome,
		OccurredAt: requestcontext.Now(ctx),
	}
	value, err := json.Marshal(event)
	if err != nil {
		if r.logger != nil {
			r.logger.WarnContext(ctx, "failed to encode funnel event", "error", err)
		}
		return
	}

	r.publisher.ProduceAsync(ctx, &Message{
		Topic: r.topic,
		Key:   []byte(subject),
		Value: value,
	})
}
