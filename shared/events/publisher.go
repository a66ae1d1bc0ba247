package events

import (
	"context"
	"log/slog"
	"sync"
)

// Publisher delivers an event payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

type logPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher writes every event as a structured log record.
func NewLogPublisher(logger *slog.Logger) Publisher {
	return &logPublisher{logger: logger}
}

func (p *logPublisher) Publish(ctx context.Context, topic string, payload any) error {
	p.logger.InfoContext(ctx, "event published", slog.String("topic", topic), slog.Any("payload", payload))
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

// Recorded is a single captured publication.
type Recorded struct {
	Topic   string
	Payload any
}

func (r *Recorder) Publish(_ context.Context, topic string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Topic: topic, Payload: payload})
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}
