// Package publisher announces run summaries to downstream consumers.
package publisher

import (
	"context"
	"fmt"
	"sync"
)

// Publisher delivers one JSON payload per completed run.
type Publisher interface {
	Publish(ctx context.Context, payload any) (string, error)
	Close(ctx context.Context) error
}

// Config selects and configures a publisher.
type Config struct {
	Provider  string
	ProjectID string
	Topic     string
}

// New builds the configured publisher. The "none" provider drops payloads.
func New(ctx context.Context, cfg Config) (Publisher, error) {
	switch cfg.Provider {
	case "", "none":
		return Noop{}, nil
	case "pubsub":
		return NewPubSub(ctx, cfg.ProjectID, cfg.Topic)
	default:
		return nil, fmt.Errorf("unknown publisher provider %q", cfg.Provider)
	}
}

// Noop drops payloads. Used when announcing is disabled.
type Noop struct{}

func (Noop) Publish(context.Context, any) (string, error) { return "", nil }

func (Noop) Close(context.Context) error { return nil }

// Memory stores published payloads for inspection in tests.
type Memory struct {
	mu       sync.RWMutex
	payloads []any
}

func NewMemory() *Memory { return &Memory{} }

// Publish records the payload and returns a pseudo ID.
func (m *Memory) Publish(_ context.Context, payload any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	return fmt.Sprintf("memory-%d", len(m.payloads)), nil
}

// Payloads returns the recorded publishes.
func (m *Memory) Payloads() []any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]any, len(m.payloads))
	copy(out, m.payloads)
	return out
}

func (m *Memory) Close(context.Context) error { return nil }
