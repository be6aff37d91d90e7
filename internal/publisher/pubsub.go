package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
)

// PubSub publishes run summaries to a Google Cloud Pub/Sub topic.
type PubSub struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
}

// NewPubSub connects to the project and prepares the topic publisher.
func NewPubSub(ctx context.Context, projectID, topic string) (*PubSub, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub project id is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("pubsub topic is required")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &PubSub{client: client, publisher: client.Publisher(topic)}, nil
}

// Publish sends the payload as a JSON message and returns the
// server-assigned message ID.
func (p *PubSub) Publish(ctx context.Context, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Close flushes pending messages and releases the client.
func (p *PubSub) Close(context.Context) error {
	p.publisher.Stop()
	return p.client.Close()
}
