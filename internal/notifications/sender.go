package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// Email is the job published for the mail worker.
type Email struct {
	From     string    `json:"from"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	HTML     string    `json:"html"`
	Text     string    `json:"text,omitempty"`
	Template Template  `json:"template"`
	QueuedAt time.Time `json:"queued_at"`
}

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) publishResult
}

// PubSubSender publishes email jobs to a topic.
type PubSubSender struct {
	publisher publisher
}

func NewPubSubSender(p *pubsub.Publisher) (*PubSubSender, error) {
	if p == nil {
		return nil, errors.New("notification publisher required")
	}
	return &PubSubSender{publisher: gcpPublisher{p}}, nil
}

func (s *PubSubSender) Send(ctx context.Context, email Email) error {
	if strings.TrimSpace(email.To) == "" {
		return errors.New("email recipient required")
	}
	data, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	result := s.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"template": string(email.Template),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish email job: %w", err)
	}
	return nil
}

type gcpPublisher struct {
	*pubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	return p.Publisher.Publish(ctx, msg)
}
