package events

import "context"

// Publisher is the outbound boundary to the messaging collaborator.
// Publication failures never roll back the store write that triggered them;
// callers log and move on, redelivery is the consumer side's problem.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close() error
}

// NopPublisher drops every event. Used when AMQP_URL is not configured and
// in tests that do not assert on publishing.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, eventType string, payload any) error { return nil }

func (NopPublisher) Close() error { return nil }
