package rabbitmq

import "context"

// PublisherInterface lets services publish events without knowing about the
// broker; tests substitute a mock.
type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

var _ PublisherInterface = (*Publisher)(nil)