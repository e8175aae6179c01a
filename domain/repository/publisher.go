//go:generate go run go.uber.org/mock/mockgen -source=publisher.go -destination=../../mocks/mock_publisher.go -package=mocks
package repository

import "context"

// Publisher emits realtime events to everyone listening on a channel. The
// channel is the room id.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}
