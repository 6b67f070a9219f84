package redis

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"quiztians/internal/domain"
)

const changeChannel = "results:changes"

// ChangeFeed carries result change events over Redis pub/sub so ranking
// views on any node refresh when a result lands anywhere.
type ChangeFeed struct {
	client *redis.Client
}

func NewChangeFeed(client *redis.Client) *ChangeFeed {
	return &ChangeFeed{client: client}
}

// Publish announces a newly inserted result. Best effort: viewers that
// miss an event still converge on their next full query.
func (f *ChangeFeed) Publish(ctx context.Context, event domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, changeChannel, payload).Err()
}

// Subscribe returns a channel of change events. The returned cancel
// function closes the underlying subscription.
func (f *ChangeFeed) Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, func(), error) {
	sub := f.client.Subscribe(ctx, changeChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	events := make(chan domain.ChangeEvent, 8)
	go func() {
		defer close(events)
		for msg := range sub.Channel() {
			var event domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("change feed: bad payload: %v", err)
				continue
			}
			select {
			case events <- event:
			default:
				// Drop the oldest pending event rather than stall the reader.
				select {
				case <-events:
				default:
				}
				events <- event
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return events, cancel, nil
}
