package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

// AuctionChannel is the pub/sub channel carrying every event of one auction
func AuctionChannel(auctionID uuid.UUID) string {
	return fmt.Sprintf("auction:%s:events", auctionID)
}

// UserChannel is the pub/sub channel of one user's notifications
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:notifications", userID)
}

// RedisNotifier publishes events as JSON on Redis pub/sub channels so other
// instances and downstream consumers can pick them up.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Notify(ctx context.Context, userID uuid.UUID, _ domain.EventType, payload domain.Event) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("redis notifier: marshal event %s: %w", payload.ID, err)
	}
	err = multierr.Append(
		n.client.Publish(ctx, UserChannel(userID), string(data)).Err(),
		n.client.Publish(ctx, AuctionChannel(payload.AuctionID), string(data)).Err(),
	)
	if err != nil {
		return fmt.Errorf("redis notifier: publish event %s: %w", payload.ID, err)
	}
	return nil
}
