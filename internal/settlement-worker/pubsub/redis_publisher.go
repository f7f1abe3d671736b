package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const ChannelGameSettledBroadcast = "game_settled_broadcast"

type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}

// Payload padrão para consumidores push (front-ends acompanhando liquidações)
type SettlementUpdate struct {
	GameID  uint64      `json:"gameId"`
	Player  string      `json:"player"`
	Payload interface{} `json:"payload"`
}
