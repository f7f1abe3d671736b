package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/omgmanu/lemme-predict-program/internal/settlement-worker/pubsub"
	"github.com/omgmanu/lemme-predict-program/pkg/contracts/events"
)

// Processor consome eventos game_settled do Kafka e repassa cada liquidação
// para o canal de broadcast no Redis Pub/Sub.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Processor struct {
	Log         *zap.Logger
	Reader      *kafka.Reader
	Broadcaster *pubsub.RedisBroadcaster
	Channel     string

	OnConsumed  func()       // métricas (counter++)
	OnBroadcast func()       // métricas
	OnError     func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e broadcast
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var ev events.GameSettled
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			continue
		}

		msg := pubsub.SettlementUpdate{GameID: ev.GameID, Player: ev.Player, Payload: ev}
		b, _ := json.Marshal(msg)

		pctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		err = p.Broadcaster.Publish(pctx, p.Channel, b)
		cancel()
		if err != nil {
			p.Log.Warn("broadcast publish failed", zap.Error(err), zap.Uint64("game_id", ev.GameID))
			if p.OnError != nil {
				p.OnError("broadcast")
			}
			continue
		}

		if p.OnBroadcast != nil {
			p.OnBroadcast()
		}
	}
}
