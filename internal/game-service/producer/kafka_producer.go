package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/omgmanu/lemme-predict-program/pkg/contracts/events"
)

// KafkaPublisher emite os eventos do ciclo de vida dos jogos.
// Writers separados porque cada tópico tem o seu.
type KafkaPublisher struct {
	Created *kafka.Writer
	Settled *kafka.Writer
}

func NewKafkaPublisher(created, settled *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Created: created, Settled: settled}
}

func (p *KafkaPublisher) PublishGameCreated(ctx context.Context, e events.GameCreated) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.Created.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(e.GameID, 10)),
		Value: b,
	})
}

func (p *KafkaPublisher) PublishGameSettled(ctx context.Context, e events.GameSettled) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.Settled.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(e.GameID, 10)),
		Value: b,
	})
}
