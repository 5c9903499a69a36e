package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/wager-engine/pkg/contracts/events"
)

// KafkaPublisher publica os eventos do motor. Um writer por tópico.
type KafkaPublisher struct {
	DueWriter       *kafka.Writer
	WagerWriter     *kafka.Writer
	CompletedWriter *kafka.Writer
}

// SettlementDue é publicado DEPOIS da transição terminal estar durável no store;
// é isso que garante a ordem transição→liquidação.
func (p *KafkaPublisher) SettlementDue(ctx context.Context, kind, id string) error {
	e := events.SettlementDue{Kind: kind, ID: id, TsUnixMs: time.Now().UnixMilli()}
	b, _ := json.Marshal(e)
	return p.DueWriter.WriteMessages(ctx, kafka.Message{Key: []byte(kind + ":" + id), Value: b})
}

func (p *KafkaPublisher) WagerPlaced(ctx context.Context, e events.WagerPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.WagerWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.WagerID), Value: b})
}

func (p *KafkaPublisher) SettlementCompleted(ctx context.Context, e events.SettlementCompleted) error {
	e.Ts = time.Now()
	b, _ := json.Marshal(e)
	return p.CompletedWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.Kind + ":" + e.ID), Value: b})
}
