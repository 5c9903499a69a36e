package main

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-engine/internal/challenge"
	"github.com/radieske/wager-engine/internal/ledger"
	"github.com/radieske/wager-engine/internal/match"
	"github.com/radieske/wager-engine/internal/producer"
	"github.com/radieske/wager-engine/internal/settlement"
	"github.com/radieske/wager-engine/internal/shared/config"
	"github.com/radieske/wager-engine/internal/shared/db"
	"github.com/radieske/wager-engine/internal/shared/kafka"
	"github.com/radieske/wager-engine/internal/shared/logger"
	"github.com/radieske/wager-engine/internal/shared/metrics"
	"github.com/radieske/wager-engine/internal/tournament"
	"github.com/radieske/wager-engine/internal/wager"
	ev "github.com/radieske/wager-engine/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: eventos settlement_due disparados pelas transições terminais
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicSettlementDue, "settlement-worker")
	defer reader.Close()

	completedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettlementCompleted)
	defer completedWriter.Close()

	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettlementDueDLQ)
	defer dlqWriter.Close()

	publ := &producer.KafkaPublisher{CompletedWriter: completedWriter}

	coordinator := settlement.NewCoordinator(log,
		ledger.NewPostgres(pg),
		match.NewPostgres(pg),
		wager.NewPostgres(pg),
		challenge.NewPostgres(pg),
		tournament.NewPostgres(pg),
		nil, // política de payout default: 50/30/resto retido
	)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicSettlementDue),
		zap.String("publish", cfg.TopicSettlementCompleted),
	)

	ctx := context.Background()

	// Loop principal: consome eventos terminais e executa a varredura de liquidação
	for {
		_, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var due ev.SettlementDue
		if jerr := json.Unmarshal(value, &due); jerr != nil {
			log.Error("unmarshal settlement_due", zap.Error(jerr))
			continue
		}

		if err := processOne(ctx, log, coordinator, publ, dlqWriter, &due); err != nil {
			log.Error("settle", zap.String("kind", due.Kind), zap.String("id", due.ID), zap.Error(err))
			// Backoff simples para evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// processOne executa a liquidação de uma entidade terminal:
// 1. Roda a varredura do coordenador (idempotente; re-entrega é segura)
// 2. Em falha persistente, manda o evento pra DLQ
// 3. Publica settlement_completed com o resumo
func processOne(
	ctx context.Context,
	log *zap.Logger,
	coordinator *settlement.Coordinator,
	publ *producer.KafkaPublisher,
	dlqWriter *kafka.Writer,
	due *ev.SettlementDue,
) error {
	sum, err := coordinator.OnTerminalState(ctx, due.Kind, due.ID)
	if err != nil {
		// Retry simples: varreduras parciais são retomáveis
		const retries = 3
		for i := 0; i < retries; i++ {
			time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
			if sum, err = coordinator.OnTerminalState(ctx, due.Kind, due.ID); err == nil {
				break
			}
		}
		if err != nil {
			b, _ := json.Marshal(due)
			_ = kafka.WriteJSON(ctx, dlqWriter, due.Kind+":"+due.ID, b)
			return err
		}
	}

	return publ.SettlementCompleted(ctx, ev.SettlementCompleted{
		Kind:           due.Kind,
		ID:             due.ID,
		RecordsSettled: sum.RecordsSettled,
		PaidOutCents:   sum.PaidOutCents,
	})
}
