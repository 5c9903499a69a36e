package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	ehttp "github.com/radieske/wager-engine/internal/api/http"
	"github.com/radieske/wager-engine/internal/challenge"
	"github.com/radieske/wager-engine/internal/ledger"
	"github.com/radieske/wager-engine/internal/match"
	"github.com/radieske/wager-engine/internal/odds"
	"github.com/radieske/wager-engine/internal/producer"
	"github.com/radieske/wager-engine/internal/settlement"
	"github.com/radieske/wager-engine/internal/shared/cache"
	"github.com/radieske/wager-engine/internal/shared/config"
	"github.com/radieske/wager-engine/internal/shared/db"
	"github.com/radieske/wager-engine/internal/shared/kafka"
	"github.com/radieske/wager-engine/internal/shared/logger"
	"github.com/radieske/wager-engine/internal/shared/metrics"
	"github.com/radieske/wager-engine/internal/tournament"
	"github.com/radieske/wager-engine/internal/wager"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis (cache de odds do feed externo)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}

	// Kafka writers
	dueWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettlementDue)
	defer dueWriter.Close()
	wagerWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerPlaced)
	defer wagerWriter.Close()

	publ := &producer.KafkaPublisher{DueWriter: dueWriter, WagerWriter: wagerWriter}

	// stores
	accounts := ledger.NewPostgres(pg)
	matches := match.NewPostgres(pg)
	wagers := wager.NewPostgres(pg)
	challenges := challenge.NewPostgres(pg)
	tournaments := tournament.NewPostgres(pg)

	// serviços
	lifecycle := match.NewService(log, matches, publ, cfg.BettingBuffer)
	book := wager.NewBook(log, wagers, matches, accounts, odds.NewValidator(rdb), publ,
		cfg.MinStakeCents, cfg.MaxStakeCents)
	escrow := challenge.NewEscrow(log, challenges, accounts, publ)
	pool := tournament.NewPool(log, tournaments, accounts, publ)
	coordinator := settlement.NewCoordinator(log, accounts, matches, wagers, challenges, tournaments, nil)

	api := ehttp.NewServer(log, accounts, lifecycle, book, escrow, pool, coordinator)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	// metrics/health em porta separada
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		log.Info("engine-service listening", zap.String("addr", apiSrv.Addr))
		return apiSrv.ListenAndServe()
	})
	if err := g.Wait(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
