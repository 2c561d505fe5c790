package main

import (
	"context"
	"errors"
	"log"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"
	"github.com/zamyatin-zkex/baseflow/config"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
	"github.com/zamyatin-zkex/baseflow/internal/event"
	"github.com/zamyatin-zkex/baseflow/internal/repository"
	"github.com/zamyatin-zkex/baseflow/internal/service/aggregator"
	"github.com/zamyatin-zkex/baseflow/internal/service/consumer"
	"github.com/zamyatin-zkex/baseflow/internal/service/fakeledger"
	"github.com/zamyatin-zkex/baseflow/internal/service/gateway"
	"github.com/zamyatin-zkex/baseflow/internal/service/interrupter"
	"github.com/zamyatin-zkex/baseflow/internal/service/watcher"
	"github.com/zamyatin-zkex/baseflow/internal/service/web"
	"github.com/zamyatin-zkex/baseflow/pkg/app"
	"github.com/zamyatin-zkex/baseflow/pkg/ebus"
	"github.com/zamyatin-zkex/baseflow/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Build()
	if err != nil {
		log.Fatal(err)
	}
	logger := utils.Must(config.NewLogger(cfg.Logger))
	defer func() { _ = logger.Sync() }()

	clock := utils.RealClock{}
	eBus := ebus.New()

	kafkaCl := utils.Must(sarama.NewClient(cfg.Kafka.Brokers, cfg.Kafka.SaramaConfig()))
	defer kafkaCl.Close()
	prod := utils.Must(sarama.NewSyncProducerFromClient(kafkaCl))
	defer prod.Close()

	channels := cfg.Kafka.Topics.Channels()
	ledgerRepo := repository.NewLedger(prod, cfg.Kafka.Topics.Commands, cfg.Ledger.Contract)

	consumer := utils.Must(consumer.NewConsumer(kafkaCl, cfg.Kafka.Group, channels, eBus, clock, logger.Named("consumer")))
	agg := aggregator.NewAggregator(cfg.Observer, cfg.Buffer.Capacity, eBus, clock, logger.Named("aggregator")).
		Subscribe(entity.Kinds()...)
	gate := gateway.New(ledgerRepo, eBus, clock, logger.Named("gateway"))
	web := web.New(cfg.Web.Addr, agg, gate, cfg.Restock, logger.Named("web"))
	watch := watcher.NewWatcher(eBus, logger.Named("watcher")).
		RunEvery(cfg.Web.Refresh, agg.Refresh)

	eBus.
		Subscribe(event.BatchSkipped{}, watcher.LogAny(logger.Named("skipped"))).
		Subscribe(event.CommandCompleted{}, watcher.LogAny(logger.Named("commands"))).
		Subscribe(event.SnapshotUpdated{}, watcher.Tolerant(logger, ebus.Typed(web.UpdateSnapshot))).
		Subscribe(event.CommandCompleted{}, watcher.Tolerant(logger, ebus.Typed(web.UpdateCommand)))

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		snapshots := repository.NewSnapshots(rdb, cfg.Redis.TTL)
		eBus.Subscribe(event.SnapshotUpdated{}, watcher.Tolerant(logger, ebus.Typed(snapshots.HandleSnapshot)))
	}

	a := app.NewApp(logger).
		WithService(consumer).
		WithService(watch).
		WithService(web).
		WithService(interrupter.Interrupter{Logger: logger})

	if cfg.Simulate.Enabled {
		events := repository.NewEvents(prod, channels)
		merchant := cfg.Simulate.Merchant
		if merchant == "" {
			merchant = cfg.Observer
		}
		customers := append([]string{cfg.Observer}, cfg.Simulate.Customers...)
		a.WithService(fakeledger.New(events, cfg.Simulate.Every, merchant, customers...))
	}

	err = a.Run(context.Background())
	if errors.Is(err, interrupter.ErrInterrupted) {
		logger.Info("stopped", zap.Error(err))
		return
	}
	logger.Fatal("app stopped", zap.Error(err))
}
