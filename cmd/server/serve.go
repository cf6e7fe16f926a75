package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/food-order-webhook/internal/cache"
	"github.com/iliyamo/food-order-webhook/internal/config"
	"github.com/iliyamo/food-order-webhook/internal/database/migrations"
	"github.com/iliyamo/food-order-webhook/internal/handler"
	"github.com/iliyamo/food-order-webhook/internal/middleware"
	"github.com/iliyamo/food-order-webhook/internal/queue"
	"github.com/iliyamo/food-order-webhook/internal/repository"
	"github.com/iliyamo/food-order-webhook/internal/router"
	"github.com/iliyamo/food-order-webhook/internal/service"
)

func runServe(parent context.Context, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := migrations.Apply(ctx, db, log); err != nil {
			log.Error().Err(err).Msg("migration failed")
			return err
		}
	}

	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb == nil {
		log.Warn().Msg("redis unavailable; menu cache off, in-memory rate limiting")
	} else {
		defer rdb.Close()
	}

	events, closeEvents := newPublisher(ctx, config.LoadEventsConfig(), log)
	defer closeEvents()

	menuRepo := repository.NewMenuRepo(db)
	catalog := cache.NewMenuCache(menuRepo, rdb, config.LoadCacheConfig(), log)
	orders := service.NewOrderService(
		catalog,
		repository.NewCartRepo(db),
		repository.NewTrackingRepo(db),
		events,
		cfg.Currency,
		log,
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover(), echomw.RequestID(), middleware.RequestLogger(log))

	router.RegisterRoutes(e, menuRepo)
	router.RegisterWebhook(e,
		handler.NewWebhookHandler(orders, cfg.Currency, cfg.RestaurantName, log),
		middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb, log),
	)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}

// newPublisher builds the order event publisher selected by cfg.Broker and
// starts the order log consumer when asked to.  The returned publisher is
// nil when events are off.
func newPublisher(ctx context.Context, cfg config.EventsConfig, log zerolog.Logger) (service.EventPublisher, func()) {
	switch cfg.Broker {
	case config.BrokerRabbitMQ:
		if cfg.LogConsumer {
			go func() {
				err := queue.StartOrderLogConsumer(ctx, cfg.AMQPURL, cfg.Topic, cfg.LogDir, log)
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("order log consumer stopped")
				}
			}()
		}
		log.Info().Str("queue", cfg.Topic).Msg("publishing order events to rabbitmq")
		return queue.NewRabbitPublisher(cfg.AMQPURL, cfg.Topic, log), func() {}
	case config.BrokerKafka:
		p := queue.NewKafkaPublisher(queue.NewKafkaWriter(cfg.KafkaBrokers, cfg.Topic))
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.Topic).Msg("publishing order events to kafka")
		return p, func() {
			if err := p.Close(); err != nil {
				log.Warn().Err(err).Msg("kafka writer close failed")
			}
		}
	}
	return nil, func() {}
}
