package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iliyamo/food-order-webhook/internal/cache"
	"github.com/iliyamo/food-order-webhook/internal/config"
	"github.com/iliyamo/food-order-webhook/internal/database"
	"github.com/iliyamo/food-order-webhook/internal/database/migrations"
	"github.com/iliyamo/food-order-webhook/internal/logger"
	"github.com/iliyamo/food-order-webhook/internal/repository"
)

func newRootCmd() *cobra.Command {
	var migrate bool
	root := &cobra.Command{
		Use:           "food-order-webhook",
		Short:         "Fulfillment webhook for the food ordering chatbot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	root.PersistentFlags().BoolVar(&migrate, "migrate", false, "apply schema and seed before serving")
	root.AddCommand(serve, newMigrateCmd(), newSetStatusCmd())
	return root
}

// bootstrap loads config, builds the logger and opens MySQL.  Errors before
// the logger exists are written by a fallback logger so they are not lost.
func bootstrap(ctx context.Context) (config.Config, zerolog.Logger, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info", "dev")
		log.Error().Err(err).Msg("config load failed")
		return config.Config{}, log, nil, err
	}
	log := logger.New(cfg.LogLevel, cfg.Env)
	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("host", cfg.DBHost).Msg("database connection failed")
		return cfg, log, nil, err
	}
	return cfg, log, db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables, stored routines and the seed menu",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, log, db, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrations.Apply(ctx, db, log); err != nil {
				log.Error().Err(err).Msg("migration failed")
				return err
			}
			flushMenuCache(ctx, log)
			return nil
		},
	}
}

// flushMenuCache drops cached menu entries after a reseed.
func flushMenuCache(ctx context.Context, log zerolog.Logger) {
	cc := config.LoadCacheConfig()
	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if !cc.Enabled || rdb == nil {
		return
	}
	defer rdb.Close()
	if err := cache.Invalidate(ctx, rdb, cc.Prefix); err != nil {
		log.Warn().Err(err).Msg("menu cache flush failed")
		return
	}
	log.Info().Msg("menu cache flushed")
}

func newSetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <order-id> <status>",
		Short: "Move a placed order to another tracking status",
		Long:  `Status is one of: preparing, "in transit", delivered, cancelled.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || orderID <= 0 {
				return fmt.Errorf("invalid order id %q", args[0])
			}
			ctx := cmd.Context()
			_, log, db, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := repository.NewTrackingRepo(db).SetStatus(ctx, orderID, args[1]); err != nil {
				log.Error().Err(err).Int64("order_id", orderID).Str("status", args[1]).Msg("set status failed")
				return err
			}
			log.Info().Int64("order_id", orderID).Str("status", args[1]).Msg("status updated")
			return nil
		},
	}
}
