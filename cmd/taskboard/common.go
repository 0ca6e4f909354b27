package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/metalagman/taskboard/internal/board"
	"github.com/metalagman/taskboard/internal/config"
	"github.com/metalagman/taskboard/internal/db"
	"github.com/metalagman/taskboard/internal/task"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// services bundles what CLI commands operate on.
type services struct {
	factory *task.Factory
	board   *board.Board
}

func openServices() (*services, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, func() {}, err
	}
	storeDB, err := db.Open(cfg.Storage.Path)
	if err != nil {
		return nil, func() {}, err
	}
	repo, closeRepo, err := newRepository(cfg, storeDB)
	if err != nil {
		_ = storeDB.Close()
		return nil, func() {}, err
	}
	cleanup := func() {
		closeRepo()
		_ = storeDB.Close()
	}
	return &services{
		factory: newFactory(cfg, repo),
		board:   newBoard(cfg, storeDB),
	}, cleanup, nil
}

// newRepository returns the SQLite store, wrapped in the Redis cache when
// cache.redis_url is set.
func newRepository(cfg config.Config, storeDB *sql.DB) (task.Repository, func(), error) {
	store := task.NewStore(storeDB)
	if cfg.Cache.RedisURL == "" {
		return store, func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		return nil, func() {}, fmt.Errorf("parse cache.redis_url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", opts.Addr).Msg("redis unavailable, reads go to sqlite until it recovers")
	} else {
		log.Debug().Str("addr", opts.Addr).Dur("ttl", cfg.Cache.TTL).Msg("redis cache enabled")
	}
	return task.NewCache(store, client, cfg.Cache.TTL), func() { _ = client.Close() }, nil
}

func newFactory(cfg config.Config, repo task.Repository) *task.Factory {
	return task.NewFactory(repo, task.WithConcurrency(cfg.Hydration.Concurrency))
}

func newBoard(cfg config.Config, storeDB *sql.DB) *board.Board {
	return board.New(board.NewStore(storeDB), cfg.Board.Stages)
}
