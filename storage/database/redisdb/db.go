package redisdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/storage/database"
)

var connectTimeout = 10 * time.Second

// Open connects to the configured Redis and waits until it answers.
func Open(conf *core.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	ping := database.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	if err := database.Ping(ctx, ping); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", conf.Redis.Addr)
	}
	return rdb, nil
}
