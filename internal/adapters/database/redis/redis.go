package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/storkforge/petconnect/internal/adapters/database/redis/preferences"
)

type Client struct {
	Preferences *preferences.Storage

	rdb *redis.Client
}

type Options struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func New(opts Options) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping preferences cache: %w", err)
	}

	return &Client{
		Preferences: preferences.NewStorage(rdb),
		rdb:         rdb,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
