package redis

import (
	"context"

	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"

	"github.com/urbanfrill/storefront/internal/config"
	"github.com/urbanfrill/storefront/pkg/e"
)

type Client struct {
	Client *r.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	client := r.NewClient(&r.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	return &Client{Client: client}
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}
