package redis

import (
	"context"
	"fmt"

	"github.com/jhoicas/boutique-backoffice/pkg/config"
	goredis "github.com/redis/go-redis/v9"
)

// keyPrefix espacio de nombres de todas las claves del servicio.
const keyPrefix = "boutique:"

// NewClient abre el cliente Redis y verifica la conexión con PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
