package redis

import (
	"context"
	"fmt"

	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
	goredis "github.com/redis/go-redis/v9"
)

var (
	_ repository.SequenceGenerator = (*Sequence)(nil)
	_ repository.SequenceSeeder    = (*Sequence)(nil)
)

// Sequence generador de secuencias con INCR (atómico entre réplicas del servicio).
type Sequence struct {
	client goredis.UniversalClient
}

// NewSequence construye el generador sobre un cliente ya conectado.
func NewSequence(client goredis.UniversalClient) *Sequence {
	return &Sequence{client: client}
}

// Next incrementa boutique:seq:<name> y devuelve el nuevo valor.
func (s *Sequence) Next(ctx context.Context, name string) (int64, error) {
	n, err := s.client.Incr(ctx, keyPrefix+"seq:"+name).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", name, err)
	}
	return n, nil
}

// raiseScript fija KEYS[1] = ARGV[1] solo si la clave no existe o guarda un valor menor.
var raiseScript = goredis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local last = tonumber(ARGV[1])
if cur < last then
  redis.call('SET', KEYS[1], ARGV[1])
  return last
end
return cur
`)

// Seed sube la secuencia a last si está por debajo (Redis nuevo, FLUSH o clave rezagada
// respecto de los códigos ya emitidos). Nunca la baja.
func (s *Sequence) Seed(ctx context.Context, name string, last int64) error {
	if err := raiseScript.Run(ctx, s.client, []string{keyPrefix + "seq:" + name}, last).Err(); err != nil {
		return fmt.Errorf("redis seed %s: %w", name, err)
	}
	return nil
}
