package odds

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Validator lê a odd corrente publicada pelo feed externo de preços.
// O motor não calcula odds; só confere se a odd enviada na aposta ainda é a corrente.
type Validator struct {
	Rdb *redis.Client
}

func NewValidator(r *redis.Client) *Validator { return &Validator{Rdb: r} }

// Espera chave "odds:{matchID}:{outcome}" => valor string com a odd, ex: "1.85"
func (v *Validator) CurrentOdd(ctx context.Context, matchID, outcome string) (string, error) {
	key := fmt.Sprintf("odds:%s:%s", matchID, outcome)
	val, err := v.Rdb.Get(ctx, key).Result()
	if err != nil {
		return "", err
	}
	return val, nil
}
