// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/usecase"
)

var _ usecase.Locker = (*Locker)(nil)

// Locker is a single-attempt SetNX lock. A held lock is reported immediately
// rather than waited on: the admin surface treats a concurrent bulk run as a
// refusal, not a queue.
type Locker struct {
	client *Client
}

func NewLocker(client *Client) *Locker {
	return &Locker{client: client}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.cli.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrBulkApproveRunning
	}
	return token, nil
}

var luaUnlock = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.client.cli, []string{key}, token).Result()
	return err
}
