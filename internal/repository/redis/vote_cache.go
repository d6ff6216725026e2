package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	VoteCntTTL       = 24 * time.Hour
	LockTTL          = 300 * time.Millisecond
	VoteCntKeyPrefix = "vote:cnt:question"
	LockKeyPrefix    = "lock:vote:question"
)

// VoteCacheRepository 缓存问题的投票数，写库后删 key，读侧加锁回填
type VoteCacheRepository struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewVoteCacheRepository(rdb *redis.Client) *VoteCacheRepository {
	return &VoteCacheRepository{RDB: rdb, TTL: VoteCntTTL}
}

func (r *VoteCacheRepository) cntKey(questionID uint64) string {
	return fmt.Sprintf("%s:%d", VoteCntKeyPrefix, questionID)
}

// Get 第二个返回值表示是否命中
func (r *VoteCacheRepository) Get(ctx context.Context, questionID uint64) (int64, bool, error) {
	val, err := r.RDB.Get(ctx, r.cntKey(questionID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

func (r *VoteCacheRepository) Set(ctx context.Context, questionID uint64, cnt int64) error {
	return r.RDB.Set(ctx, r.cntKey(questionID), cnt, r.TTL).Err()
}

func (r *VoteCacheRepository) Invalidate(ctx context.Context, questionID uint64) error {
	return r.RDB.Del(ctx, r.cntKey(questionID)).Err()
}

type DistLock struct {
	RDB *redis.Client
}

func NewDistLock(rdb *redis.Client) *DistLock {
	return &DistLock{RDB: rdb}
}

// Acquire 请求加分布式锁
func (l *DistLock) Acquire(ctx context.Context, questionID uint64, token string) (bool, error) {
	key := fmt.Sprintf("%s:%d", LockKeyPrefix, questionID)
	return l.RDB.SetNX(ctx, key, token, LockTTL).Result()
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// Release 用lua保证只释放自己的锁
func (l *DistLock) Release(ctx context.Context, questionID uint64, token string) error {
	key := fmt.Sprintf("%s:%d", LockKeyPrefix, questionID)
	return releaseScript.Run(ctx, l.RDB, []string{key}, token).Err()
}
