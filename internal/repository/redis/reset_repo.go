package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultResetCodeTTL = 5 * time.Minute
	ResetCodePrefix     = "reset:code"
	ResetCooldownPrefix = "reset:cooldown"
	ResetCooldown       = time.Minute
)

var (
	ErrCodeNotFound  = errors.New("reset code not found or expired")
	ErrCodeMismatch  = errors.New("reset code mismatch")
	ErrCodeTooOften  = errors.New("reset code requested too often")
	ErrCodeStoreFail = errors.New("reset code store failed")
)

// consumeScript 校验通过即删除，保证验证码只能用一次
var consumeScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return -1
end
if val ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

type ResetCodeRepository struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewResetCodeRepository(rdb *redis.Client) *ResetCodeRepository {
	return &ResetCodeRepository{RDB: rdb, TTL: DefaultResetCodeTTL}
}

func (r *ResetCodeRepository) codeKey(email string) string {
	return fmt.Sprintf("%s:%s", ResetCodePrefix, email)
}

// Save 写入验证码；一分钟内重复申请返回 ErrCodeTooOften
func (r *ResetCodeRepository) Save(ctx context.Context, email, code string) error {
	ok, err := r.RDB.SetNX(ctx, fmt.Sprintf("%s:%s", ResetCooldownPrefix, email), 1, ResetCooldown).Result()
	if err != nil {
		return ErrCodeStoreFail
	}
	if !ok {
		return ErrCodeTooOften
	}
	if err := r.RDB.Set(ctx, r.codeKey(email), code, r.TTL).Err(); err != nil {
		return ErrCodeStoreFail
	}
	return nil
}

// Discard 邮件发送失败时回滚
func (r *ResetCodeRepository) Discard(ctx context.Context, email string) {
	r.RDB.Del(ctx, r.codeKey(email), fmt.Sprintf("%s:%s", ResetCooldownPrefix, email))
}

func (r *ResetCodeRepository) Consume(ctx context.Context, email, code string) error {
	res, err := consumeScript.Run(ctx, r.RDB, []string{r.codeKey(email)}, code).Int()
	if err != nil {
		return ErrCodeStoreFail
	}
	switch res {
	case 1:
		return nil
	case 0:
		return ErrCodeMismatch
	default:
		return ErrCodeNotFound
	}
}
