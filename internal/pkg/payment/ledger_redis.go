package payment

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisClaimPrefix = "carefund:payment_claim:"

// RedisLedger claims ids with SETNX so several instances share one ledger.
// Keys never expire.
type RedisLedger struct {
	rdb *redis.Client
}

func NewRedisLedger(rdb *redis.Client) *RedisLedger {
	return &RedisLedger{rdb: rdb}
}

func (l *RedisLedger) TryClaim(ctx context.Context, externalID, source string) (bool, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return false, newValidationError("externalId", "claim key is empty")
	}
	return l.rdb.SetNX(ctx, redisClaimPrefix+externalID, source, 0).Result()
}

func (l *RedisLedger) MarkRecorded(ctx context.Context, externalID string) error {
	pipe := l.rdb.TxPipeline()
	pipe.HDel(ctx, redisClaimPrefix+"unrecorded", externalID)
	pipe.HSet(ctx, redisClaimPrefix+"recorded", externalID, time.Now().UTC().Format(time.RFC3339))
	_, err := pipe.Exec(ctx)
	return err
}

func (l *RedisLedger) MarkUnrecorded(ctx context.Context, externalID, reason, metadata string) error {
	return l.rdb.HSet(ctx, redisClaimPrefix+"unrecorded", externalID, reason+" | "+metadata).Err()
}
