package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/movi-agent/server/internal/agent/model"
	errx "github.com/movi-agent/server/internal/core/error"
	logx "github.com/movi-agent/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// activityIndexKey is a sorted set of session ids scored by last message
// time; the sweeper range-scans it instead of keyspace walking.
const activityIndexKey = "sessions:last_message"

type RedisSessionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)

func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (r *RedisSessionRepository) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	key := r.sessionKey(sessionID)

	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to load session from redis")
		}
		return nil, errx.WrapRedis(err)
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to unmarshal session")
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &sess, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, sess *model.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sess.SessionID).Msg("failed to marshal session")
		return fmt.Errorf("marshal session: %w", err)
	}
	key := r.sessionKey(sess.SessionID)

	pipe := r.rdb.TxPipeline()
	// the key TTL is a backstop; the sweeper is the primary reaper
	pipe.Set(ctx, key, b, 2*r.ttl)
	pipe.ZAdd(ctx, activityIndexKey, redis.Z{
		Score:  float64(sess.LastMessageAt.Unix()),
		Member: sess.SessionID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, r.sessionKey(sessionID))
	pipe.ZRem(ctx, activityIndexKey, sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) StaleSessionIDs(ctx context.Context, olderThan time.Time) ([]string, error) {
	ids, err := r.rdb.ZRangeByScore(ctx, activityIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(olderThan.Unix(), 10),
	}).Result()
	if err != nil {
		logx.Error().Err(err).Msg("failed to scan session activity index")
		return nil, errx.WrapRedis(err)
	}
	return ids, nil
}
