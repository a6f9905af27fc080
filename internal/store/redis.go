package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meridies/eventbid/internal/config"
)

// saveScript checks the stored version and writes the entry hash atomically.
// KEYS: entry hash, kind index set. ARGV: ifVersion, payload, updated_at, key.
// Returns {new version} or {-1, current version} on a mismatch.
var saveScript = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[1], 'version') or '0')
local want = tonumber(ARGV[1])
if want >= 0 and want ~= current then
    return {-1, current}
end
local nextv = current + 1
redis.call('HSET', KEYS[1], 'version', nextv, 'updated_at', ARGV[3], 'payload', ARGV[2])
redis.call('SADD', KEYS[2], ARGV[4])
return {nextv}
`)

// Redis is a Store keeping one hash per entry plus a key index set per kind.
type Redis struct {
	rdb    *redis.Client
	prefix string
	log    *zap.Logger
}

// OpenRedis connects and pings the server with a short timeout.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedis(rdb, cfg.Prefix, log), nil
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, prefix string, log *zap.Logger) *Redis {
	if prefix == "" {
		prefix = "eventbid"
	}
	return &Redis{rdb: rdb, prefix: prefix, log: log}
}

func (r *Redis) entryKey(kind Kind, key string) string {
	return r.prefix + ":" + string(kind) + ":" + key
}

func (r *Redis) indexKey(kind Kind) string {
	return r.prefix + ":" + string(kind)
}

func (r *Redis) Save(ctx context.Context, kind Kind, key string, payload []byte, ifVersion int64) (int64, error) {
	if err := checkSave(kind, key, payload); err != nil {
		return 0, err
	}
	res, err := saveScript.Run(ctx, r.rdb,
		[]string{r.entryKey(kind, key), r.indexKey(kind)},
		ifVersion, string(payload), now().Format(time.RFC3339), key,
	).Int64Slice()
	if err != nil {
		return 0, fmt.Errorf("save %s/%s: %w", kind, key, err)
	}
	if len(res) == 2 && res[0] < 0 {
		return 0, checkVersion(kind, key, res[1], ifVersion)
	}
	r.log.Debug("entry saved", zap.String("kind", string(kind)), zap.String("key", key), zap.Int64("version", res[0]))
	return res[0], nil
}

func hashEntry(kind Kind, key string, h map[string]string) Entry {
	e := Entry{Kind: kind, Key: key, Payload: []byte(h["payload"])}
	e.Version, _ = strconv.ParseInt(h["version"], 10, 64)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, h["updated_at"])
	return e
}

func (r *Redis) Load(ctx context.Context, kind Kind, key string) (Entry, error) {
	if err := checkArgs(kind, key); err != nil {
		return Entry{}, err
	}
	h, err := r.rdb.HGetAll(ctx, r.entryKey(kind, key)).Result()
	if err != nil {
		return Entry{}, err
	}
	if len(h) == 0 {
		return Entry{}, notFound(kind, key)
	}
	return hashEntry(kind, key, h), nil
}

func (r *Redis) List(ctx context.Context, kind Kind) ([]Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	keys, err := r.rdb.SMembers(ctx, r.indexKey(kind)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	pipe := r.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HGetAll(ctx, r.entryKey(kind, k))
	}
	if len(keys) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}

	out := make([]Entry, 0, len(keys))
	for i, cmd := range cmds {
		if h := cmd.Val(); len(h) > 0 {
			out = append(out, hashEntry(kind, keys[i], h))
		}
	}
	return out, nil
}

func (r *Redis) Delete(ctx context.Context, kind Kind, key string) error {
	if err := checkArgs(kind, key); err != nil {
		return err
	}
	pipe := r.rdb.TxPipeline()
	del := pipe.Del(ctx, r.entryKey(kind, key))
	pipe.SRem(ctx, r.indexKey(kind), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if del.Val() == 0 {
		return notFound(kind, key)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
