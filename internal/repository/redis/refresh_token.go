// Package redis keeps the refresh token ledger in Redis. Each record is a hash
// that expires at the token's expiry; a per-user set indexes the hashes so all
// tokens of a user can be revoked at once.
//
// Every key of a user carries the user id as a hash tag, so a user's records
// and index live in one cluster slot and multi-key operations stay legal on
// Redis Cluster.
package redis

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dtroode/authkeeper/internal/model"
)

// rotateScript deletes KEYS[1] and writes KEYS[2] only if KEYS[1] belongs to
// ARGV[1] and has not expired at ARGV[2]. KEYS[3] is the user index. It
// returns 1 on success and 0 otherwise.
const rotateScript = `
local user_id = redis.call("HGET", KEYS[1], "user_id")
if not user_id or user_id ~= ARGV[1] then
  return 0
end

local raw = redis.call("HGET", KEYS[1], "expires_at")
local expires_at = raw and tonumber(raw)
redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[3], ARGV[3])
if not expires_at or expires_at <= tonumber(ARGV[2]) then
  return 0
end

redis.call("HSET", KEYS[2],
  "id", ARGV[5],
  "user_id", ARGV[1],
  "session_id", ARGV[6],
  "rotated_from", ARGV[7],
  "expires_at", ARGV[8],
  "created_at", ARGV[9])
redis.call("PEXPIREAT", KEYS[2], ARGV[8])
redis.call("SADD", KEYS[3], ARGV[4])
return 1
`

var rotateLua = redis.NewScript(rotateScript)

// maxWatchRetries bounds optimistic retries of RevokeAllByUser when the
// user's index changes under it.
const maxWatchRetries = 10

const indexSuffix = "index"

// Option configures a RefreshTokenRepository.
type Option func(*RefreshTokenRepository)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(r *RefreshTokenRepository) {
		r.now = now
	}
}

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRefreshTokenRepository(client redis.UniversalClient, prefix string, opts ...Option) *RefreshTokenRepository {
	r := &RefreshTokenRepository{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// userBase is the common prefix of every key of userID: "<prefix>:rt:{<id>}:".
func (r *RefreshTokenRepository) userBase(userID uuid.UUID) string {
	return r.prefix + ":rt:{" + userID.String() + "}:"
}

func (r *RefreshTokenRepository) tokenKey(userID uuid.UUID, member string) string {
	return r.userBase(userID) + member
}

func (r *RefreshTokenRepository) userKey(userID uuid.UUID) string {
	return r.userBase(userID) + indexSuffix
}

func (r *RefreshTokenRepository) indexPattern() string {
	return r.prefix + ":rt:{*}:" + indexSuffix
}

func member(tokenHash []byte) string {
	return hex.EncodeToString(tokenHash)
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = r.now()
	}

	m := member(token.TokenHash)
	key := r.tokenKey(token.UserID, m)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields(token))
		pipe.PExpireAt(ctx, key, token.ExpiresAt)
		pipe.SAdd(ctx, r.userKey(token.UserID), m)
		return nil
	})
	if err != nil {
		return wrapErr("failed to create refresh token", err)
	}
	return nil
}

func (r *RefreshTokenRepository) FindActive(ctx context.Context, userID uuid.UUID, tokenHash []byte) (model.RefreshToken, error) {
	values, err := r.client.HGetAll(ctx, r.tokenKey(userID, member(tokenHash))).Result()
	if err != nil {
		return model.RefreshToken{}, wrapErr("failed to find refresh token", err)
	}
	if len(values) == 0 {
		return model.RefreshToken{}, model.ErrNotFound
	}

	token, err := parse(values, tokenHash)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("failed to decode refresh token: %w", err)
	}
	if token.UserID != userID || !token.ExpiresAt.After(r.now()) {
		return model.RefreshToken{}, model.ErrNotFound
	}

	return token, nil
}

// Revoke only touches keys of userID, so a token of another user is never found.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, userID uuid.UUID, tokenHash []byte) error {
	m := member(tokenHash)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.tokenKey(userID, m))
		pipe.SRem(ctx, r.userKey(userID), m)
		return nil
	})
	if err != nil {
		return wrapErr("failed to revoke refresh token", err)
	}
	return nil
}

// RevokeAllByUser deletes every indexed record and the index itself. The
// index is watched, so a token created or rotated meanwhile restarts the
// transaction instead of surviving it.
func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	userKey := r.userKey(userID)

	txf := func(tx *redis.Tx) error {
		members, err := tx.SMembers(ctx, userKey).Result()
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(members)+1)
		for _, m := range members {
			keys = append(keys, r.tokenKey(userID, m))
		}
		keys = append(keys, userKey)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < maxWatchRetries; i++ {
		err = r.client.Watch(ctx, txf, userKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("failed to revoke refresh tokens by user: %w: %w", model.ErrUnavailable, err)
	}
	if err != nil {
		return wrapErr("failed to revoke refresh tokens by user", err)
	}
	return nil
}

func (r *RefreshTokenRepository) Rotate(ctx context.Context, userID uuid.UUID, oldHash []byte, next model.RefreshToken) error {
	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = r.now()
	}

	oldMember := member(oldHash)
	newMember := member(next.TokenHash)

	res, err := rotateLua.Run(ctx, r.client,
		[]string{r.tokenKey(userID, oldMember), r.tokenKey(userID, newMember), r.userKey(userID)},
		userID.String(),
		r.now().UnixMilli(),
		oldMember,
		newMember,
		next.ID.String(),
		next.SessionID.String(),
		rotatedFrom(next.RotatedFrom),
		next.ExpiresAt.UnixMilli(),
		next.CreatedAt.UnixMilli(),
	).Int64()
	if err != nil {
		return wrapErr("failed to rotate refresh token", err)
	}
	if res != 1 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteExpired prunes user index entries whose token hash has already
// expired in Redis. It returns the number of pruned entries. On a cluster
// every master is scanned.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, _ time.Time) (int64, error) {
	var pruned atomic.Int64

	var err error
	if cluster, ok := r.client.(*redis.ClusterClient); ok {
		err = cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return r.pruneIndexes(ctx, node, &pruned)
		})
	} else {
		err = r.pruneIndexes(ctx, r.client, &pruned)
	}
	return pruned.Load(), err
}

func (r *RefreshTokenRepository) pruneIndexes(ctx context.Context, scanner redis.Cmdable, pruned *atomic.Int64) error {
	iter := scanner.Scan(ctx, 0, r.indexPattern(), 100).Iterator()
	for iter.Next(ctx) {
		userKey := iter.Val()
		base := strings.TrimSuffix(userKey, indexSuffix)

		members, err := r.client.SMembers(ctx, userKey).Result()
		if err != nil {
			return wrapErr("failed to list user refresh tokens", err)
		}
		for _, m := range members {
			exists, err := r.client.Exists(ctx, base+m).Result()
			if err != nil {
				return wrapErr("failed to check refresh token", err)
			}
			if exists == 0 {
				n, err := r.client.SRem(ctx, userKey, m).Result()
				if err != nil {
					return wrapErr("failed to prune refresh token index", err)
				}
				pruned.Add(n)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return wrapErr("failed to scan refresh token index", err)
	}
	return nil
}

func (r *RefreshTokenRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return wrapErr("failed to ping redis", err)
	}
	return nil
}

func fields(token model.RefreshToken) map[string]any {
	return map[string]any{
		"id":           token.ID.String(),
		"user_id":      token.UserID.String(),
		"session_id":   token.SessionID.String(),
		"rotated_from": rotatedFrom(token.RotatedFrom),
		"expires_at":   token.ExpiresAt.UnixMilli(),
		"created_at":   token.CreatedAt.UnixMilli(),
	}
}

func rotatedFrom(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func parse(values map[string]string, tokenHash []byte) (model.RefreshToken, error) {
	var (
		token model.RefreshToken
		err   error
	)
	token.TokenHash = tokenHash

	if token.ID, err = uuid.Parse(values["id"]); err != nil {
		return model.RefreshToken{}, fmt.Errorf("id: %w", err)
	}
	if token.UserID, err = uuid.Parse(values["user_id"]); err != nil {
		return model.RefreshToken{}, fmt.Errorf("user_id: %w", err)
	}
	if token.SessionID, err = uuid.Parse(values["session_id"]); err != nil {
		return model.RefreshToken{}, fmt.Errorf("session_id: %w", err)
	}
	if v := values["rotated_from"]; v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return model.RefreshToken{}, fmt.Errorf("rotated_from: %w", err)
		}
		token.RotatedFrom = &id
	}

	expiresAt, err := strconv.ParseInt(values["expires_at"], 10, 64)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("expires_at: %w", err)
	}
	token.ExpiresAt = time.UnixMilli(expiresAt)

	createdAt, err := strconv.ParseInt(values["created_at"], 10, 64)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("created_at: %w", err)
	}
	token.CreatedAt = time.UnixMilli(createdAt)

	return token, nil
}
