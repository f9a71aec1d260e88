// Package redisstore keeps the volatile trust state in Redis: security
// tokens and delete-request markers. Tokens ride Redis TTLs, with a
// grace window past their validity so a late consume attempt still
// reports "expired" instead of "not found".
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"reddot/internal/domain"
)

// GraceTTL keeps an expired token around so its failure mode stays
// distinguishable. After validity + grace the key evicts and the token
// reports not found, which is also what a fabricated token reports.
const GraceTTL = 30 * 24 * time.Hour

// Tokens implements the token store on Redis hashes.
type Tokens struct {
	client *redis.Client
}

func NewTokens(client *redis.Client) *Tokens {
	return &Tokens{client: client}
}

const (
	fieldOwner       = "owner"
	fieldIssued      = "issued"
	fieldValidBefore = "valid_before"
	fieldConsumed    = "consumed"
)

func (s *Tokens) Save(ctx context.Context, t *domain.SecurityToken) error {
	key := TokenKey(string(t.Kind), t.Token)
	fields := map[string]any{
		fieldOwner:       t.OwnerID,
		fieldIssued:      t.IssuedAt.UnixNano(),
		fieldValidBefore: t.ValidBefore.UnixNano(),
	}
	if t.ConsumedAt != nil {
		fields[fieldConsumed] = t.ConsumedAt.UnixNano()
	}
	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	ttl := time.Until(t.ValidBefore) + GraceTTL
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("set token ttl: %w", err)
	}
	return nil
}

func (s *Tokens) Get(ctx context.Context, kind domain.TokenKind, token string) (*domain.SecurityToken, error) {
	raw, err := s.client.HGetAll(ctx, TokenKey(string(kind), token)).Result()
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.ErrTokenNotFound
	}

	t := &domain.SecurityToken{Kind: kind, Token: token}
	if t.OwnerID, err = strconv.ParseInt(raw[fieldOwner], 10, 64); err != nil {
		return nil, fmt.Errorf("parse token owner: %w", err)
	}
	if t.IssuedAt, err = parseNano(raw[fieldIssued]); err != nil {
		return nil, err
	}
	if t.ValidBefore, err = parseNano(raw[fieldValidBefore]); err != nil {
		return nil, err
	}
	if v, ok := raw[fieldConsumed]; ok {
		ts, err := parseNano(v)
		if err != nil {
			return nil, err
		}
		t.ConsumedAt = &ts
	}
	return t, nil
}

func parseNano(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse token timestamp: %w", err)
	}
	return time.Unix(0, n).UTC(), nil
}

// consumeScript does the whole check-and-set server-side so concurrent
// consumers of one token serialize on Redis. ARGV[1] is now in unix
// nanos. It replies "used", "expired", or the owner id on success.
var consumeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 'notfound'
end
if redis.call('HEXISTS', KEYS[1], 'consumed') == 1 then
  return 'used'
end
if tonumber(redis.call('HGET', KEYS[1], 'valid_before')) < tonumber(ARGV[1]) then
  return 'expired'
end
redis.call('HSET', KEYS[1], 'consumed', ARGV[1])
return redis.call('HGET', KEYS[1], 'owner')
`)

func (s *Tokens) Consume(ctx context.Context, kind domain.TokenKind, token string, now time.Time) (int64, error) {
	res, err := consumeScript.Run(ctx, s.client,
		[]string{TokenKey(string(kind), token)},
		now.UnixNano()).Text()
	if err != nil {
		return 0, fmt.Errorf("consume token: %w", err)
	}
	switch res {
	case "notfound":
		return 0, domain.ErrTokenNotFound
	case "used":
		return 0, domain.ErrTokenUsed
	case "expired":
		return 0, domain.ErrTokenExpired
	}
	ownerID, err := strconv.ParseInt(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token owner: %w", err)
	}
	return ownerID, nil
}

// Deletions implements the delete-request marker store.
type Deletions struct {
	client *redis.Client
}

func NewDeletions(client *redis.Client) *Deletions {
	return &Deletions{client: client}
}

func (s *Deletions) Exists(ctx context.Context, userID int64) (bool, error) {
	n, err := s.client.Exists(ctx, DeleteRequestKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check delete request: %w", err)
	}
	return n > 0, nil
}

func (s *Deletions) Put(ctx context.Context, d *domain.DeleteRequest) error {
	// NX keeps the original request timestamp if one is already queued.
	err := s.client.SetNX(ctx, DeleteRequestKey(d.UserID),
		strconv.FormatInt(d.CreatedAt.UnixNano(), 10), 0).Err()
	if err != nil {
		return fmt.Errorf("put delete request: %w", err)
	}
	return nil
}

func (s *Deletions) Remove(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, DeleteRequestKey(userID)).Err(); err != nil {
		return fmt.Errorf("remove delete request: %w", err)
	}
	return nil
}
