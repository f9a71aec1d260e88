package service

import (
	"context"
	"time"

	"reddot/internal/domain"
	"reddot/internal/logger"
	"reddot/internal/store"
)

// TokenConfig sets the validity window per token kind.
type TokenConfig struct {
	ConfirmTTL time.Duration
	RecoverTTL time.Duration
}

// DefaultTokenConfig mirrors the usual deployment: a day to click the
// confirmation mail, an hour for a password reset.
func DefaultTokenConfig() TokenConfig {
	return TokenConfig{
		ConfirmTTL: 24 * time.Hour,
		RecoverTTL: time.Hour,
	}
}

func (c TokenConfig) ttl(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenRecover {
		return c.RecoverTTL
	}
	return c.ConfirmTTL
}

// TokenService issues and consumes single-use security tokens. Issuing
// a new token does not invalidate earlier ones of the same kind; each
// expires or is consumed on its own.
type TokenService struct {
	store  *store.Store
	cfg    TokenConfig
	logger logger.Logger
	now    func() time.Time
}

func NewTokens(st *store.Store, cfg TokenConfig, log logger.Logger, now func() time.Time) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{store: st, cfg: cfg, logger: log, now: now}
}

// Issue mints and persists a fresh token for the owner.
func (s *TokenService) Issue(ctx context.Context, kind domain.TokenKind, ownerID int64) (*domain.SecurityToken, error) {
	t := domain.NewSecurityToken(kind, ownerID, s.cfg.ttl(kind), s.now())
	if err := s.store.Tokens.Save(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Debug("security token issued",
		logger.String("kind", string(kind)),
		logger.Int64("owner_id", ownerID))
	return t, nil
}

// Peek loads a token without consuming it, for flows that must run
// extra checks before committing to the consume.
func (s *TokenService) Peek(ctx context.Context, kind domain.TokenKind, token string) (*domain.SecurityToken, error) {
	return s.store.Tokens.Get(ctx, kind, token)
}

// Consume atomically marks the token used and returns its owner id.
// Unknown, already-used and expired tokens fail with their distinct
// domain errors, and a failed consume never changes token state.
func (s *TokenService) Consume(ctx context.Context, kind domain.TokenKind, token string) (int64, error) {
	ownerID, err := s.store.Tokens.Consume(ctx, kind, token, s.now())
	if err != nil {
		return 0, err
	}
	s.logger.Debug("security token consumed",
		logger.String("kind", string(kind)),
		logger.Int64("owner_id", ownerID))
	return ownerID, nil
}
