package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reddot/internal/domain"
	"reddot/internal/store"
)

type users struct{ d *DB }

const userCols = `id, username, email, password_hash, role, enabled, email_verified, avatar_url, profile, created_at, updated_at, last_access_at`

func (s *users) Create(ctx context.Context, u *domain.User) error {
	profile, err := marshalProfile(u.Profile)
	if err != nil {
		return err
	}
	res, err := s.d.q(ctx).ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, role, enabled, email_verified, avatar_url, profile, created_at, updated_at, last_access_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, string(u.Role), u.Enabled, u.EmailVerified,
		u.AvatarURL, profile, stamp(u.CreatedAt), stamp(u.UpdatedAt), stampPtr(u.LastAccessAt))
	if err != nil {
		return fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *users) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.one(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
}

func (s *users) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.one(ctx, `SELECT `+userCols+` FROM users WHERE username = ?`, username)
}

func (s *users) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.one(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, email)
}

func (s *users) Update(ctx context.Context, u *domain.User) error {
	profile, err := marshalProfile(u.Profile)
	if err != nil {
		return err
	}
	res, err := s.d.q(ctx).ExecContext(ctx, `
		UPDATE users
		SET username = ?, email = ?, password_hash = ?, role = ?, enabled = ?,
		    email_verified = ?, avatar_url = ?, profile = ?, updated_at = ?, last_access_at = ?
		WHERE id = ?`,
		u.Username, u.Email, u.PasswordHash, string(u.Role), u.Enabled,
		u.EmailVerified, u.AvatarURL, profile, stamp(u.UpdatedAt), stampPtr(u.LastAccessAt), u.ID)
	if err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return requireRow(res)
}

func (s *users) one(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		u                      domain.User
		role, created, updated string
		profile, lastAccess    sql.NullString
	)
	err := s.d.q(ctx).QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.Enabled,
		&u.EmailVerified, &u.AvatarURL, &profile, &created, &updated, &lastAccess)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = domain.Role(role)
	if u.CreatedAt, err = parseStamp(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseStamp(updated); err != nil {
		return nil, err
	}
	if u.LastAccessAt, err = parseStampPtr(lastAccess); err != nil {
		return nil, err
	}
	if profile.Valid {
		var p domain.Profile
		if err := json.Unmarshal([]byte(profile.String), &p); err != nil {
			return nil, fmt.Errorf("unmarshal profile: %w", err)
		}
		u.Profile = &p
	}
	return &u, nil
}

func marshalProfile(p *domain.Profile) (any, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return string(raw), nil
}

type votes struct{ d *DB }

func (s *votes) Get(ctx context.Context, voterID int64, target domain.ContentRef) (*domain.Vote, error) {
	var (
		dir     int
		created string
	)
	err := s.d.q(ctx).QueryRowContext(ctx, `
		SELECT direction, created_at FROM votes
		WHERE voter_id = ? AND target_kind = ? AND target_id = ?`,
		voterID, string(target.Kind), target.ID).Scan(&dir, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vote: %w", err)
	}
	createdAt, err := parseStamp(created)
	if err != nil {
		return nil, err
	}
	return &domain.Vote{
		VoterID:   voterID,
		Target:    target,
		Direction: domain.VoteDirection(dir),
		CreatedAt: createdAt,
	}, nil
}

func (s *votes) Put(ctx context.Context, v *domain.Vote) error {
	_, err := s.d.q(ctx).ExecContext(ctx, `
		INSERT INTO votes (voter_id, target_kind, target_id, direction, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (voter_id, target_kind, target_id)
		DO UPDATE SET direction = excluded.direction, created_at = excluded.created_at`,
		v.VoterID, string(v.Target.Kind), v.Target.ID, int(v.Direction), stamp(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("put vote: %w", err)
	}
	return nil
}

func (s *votes) Delete(ctx context.Context, voterID int64, target domain.ContentRef) error {
	_, err := s.d.q(ctx).ExecContext(ctx, `
		DELETE FROM votes WHERE voter_id = ? AND target_kind = ? AND target_id = ?`,
		voterID, string(target.Kind), target.ID)
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	return nil
}

type bookmarks struct{ d *DB }

func (s *bookmarks) Exists(ctx context.Context, userID int64, target domain.ContentRef) (bool, error) {
	var n int
	err := s.d.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(1) FROM bookmarks
		WHERE user_id = ? AND target_kind = ? AND target_id = ?`,
		userID, string(target.Kind), target.ID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check bookmark: %w", err)
	}
	return n > 0, nil
}

func (s *bookmarks) Put(ctx context.Context, b *domain.Bookmark) error {
	_, err := s.d.q(ctx).ExecContext(ctx, `
		INSERT INTO bookmarks (user_id, target_kind, target_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, target_kind, target_id) DO NOTHING`,
		b.UserID, string(b.Target.Kind), b.Target.ID, stamp(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("put bookmark: %w", err)
	}
	return nil
}

func (s *bookmarks) Delete(ctx context.Context, userID int64, target domain.ContentRef) error {
	_, err := s.d.q(ctx).ExecContext(ctx, `
		DELETE FROM bookmarks WHERE user_id = ? AND target_kind = ? AND target_id = ?`,
		userID, string(target.Kind), target.ID)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

type tokens struct{ d *DB }

func (s *tokens) Save(ctx context.Context, t *domain.SecurityToken) error {
	_, err := s.d.q(ctx).ExecContext(ctx, `
		INSERT INTO security_tokens (kind, token, owner_id, issued_at, valid_before, consumed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(t.Kind), t.Token, t.OwnerID, stamp(t.IssuedAt), stamp(t.ValidBefore), stampPtr(t.ConsumedAt))
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (s *tokens) Get(ctx context.Context, kind domain.TokenKind, token string) (*domain.SecurityToken, error) {
	var (
		t                   domain.SecurityToken
		issued, validBefore string
		consumed            sql.NullString
	)
	err := s.d.q(ctx).QueryRowContext(ctx, `
		SELECT owner_id, issued_at, valid_before, consumed_at
		FROM security_tokens WHERE kind = ? AND token = ?`,
		string(kind), token).Scan(&t.OwnerID, &issued, &validBefore, &consumed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	t.Kind = kind
	t.Token = token
	if t.IssuedAt, err = parseStamp(issued); err != nil {
		return nil, err
	}
	if t.ValidBefore, err = parseStamp(validBefore); err != nil {
		return nil, err
	}
	if t.ConsumedAt, err = parseStampPtr(consumed); err != nil {
		return nil, err
	}
	return &t, nil
}

// Consume is a single conditional UPDATE, so two concurrent consumes of
// the same token cannot both win. The losing path re-reads the row to
// report why.
func (s *tokens) Consume(ctx context.Context, kind domain.TokenKind, token string, now time.Time) (int64, error) {
	res, err := s.d.q(ctx).ExecContext(ctx, `
		UPDATE security_tokens SET consumed_at = ?
		WHERE kind = ? AND token = ? AND consumed_at IS NULL AND valid_before >= ?`,
		stamp(now), string(kind), token, stamp(now))
	if err != nil {
		return 0, fmt.Errorf("consume token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	t, err := s.Get(ctx, kind, token)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		if t.ConsumedAt != nil {
			return 0, domain.ErrTokenUsed
		}
		return 0, domain.ErrTokenExpired
	}
	return t.OwnerID, nil
}

// PruneTokens deletes tokens whose validity window ended before the
// deadline, consumed or not.
func (s *tokens) PruneTokens(ctx context.Context, deadline time.Time) (int, error) {
	res, err := s.d.q(ctx).ExecContext(ctx,
		`DELETE FROM security_tokens WHERE valid_before < ?`, stamp(deadline))
	if err != nil {
		return 0, fmt.Errorf("prune tokens: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type deletions struct{ d *DB }

func (s *deletions) Exists(ctx context.Context, userID int64) (bool, error) {
	var n int
	err := s.d.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(1) FROM delete_requests WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check delete request: %w", err)
	}
	return n > 0, nil
}

func (s *deletions) Put(ctx context.Context, d *domain.DeleteRequest) error {
	_, err := s.d.q(ctx).ExecContext(ctx, `
		INSERT INTO delete_requests (user_id, created_at) VALUES (?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		d.UserID, stamp(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("put delete request: %w", err)
	}
	return nil
}

func (s *deletions) Remove(ctx context.Context, userID int64) error {
	_, err := s.d.q(ctx).ExecContext(ctx,
		`DELETE FROM delete_requests WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("remove delete request: %w", err)
	}
	return nil
}
