package memory

import (
	"context"
	"strings"
	"time"

	"reddot/internal/domain"
	"reddot/internal/store"
)

type users struct{ c *core }

func (s *users) Create(_ context.Context, u *domain.User) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.userSeq++
	u.ID = s.c.userSeq
	s.c.users[u.ID] = cloneUser(u)
	return nil
}

func (s *users) Get(_ context.Context, id int64) (*domain.User, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	u, ok := s.c.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *users) ByUsername(_ context.Context, username string) (*domain.User, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	for _, u := range s.c.users {
		if strings.EqualFold(u.Username, username) {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *users) ByEmail(_ context.Context, email string) (*domain.User, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	for _, u := range s.c.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *users) Update(_ context.Context, u *domain.User) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if _, ok := s.c.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	s.c.users[u.ID] = cloneUser(u)
	return nil
}

type votes struct{ c *core }

func (s *votes) Get(_ context.Context, voterID int64, target domain.ContentRef) (*domain.Vote, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	v, ok := s.c.votes[voteKey(voterID, target)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *votes) Put(_ context.Context, v *domain.Vote) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	cp := *v
	s.c.votes[voteKey(v.VoterID, v.Target)] = &cp
	return nil
}

func (s *votes) Delete(_ context.Context, voterID int64, target domain.ContentRef) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	delete(s.c.votes, voteKey(voterID, target))
	return nil
}

type bookmarks struct{ c *core }

func (s *bookmarks) Exists(_ context.Context, userID int64, target domain.ContentRef) (bool, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	_, ok := s.c.bookmarks[voteKey(userID, target)]
	return ok, nil
}

func (s *bookmarks) Put(_ context.Context, b *domain.Bookmark) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	cp := *b
	s.c.bookmarks[voteKey(b.UserID, b.Target)] = &cp
	return nil
}

func (s *bookmarks) Delete(_ context.Context, userID int64, target domain.ContentRef) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	delete(s.c.bookmarks, voteKey(userID, target))
	return nil
}

type tokens struct{ c *core }

func (s *tokens) Save(_ context.Context, t *domain.SecurityToken) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.tokens[tokenKey{kind: t.Kind, token: t.Token}] = cloneToken(t)
	return nil
}

func (s *tokens) Get(_ context.Context, kind domain.TokenKind, token string) (*domain.SecurityToken, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	t, ok := s.c.tokens[tokenKey{kind: kind, token: token}]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return cloneToken(t), nil
}

// Consume does the check-and-set under the write lock, so two
// concurrent consumers of the same token cannot both win.
func (s *tokens) Consume(_ context.Context, kind domain.TokenKind, token string, now time.Time) (int64, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	t, ok := s.c.tokens[tokenKey{kind: kind, token: token}]
	if !ok {
		return 0, domain.ErrTokenNotFound
	}
	if err := t.Usable(now); err != nil {
		return 0, err
	}
	t.Consume(now)
	return t.OwnerID, nil
}

// PruneTokens drops tokens whose validity window ended before deadline.
// Consumed tokens inside the window are kept so replays keep reporting
// "already used" rather than "not found".
func (s *tokens) PruneTokens(_ context.Context, deadline time.Time) (int, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	pruned := 0
	for k, t := range s.c.tokens {
		if t.ValidBefore.Before(deadline) {
			delete(s.c.tokens, k)
			pruned++
		}
	}
	return pruned, nil
}

type deletions struct{ c *core }

func (s *deletions) Exists(_ context.Context, userID int64) (bool, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	_, ok := s.c.deletions[userID]
	return ok, nil
}

func (s *deletions) Put(_ context.Context, d *domain.DeleteRequest) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	cp := *d
	s.c.deletions[d.UserID] = &cp
	return nil
}

func (s *deletions) Remove(_ context.Context, userID int64) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	delete(s.c.deletions, userID)
	return nil
}
