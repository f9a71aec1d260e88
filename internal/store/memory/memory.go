// Package memory is a map-backed implementation of the store
// contracts. It backs the service tests and single-node dev mode where
// neither sqlite nor redis is wired.
package memory

import (
	"context"
	"sync"

	"reddot/internal/domain"
	"reddot/internal/store"
)

type refKey struct {
	userID int64
	kind   domain.ContentKind
	id     int64
}

type tokenKey struct {
	kind  domain.TokenKind
	token string
}

// core holds all tables behind one RWMutex. InTx serializes mutating
// sequences on a second mutex so read-check-write never interleaves.
type core struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	userSeq     int64
	questionSeq int64
	commentSeq  int64
	tagSeq      int64

	users     map[int64]*domain.User
	questions map[int64]*domain.Question
	comments  map[int64]*domain.Comment
	tags      map[string]*domain.Tag
	votes     map[refKey]*domain.Vote
	bookmarks map[refKey]*domain.Bookmark
	tokens    map[tokenKey]*domain.SecurityToken
	deletions map[int64]*domain.DeleteRequest
}

// New builds a fully wired in-memory store.
func New() *store.Store {
	c := &core{
		users:     make(map[int64]*domain.User),
		questions: make(map[int64]*domain.Question),
		comments:  make(map[int64]*domain.Comment),
		tags:      make(map[string]*domain.Tag),
		votes:     make(map[refKey]*domain.Vote),
		bookmarks: make(map[refKey]*domain.Bookmark),
		tokens:    make(map[tokenKey]*domain.SecurityToken),
		deletions: make(map[int64]*domain.DeleteRequest),
	}
	return &store.Store{
		Users:     &users{c},
		Questions: &questions{c},
		Comments:  &comments{c},
		Tags:      &tags{c},
		Votes:     &votes{c},
		Bookmarks: &bookmarks{c},
		Tokens:    &tokens{c},
		Deletions: &deletions{c},
		Tx:        c,
	}
}

// InTx runs fn while holding the transaction lock. Mutating sequences
// in the services always go through here, so concurrent vote
// applications and toggles on the same target serialize.
func (c *core) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	return fn(ctx)
}

func voteKey(userID int64, target domain.ContentRef) refKey {
	return refKey{userID: userID, kind: target.Kind, id: target.ID}
}

func cloneQuestion(q *domain.Question) *domain.Question {
	cp := *q
	cp.Tags = append([]string(nil), q.Tags...)
	if q.ClosedAt != nil {
		t := *q.ClosedAt
		cp.ClosedAt = &t
	}
	return &cp
}

func cloneComment(c *domain.Comment) *domain.Comment {
	cp := *c
	if c.ParentQuestionID != nil {
		v := *c.ParentQuestionID
		cp.ParentQuestionID = &v
	}
	if c.ParentCommentID != nil {
		v := *c.ParentCommentID
		cp.ParentCommentID = &v
	}
	return &cp
}

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	if u.LastAccessAt != nil {
		t := *u.LastAccessAt
		cp.LastAccessAt = &t
	}
	if u.Profile != nil {
		p := *u.Profile
		cp.Profile = &p
	}
	return &cp
}

func cloneToken(t *domain.SecurityToken) *domain.SecurityToken {
	cp := *t
	if t.ConsumedAt != nil {
		ts := *t.ConsumedAt
		cp.ConsumedAt = &ts
	}
	return &cp
}
