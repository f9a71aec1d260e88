// Package store defines the persistence contracts the services depend
// on. Implementations: store/memory (tests, single-node dev),
// store/sqlite (content system of record), store/redisstore (security
// tokens and delete-request markers).
package store

import (
	"context"
	"errors"
	"time"

	"reddot/internal/domain"
)

// ErrNotFound is returned when a lookup matches nothing. Services
// translate it into the domain taxonomy; it never reaches callers raw.
var ErrNotFound = errors.New("store: not found")

// TxRunner supplies the transactional boundary for read-check-write
// sequences (vote application, tag accounting, bookmark toggles).
// Implementations guarantee that concurrent InTx calls touching the
// same entities serialize and no counter update is lost.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories a service layer needs.
type Store struct {
	Users     UserStore
	Questions QuestionStore
	Comments  CommentStore
	Tags      TagStore
	Votes     VoteStore
	Bookmarks BookmarkStore
	Tokens    TokenStore
	Deletions DeleteRequestStore
	Tx        TxRunner
}

type UserStore interface {
	// Create assigns the id and persists the user.
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id int64) (*domain.User, error)
	ByUsername(ctx context.Context, username string) (*domain.User, error)
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

type QuestionStore interface {
	Create(ctx context.Context, q *domain.Question) error
	Get(ctx context.Context, id int64) (*domain.Question, error)
	ByOwner(ctx context.Context, ownerID int64) ([]*domain.Question, error)
	All(ctx context.Context) ([]*domain.Question, error)
	// Search matches a lowercased keyword against title and body.
	Search(ctx context.Context, keyword string) ([]*domain.Question, error)
	Update(ctx context.Context, q *domain.Question) error
}

type CommentStore interface {
	Create(ctx context.Context, c *domain.Comment) error
	Get(ctx context.Context, id int64) (*domain.Comment, error)
	ByQuestion(ctx context.Context, questionID int64) ([]*domain.Comment, error)
	ByParentComment(ctx context.Context, commentID int64) ([]*domain.Comment, error)
	ByOwner(ctx context.Context, ownerID int64) ([]*domain.Comment, error)
	Update(ctx context.Context, c *domain.Comment) error
}

type TagStore interface {
	ByName(ctx context.Context, name string) (*domain.Tag, error)
	Create(ctx context.Context, t *domain.Tag) error
	Update(ctx context.Context, t *domain.Tag) error
	All(ctx context.Context) ([]*domain.Tag, error)
}

type VoteStore interface {
	Get(ctx context.Context, voterID int64, target domain.ContentRef) (*domain.Vote, error)
	// Put inserts or replaces the single vote for (voter, target).
	Put(ctx context.Context, v *domain.Vote) error
	Delete(ctx context.Context, voterID int64, target domain.ContentRef) error
}

type BookmarkStore interface {
	Exists(ctx context.Context, userID int64, target domain.ContentRef) (bool, error)
	Put(ctx context.Context, b *domain.Bookmark) error
	Delete(ctx context.Context, userID int64, target domain.ContentRef) error
}

type TokenStore interface {
	Save(ctx context.Context, t *domain.SecurityToken) error
	Get(ctx context.Context, kind domain.TokenKind, token string) (*domain.SecurityToken, error)
	// Consume atomically checks the token is unused and unexpired at
	// now, marks it consumed and returns the owner id. Failures are the
	// domain token errors; a failed consume never mutates state.
	Consume(ctx context.Context, kind domain.TokenKind, token string, now time.Time) (int64, error)
}

type DeleteRequestStore interface {
	Exists(ctx context.Context, userID int64) (bool, error)
	Put(ctx context.Context, d *domain.DeleteRequest) error
	Remove(ctx context.Context, userID int64) error
}

// TokenPruner is implemented by token stores without native expiry so
// a background janitor can evict long-dead tokens.
type TokenPruner interface {
	PruneTokens(ctx context.Context, deadline time.Time) (int, error)
}
