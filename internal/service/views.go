package service

import (
	"context"
	"sort"
	"time"

	"reddot/internal/domain"
)

// SortKey orders user-scoped question listings.
type SortKey string

const (
	SortByScore  SortKey = "score"
	SortByNewest SortKey = "newest"
)

// QuestionView is the presentable shape of a question, with the
// actor-specific flags the caller needs to render vote and bookmark
// state.
type QuestionView struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Tags      []string       `json:"tags"`
	Status    domain.Status  `json:"status"`
	OwnerID   int64          `json:"owner_id"`
	Upvotes   int64          `json:"upvotes"`
	Downvotes int64          `json:"downvotes"`
	Score     int64          `json:"score"`
	Closed    bool           `json:"closed"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	Upvoted    bool `json:"upvoted"`
	Downvoted  bool `json:"downvoted"`
	Bookmarked bool `json:"bookmarked"`

	Comments []*CommentView `json:"comments,omitempty"`
}

// CommentView is the presentable shape of a comment, replies nested.
type CommentView struct {
	ID        int64         `json:"id"`
	Text      string        `json:"text"`
	Status    domain.Status `json:"status"`
	OwnerID   int64         `json:"owner_id"`
	Upvotes   int64         `json:"upvotes"`
	Downvotes int64         `json:"downvotes"`
	Score     int64         `json:"score"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	Upvoted    bool `json:"upvoted"`
	Downvoted  bool `json:"downvoted"`
	Bookmarked bool `json:"bookmarked"`

	Replies []*CommentView `json:"replies,omitempty"`
}

// TagView is the presentable shape of a tag.
type TagView struct {
	Name       string `json:"name"`
	UsageCount int64  `json:"usage_count"`
}

func (s *ContentService) questionView(ctx context.Context, actor *domain.User, q *domain.Question) *QuestionView {
	v := &QuestionView{
		ID:        q.ID,
		Title:     q.Title,
		Body:      q.Body,
		Tags:      append([]string(nil), q.Tags...),
		Status:    q.Status,
		OwnerID:   q.OwnerID,
		Upvotes:   q.Upvotes,
		Downvotes: q.Downvotes,
		Score:     q.Score(),
		Closed:    q.Closed(),
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
	s.decorate(ctx, actor, domain.QuestionRef(q.ID), &v.Upvoted, &v.Downvoted, &v.Bookmarked)
	return v
}

func (s *ContentService) commentView(ctx context.Context, actor *domain.User, c *domain.Comment) *CommentView {
	v := &CommentView{
		ID:        c.ID,
		Text:      c.Text,
		Status:    c.Status,
		OwnerID:   c.OwnerID,
		Upvotes:   c.Upvotes,
		Downvotes: c.Downvotes,
		Score:     c.Score(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	s.decorate(ctx, actor, domain.CommentRef(c.ID), &v.Upvoted, &v.Downvoted, &v.Bookmarked)
	return v
}

// decorate fills the actor-specific flags. Anonymous callers keep the
// zero values; lookup failures degrade to unset flags rather than
// failing the whole view.
func (s *ContentService) decorate(ctx context.Context, actor *domain.User, target domain.ContentRef, upvoted, downvoted, bookmarked *bool) {
	if actor == nil {
		return
	}
	if v, err := s.store.Votes.Get(ctx, actor.ID, target); err == nil {
		*upvoted = v.Direction == domain.VoteUp
		*downvoted = v.Direction == domain.VoteDown
	}
	if ok, err := s.store.Bookmarks.Exists(ctx, actor.ID, target); err == nil {
		*bookmarked = ok
	}
}

// commentTree loads the visible comments under a question, replies
// nested, every level filtered by the same visibility policy.
func (s *ContentService) commentTree(ctx context.Context, actor *domain.User, questionID int64, includeHidden bool) ([]*CommentView, error) {
	top, err := s.store.Comments.ByQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return s.commentViews(ctx, actor, top, includeHidden, 0)
}

// maxReplyDepth caps reply-chain recursion while assembling views.
const maxReplyDepth = 32

func (s *ContentService) commentViews(ctx context.Context, actor *domain.User, comments []*domain.Comment, includeHidden bool, depth int) ([]*CommentView, error) {
	if depth > maxReplyDepth {
		return nil, nil
	}
	visible := domain.FilterVisible(comments, includeHidden)
	sortCommentsByCreation(visible)

	views := make([]*CommentView, 0, len(visible))
	for _, c := range visible {
		v := s.commentView(ctx, actor, c)
		replies, err := s.store.Comments.ByParentComment(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		v.Replies, err = s.commentViews(ctx, actor, replies, includeHidden, depth+1)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func sortCommentsByCreation(comments []*domain.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}

// sortQuestions orders descending by the sort key, ties broken by
// descending id so the order is deterministic.
func sortQuestions(questions []*domain.Question, key SortKey) {
	sort.Slice(questions, func(i, j int) bool {
		a, b := questions[i], questions[j]
		switch key {
		case SortByNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		default: // score
			if a.Score() != b.Score() {
				return a.Score() > b.Score()
			}
		}
		return a.ID > b.ID
	})
}
