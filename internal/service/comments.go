package service

import (
	"context"
	"fmt"
	"sort"

	"reddot/internal/domain"
	"reddot/internal/logger"
)

// CreateComment attaches a new comment under the parent, which is
// either a question (top-level comment) or another comment (reply).
// The parent link is set once here and never changes.
func (s *ContentService) CreateComment(ctx context.Context, actor *domain.User, parent domain.ContentRef, text string) (*CommentView, error) {
	if actor == nil {
		return nil, &domain.PermissionError{Action: "comment"}
	}
	if text == "" {
		return nil, domain.Violated([]string{"text must not be empty"})
	}

	cm := &domain.Comment{Text: text}
	err := s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		switch parent.Kind {
		case domain.KindQuestion:
			q, err := s.visibleQuestion(ctx, parent.ID)
			if err != nil {
				return err
			}
			cm.ParentQuestionID = &q.ID
		case domain.KindComment:
			p, err := s.visibleComment(ctx, parent.ID, false)
			if err != nil {
				return err
			}
			cm.ParentCommentID = &p.ID
		default:
			return domain.Violated([]string{fmt.Sprintf("unknown parent kind %q", parent.Kind)})
		}
		cm.TouchCreate(actor.ID, s.now())
		return s.store.Comments.Create(ctx, cm)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("comment created",
		logger.Int64("comment_id", cm.ID),
		logger.String("parent_kind", string(parent.Kind)),
		logger.Int64("parent_id", parent.ID))
	return s.commentView(ctx, actor, cm), nil
}

// EditComment updates the text of a comment the actor may mutate.
func (s *ContentService) EditComment(ctx context.Context, actor *domain.User, id int64, text string) (*CommentView, error) {
	if text == "" {
		return nil, domain.Violated([]string{"text must not be empty"})
	}
	var cm *domain.Comment
	err := s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		cm, err = s.visibleComment(ctx, id, false)
		if err != nil {
			return err
		}
		if !domain.CanMutate(actor, cm) {
			return &domain.PermissionError{Action: "edit this comment"}
		}
		cm.Text = text
		cm.TouchUpdate(s.now())
		return s.store.Comments.Update(ctx, cm)
	})
	if err != nil {
		return nil, err
	}
	return s.commentView(ctx, actor, cm), nil
}

// SoftDeleteComment marks a comment deleted; its replies stay attached
// and disappear from default views transitively.
func (s *ContentService) SoftDeleteComment(ctx context.Context, actor *domain.User, id int64) error {
	return s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		cm, err := s.visibleComment(ctx, id, false)
		if err != nil {
			return err
		}
		if !domain.CanDelete(actor, cm) {
			return &domain.PermissionError{Action: "delete this comment"}
		}
		cm.SoftDelete(s.now())
		if err := s.store.Comments.Update(ctx, cm); err != nil {
			return err
		}
		s.logger.Info("comment soft-deleted",
			logger.Int64("comment_id", id),
			logger.Int64("actor_id", actor.ID))
		return nil
	})
}

// GetComment returns one comment with its reply tree. The whole
// ancestor chain must be visible; a comment under a deleted question
// reports as not found.
func (s *ContentService) GetComment(ctx context.Context, actor *domain.User, id int64, includeHidden bool) (*CommentView, error) {
	cm, err := s.visibleComment(ctx, id, includeHidden)
	if err != nil {
		return nil, err
	}
	view := s.commentView(ctx, actor, cm)
	replies, err := s.store.Comments.ByParentComment(ctx, cm.ID)
	if err != nil {
		return nil, err
	}
	view.Replies, err = s.commentViews(ctx, actor, replies, includeHidden, 0)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListCommentsByUser returns one user's comments as a flat listing,
// newest first, ties broken by descending id.
func (s *ContentService) ListCommentsByUser(ctx context.Context, actor *domain.User, userID int64, includeHidden bool) ([]*CommentView, error) {
	if _, err := s.store.Users.Get(ctx, userID); err != nil {
		return nil, mapStoreErr(err, "user", userID)
	}
	owned, err := s.store.Comments.ByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	visible := domain.FilterVisible(owned, includeHidden)
	sort.Slice(visible, func(i, j int) bool {
		if !visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return visible[i].CreatedAt.After(visible[j].CreatedAt)
		}
		return visible[i].ID > visible[j].ID
	})

	views := make([]*CommentView, 0, len(visible))
	for _, c := range visible {
		views = append(views, s.commentView(ctx, actor, c))
	}
	return views, nil
}

// visibleComment fetches a comment and walks the parent chain by
// iterative lookup: the comment is visible only if every ancestor up
// to the root question is. The chain is acyclic because parent links
// are immutable; maxReplyDepth caps the walk anyway.
func (s *ContentService) visibleComment(ctx context.Context, id int64, includeHidden bool) (*domain.Comment, error) {
	cm, err := s.store.Comments.Get(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "comment", id)
	}
	if !domain.Visible(cm, includeHidden) {
		return nil, domain.NotFound("comment", id)
	}

	cur := cm
	for depth := 0; depth < maxReplyDepth; depth++ {
		if cur.ParentCommentID != nil {
			parent, err := s.store.Comments.Get(ctx, *cur.ParentCommentID)
			if err != nil {
				return nil, mapStoreErr(err, "comment", id)
			}
			if !domain.Visible(parent, includeHidden) {
				return nil, domain.NotFound("comment", id)
			}
			cur = parent
			continue
		}
		if cur.ParentQuestionID != nil {
			q, err := s.store.Questions.Get(ctx, *cur.ParentQuestionID)
			if err != nil {
				return nil, mapStoreErr(err, "comment", id)
			}
			if !domain.Visible(q, includeHidden) {
				return nil, domain.NotFound("comment", id)
			}
		}
		return cm, nil
	}
	return nil, domain.NotFound("comment", id)
}
