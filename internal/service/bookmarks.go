package service

import (
	"context"

	"reddot/internal/domain"
)

// ToggleBookmark flips the actor's bookmark on the target and reports
// the new state: true when the bookmark now exists. Toggling twice
// always restores the starting state.
func (s *ContentService) ToggleBookmark(ctx context.Context, actor *domain.User, target domain.ContentRef) (bool, error) {
	if actor == nil {
		return false, &domain.PermissionError{Action: "bookmark"}
	}

	var bookmarked bool
	err := s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		// Bookmarking requires the target to be visible, same as voting.
		if _, _, _, err := s.voteTarget(ctx, target); err != nil {
			return err
		}
		exists, err := s.store.Bookmarks.Exists(ctx, actor.ID, target)
		if err != nil {
			return err
		}
		if exists {
			bookmarked = false
			return s.store.Bookmarks.Delete(ctx, actor.ID, target)
		}
		bookmarked = true
		return s.store.Bookmarks.Put(ctx, &domain.Bookmark{
			UserID:    actor.ID,
			Target:    target,
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return false, err
	}
	return bookmarked, nil
}

// IsBookmarked reports whether the actor has the target bookmarked.
// Anonymous callers never do.
func (s *ContentService) IsBookmarked(ctx context.Context, actor *domain.User, target domain.ContentRef) (bool, error) {
	if actor == nil {
		return false, nil
	}
	return s.store.Bookmarks.Exists(ctx, actor.ID, target)
}
