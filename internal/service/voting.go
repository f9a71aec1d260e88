package service

import (
	"context"
	"errors"

	"reddot/internal/domain"
	"reddot/internal/logger"
	"reddot/internal/store"
)

// VoteCounts is the post-vote tally of the target.
type VoteCounts struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
	Score     int64 `json:"score"`
}

// ApplyVote records the actor's vote on the target. A repeated vote in
// the same direction is a no-op; a vote in the opposite direction moves
// the ballot, shifting the score by two. The whole read-check-write runs
// in one transaction so concurrent ballots never lose a counter update.
func (s *ContentService) ApplyVote(ctx context.Context, actor *domain.User, target domain.ContentRef, dir domain.VoteDirection) (*VoteCounts, error) {
	if actor == nil {
		return nil, &domain.PermissionError{Action: "vote"}
	}
	if dir != domain.VoteUp && dir != domain.VoteDown {
		return nil, domain.Violated([]string{"vote direction must be up or down"})
	}

	var counts *VoteCounts
	err := s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		up, down, save, err := s.voteTarget(ctx, target)
		if err != nil {
			return err
		}

		prev, err := s.store.Votes.Get(ctx, actor.ID, target)
		switch {
		case errors.Is(err, store.ErrNotFound):
			*s.counter(up, down, dir)++
		case err != nil:
			return err
		case prev.Direction == dir:
			// Already voted this way; nothing to move.
			counts = &VoteCounts{Upvotes: *up, Downvotes: *down, Score: *up - *down}
			return nil
		default:
			*s.counter(up, down, prev.Direction)--
			*s.counter(up, down, dir)++
		}

		if err := s.store.Votes.Put(ctx, &domain.Vote{
			VoterID:   actor.ID,
			Target:    target,
			Direction: dir,
			CreatedAt: s.now(),
		}); err != nil {
			return err
		}
		if err := save(ctx); err != nil {
			return err
		}
		counts = &VoteCounts{Upvotes: *up, Downvotes: *down, Score: *up - *down}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("vote applied",
		logger.Int64("voter_id", actor.ID),
		logger.String("target_kind", string(target.Kind)),
		logger.Int64("target_id", target.ID),
		logger.Int("direction", int(dir)))
	return counts, nil
}

// RemoveVote withdraws the actor's vote, decrementing the matching
// counter. Removing a vote that does not exist is a no-op.
func (s *ContentService) RemoveVote(ctx context.Context, actor *domain.User, target domain.ContentRef) (*VoteCounts, error) {
	if actor == nil {
		return nil, &domain.PermissionError{Action: "vote"}
	}

	var counts *VoteCounts
	err := s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		up, down, save, err := s.voteTarget(ctx, target)
		if err != nil {
			return err
		}

		prev, err := s.store.Votes.Get(ctx, actor.ID, target)
		switch {
		case errors.Is(err, store.ErrNotFound):
			counts = &VoteCounts{Upvotes: *up, Downvotes: *down, Score: *up - *down}
			return nil
		case err != nil:
			return err
		}

		*s.counter(up, down, prev.Direction)--
		if err := s.store.Votes.Delete(ctx, actor.ID, target); err != nil {
			return err
		}
		if err := save(ctx); err != nil {
			return err
		}
		counts = &VoteCounts{Upvotes: *up, Downvotes: *down, Score: *up - *down}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *ContentService) counter(up, down *int64, dir domain.VoteDirection) *int64 {
	if dir == domain.VoteUp {
		return up
	}
	return down
}

// voteTarget resolves the ref to its counters and a save closure, so
// the vote paths stay agnostic of the concrete content kind.
func (s *ContentService) voteTarget(ctx context.Context, target domain.ContentRef) (up, down *int64, save func(context.Context) error, err error) {
	switch target.Kind {
	case domain.KindQuestion:
		q, err := s.visibleQuestion(ctx, target.ID)
		if err != nil {
			return nil, nil, nil, err
		}
		return &q.Upvotes, &q.Downvotes, func(ctx context.Context) error {
			return s.store.Questions.Update(ctx, q)
		}, nil
	case domain.KindComment:
		cm, err := s.visibleComment(ctx, target.ID, false)
		if err != nil {
			return nil, nil, nil, err
		}
		return &cm.Upvotes, &cm.Downvotes, func(ctx context.Context) error {
			return s.store.Comments.Update(ctx, cm)
		}, nil
	default:
		return nil, nil, nil, domain.Violated([]string{"vote target must be a question or a comment"})
	}
}
